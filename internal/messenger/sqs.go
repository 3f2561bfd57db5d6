package messenger

import (
	"encoding/json"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"go.uber.org/zap"
)

type SqsNotifier struct {
	client   sqsiface.SQSAPI
	queueUrl string
}

func NewSqsNotifier(region, accessKey, secretKey, token, queueUrl string) (*SqsNotifier, error) {
	cfg := aws.NewConfig().WithRegion(region)
	if accessKey != "" {
		cfg = cfg.WithCredentials(credentials.NewStaticCredentials(accessKey, secretKey, token))
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("[Sqs] Failed to create session")
		return nil, err
	}

	return NewSqsNotifierWithClient(sqs.New(sess), queueUrl), nil
}

func NewSqsNotifierWithClient(client sqsiface.SQSAPI, queueUrl string) *SqsNotifier {
	return &SqsNotifier{client: client, queueUrl: queueUrl}
}

func (n *SqsNotifier) Publish(eventType string, msg interface{}) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	out, err := n.client.SendMessage(&sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueUrl),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]*sqs.MessageAttributeValue{
			"event": {
				DataType:    aws.String("String"),
				StringValue: aws.String(eventType),
			},
		},
	})
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("event", eventType)).Error("[Sqs] Failed to send message")
		return err
	}

	zap.L().With(zap.String("event", eventType), zap.String("messageId", aws.StringValue(out.MessageId))).Debug("[Sqs] Sent message")

	return nil
}

func (n *SqsNotifier) Close() error {
	return nil
}
