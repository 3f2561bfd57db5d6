package messenger

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/ZilDuck/nft-marketplace/internal/event"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "marketplace.marketplace_created", routingKey(string(event.MarketplaceCreatedEvent)))
	assert.Equal(t, "marketplace.nft_listed", routingKey(string(event.NFTListedEvent)))
	assert.Equal(t, "marketplace.nft_listing_updated", routingKey(string(event.NFTListingUpdatedEvent)))
	assert.Equal(t, "marketplace.nft_sold", routingKey(string(event.NFTSoldEvent)))
	assert.Equal(t, "marketplace.nft_listing_canceled", routingKey(string(event.NFTListingCanceledEvent)))
}

type fakeSqs struct {
	sqsiface.SQSAPI

	mu    sync.Mutex
	input []*sqs.SendMessageInput
}

func (f *fakeSqs) SendMessage(in *sqs.SendMessageInput) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.input = append(f.input, in)

	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSqsNotifier_Publish(t *testing.T) {
	fake := &fakeSqs{}
	n := NewSqsNotifierWithClient(fake, "https://sqs.local/queue")

	require.NoError(t, n.Publish(string(event.NFTSoldEvent), event.NFTSold{Listing: "zil1l", Buyer: "0xbuyer", Price: 10}))

	require.Len(t, fake.input, 1)
	in := fake.input[0]
	assert.Equal(t, "https://sqs.local/queue", aws.StringValue(in.QueueUrl))
	assert.Equal(t, "NFTSold", aws.StringValue(in.MessageAttributes["event"].StringValue))

	var body event.NFTSold
	require.NoError(t, json.Unmarshal([]byte(aws.StringValue(in.MessageBody)), &body))
	assert.Equal(t, "0xbuyer", body.Buyer)
	assert.Equal(t, uint64(10), body.Price)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingNotifier) Publish(eventType string, msg interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
	return nil
}

func (r *recordingNotifier) Close() error { return nil }

func TestRelay(t *testing.T) {
	m := event.NewManager()
	n := &recordingNotifier{}
	Relay(m, n)

	m.EmitEvent(event.NFTListedEvent, event.NFTListed{})
	m.EmitEvent(event.NFTSoldEvent, event.NFTSold{})
	m.Close()

	assert.ElementsMatch(t, []string{"NFTListed", "NFTSold"}, n.events)
}
