package messenger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/iancoleman/strcase"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"sync"
)

var ErrExchangeNotFound = errors.New("exchange not found")

// Notifier publishes committed marketplace notifications to an external broker.
type Notifier interface {
	Publish(eventType string, msg interface{}) error
	Close() error
}

type MessageService interface {
	Notifier
	ConsumeMessages(ctx context.Context, queue string, bindingKey string, callback func(routingKey string, body []byte)) error
}

type Messenger struct {
	amqpUri  string
	exchange string
	reliable bool

	mu   sync.Mutex
	conn *amqp.Connection
}

func NewMessenger(amqpUri string, reliable bool) *Messenger {
	return &Messenger{amqpUri: amqpUri, exchange: MarketplaceExchange, reliable: reliable}
}

func (m *Messenger) Publish(eventType string, msg interface{}) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ch, err := m.openChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	ex, err := m.declareExchange(ch)
	if err != nil {
		return err
	}

	if m.reliable {
		if err := ch.Confirm(false); err != nil {
			zap.L().With(zap.Error(err)).Error("[Queue] Channel could not be put into confirm mode")
			return err
		}

		confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

		defer m.confirmOne(confirms)
	}

	publishing := amqp.Publishing{
		Headers:      amqp.Table{"event": eventType},
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Type:         eventType,
	}

	if err = ch.Publish(ex.Name, routingKey(eventType), false, false, publishing); err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Exchange Publish")
		return err
	}

	zap.L().With(zap.String("exchange", ex.Name), zap.String("routingKey", routingKey(eventType))).Debug("[Queue] Published message")

	return nil
}

func (m *Messenger) ConsumeMessages(ctx context.Context, queue string, bindingKey string, callback func(routingKey string, body []byte)) error {
	ch, err := m.openChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	ex, err := m.declareExchange(ch)
	if err != nil {
		return err
	}

	q, err := ch.QueueDeclare(queue, queue != "", queue == "", false, false, nil)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to declare a queue")
		return err
	}

	if err = ch.QueueBind(q.Name, bindingKey, ex.Name, false, nil); err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to bind a queue")
		return err
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to consume the queue")
		return err
	}

	zap.L().With(zap.String("exchange", ex.Name), zap.String("queue", q.Name)).Debug("[Queue] Waiting for messages")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			callback(d.RoutingKey, d.Body)
		}
	}
}

func (m *Messenger) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil || m.conn.IsClosed() {
		return nil
	}

	return m.conn.Close()
}

func (m *Messenger) declareExchange(ch *amqp.Channel) (exchange, error) {
	ex, ok := exchanges[m.exchange]
	if !ok {
		zap.L().Error("[Queue] Exchange not found")
		return ex, ErrExchangeNotFound
	}

	if err := ch.ExchangeDeclare(ex.Name, ex.Type, ex.Durable, ex.AutoDeleted, ex.Internal, ex.NoWait, ex.Arguments); err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Exchange Declare")
		return ex, err
	}

	return ex, nil
}

func (m *Messenger) openConnection() (*amqp.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil && !m.conn.IsClosed() {
		return m.conn, nil
	}

	conn, err := amqp.Dial(m.amqpUri)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to connect to RabbitMQ")
		return nil, err
	}

	m.conn = conn

	return m.conn, nil
}

func (m *Messenger) openChannel() (*amqp.Channel, error) {
	conn, err := m.openConnection()
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to open channel")
	}

	return ch, err
}

func (m *Messenger) confirmOne(confirms <-chan amqp.Confirmation) {
	zap.L().Debug("[Queue] Waiting for publish confirmation")

	if confirmed := <-confirms; confirmed.Ack {
		zap.L().Debug("[Queue] Publish confirmed")
	} else {
		zap.L().Warn("[Queue] Publish failed")
	}
}

// routingKey maps NFTSold to marketplace.nft_sold and so on.
func routingKey(eventType string) string {
	return fmt.Sprintf("marketplace.%s", strcase.ToSnake(eventType))
}
