package messenger

import (
	"github.com/ZilDuck/nft-marketplace/internal/event"
	"go.uber.org/zap"
)

type Subscriber interface {
	AddEventListener(eventType event.Type, callback func(msg interface{}))
}

// Relay forwards every marketplace notification to the notifier.
func Relay(events Subscriber, notifier Notifier) {
	for _, t := range event.Types {
		eventType := t
		events.AddEventListener(eventType, func(msg interface{}) {
			if err := notifier.Publish(string(eventType), msg); err != nil {
				zap.L().With(zap.Error(err), zap.String("event", string(eventType))).Error("Messenger: Failed to relay notification")
			}
		})
	}
}
