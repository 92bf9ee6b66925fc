package pubsub

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/mirror520/taskboard/events"
)

// PubSub is the outbound side of the event bus. Consumers read the
// stream with their own clients.
type PubSub interface {
	Publish(topic string, data []byte) error
	AddStream(name string, raw json.RawMessage) error
	Close() error
}

// EventPublisher forwards committed domain events to the event bus.
// Delivery is best effort: failures are logged and dropped.
type EventPublisher struct {
	log    *zap.Logger
	pubSub PubSub
}

// NewEventPublisher returns a publisher; a nil pubSub discards every
// event.
func NewEventPublisher(pubSub PubSub) *EventPublisher {
	return &EventPublisher{
		log:    zap.L().With(zap.String("pubsub", "events")),
		pubSub: pubSub,
	}
}

func (p *EventPublisher) Publish(evts ...events.DomainEvent) {
	if p == nil || p.pubSub == nil {
		return
	}

	for _, e := range evts {
		log := p.log.With(
			zap.String("event", e.EventName()),
			zap.String("topic", e.Topic()),
		)

		data, err := json.Marshal(e)
		if err != nil {
			log.Error(err.Error())
			continue
		}

		if err := p.pubSub.Publish(e.Topic(), data); err != nil {
			log.Error(err.Error())
			continue
		}

		log.Debug("event published")
	}
}
