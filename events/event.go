package events

import "sync"

type DomainEvent interface {
	EventName() string
	Topic() string
}

// EventStore collects the events raised on an aggregate until the unit
// of work that produced them has committed.
type EventStore interface {
	AddEvent(e ...DomainEvent)
	Events() []DomainEvent
	ClearEvents() []DomainEvent
}

type eventStore struct {
	events []DomainEvent
	sync.RWMutex
}

func NewEventStore() EventStore {
	return &eventStore{
		events: make([]DomainEvent, 0),
	}
}

func (s *eventStore) AddEvent(e ...DomainEvent) {
	s.Lock()
	s.events = append(s.events, e...)
	s.Unlock()
}

func (s *eventStore) Events() []DomainEvent {
	s.RLock()
	defer s.RUnlock()

	events := make([]DomainEvent, len(s.events))
	copy(events, s.events)
	return events
}

func (s *eventStore) ClearEvents() []DomainEvent {
	s.Lock()
	defer s.Unlock()

	events := s.events
	s.events = make([]DomainEvent, 0)
	return events
}
