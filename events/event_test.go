package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testEvent string

func (e testEvent) EventName() string { return string(e) }
func (e testEvent) Topic() string     { return "test." + string(e) }

func TestEventStore(t *testing.T) {
	assert := assert.New(t)

	store := NewEventStore()
	store.AddEvent(testEvent("a"), testEvent("b"))
	assert.Len(store.Events(), 2)

	drained := store.ClearEvents()
	assert.Len(drained, 2)
	assert.Equal("test.a", drained[0].Topic())
	assert.Empty(store.Events())
}
