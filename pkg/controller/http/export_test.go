package http

import "github.com/secmon-lab/itemdeck/pkg/usecase"

// EventHubForTest exposes the snapshot fan-out without an HTTP stream
type EventHubForTest struct {
	hub *eventHub
}

func NewEventHubForTest(store *usecase.ItemStore) *EventHubForTest {
	return &EventHubForTest{hub: newEventHub(store)}
}

// Register adds a client that nobody drains and returns its channel
func (x *EventHubForTest) Register() (<-chan []byte, func()) {
	id, ch, _ := x.hub.register()
	return ch, func() { x.hub.deregister(id) }
}

func (x *EventHubForTest) Close() {
	x.hub.Close()
}
