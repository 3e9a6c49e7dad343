package notif

import (
	"log"

	"researchhub/internal/common"
)

// EventBroadcaster attempts best-effort immediate delivery of an event
// to a user's live connection. At-most-once: no retry, no queueing.
// Eventual visibility comes from the durable store plus client polling,
// not from this path.
type EventBroadcaster struct {
	registry *ConnectionRegistry
}

func NewEventBroadcaster(registry *ConnectionRegistry) *EventBroadcaster {
	return &EventBroadcaster{
		registry: registry,
	}
}

// Push reports whether a delivery attempt was made, not whether the
// client rendered anything. "No live listener" is a routine outcome and
// returns false without logging an error. A failed write means the
// connection is dead, so the handle is evicted before returning false.
func (b *EventBroadcaster) Push(userID string, event common.Event) bool {
	handle, ok := b.registry.Lookup(userID)
	if !ok {
		return false
	}

	if err := handle.Send(event); err != nil {
		log.Printf("Evicting dead connection for user %s: %v", userID, err)
		b.registry.Unregister(userID, handle)
		handle.Close()
		return false
	}

	return true
}
