package notif

import (
	"log"
	"sync"

	"researchhub/internal/common"
)

// ConnectionRegistry tracks which users currently hold a live push
// channel, at most one per user. It is owned by the service process and
// injected where needed; state is lost on restart, which is fine because
// clients reconnect and reconcile through the pull API.
type ConnectionRegistry struct {
	mu      sync.RWMutex
	handles map[string]common.StreamHandle
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		handles: make(map[string]common.StreamHandle),
	}
}

// Register stores the handle for userID. Last connection wins: any
// previous handle is closed and replaced, so a user with two open tabs
// only receives pushes on the most recent one.
func (r *ConnectionRegistry) Register(userID string, handle common.StreamHandle) {
	r.mu.Lock()
	old := r.handles[userID]
	r.handles[userID] = handle
	r.mu.Unlock()

	if old != nil && old != handle {
		// Closed outside the lock; Close may wake a handler goroutine
		// that immediately calls Unregister.
		if err := old.Close(); err != nil {
			log.Printf("Failed to close superseded connection for user %s: %v", userID, err)
		}
	}
}

// Unregister removes the entry only if the stored handle is the one
// being unregistered. A stale close from a superseded connection must
// never evict the newer, valid one.
func (r *ConnectionRegistry) Unregister(userID string, handle common.StreamHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.handles[userID] == handle {
		delete(r.handles, userID)
	}
}

func (r *ConnectionRegistry) Lookup(userID string) (common.StreamHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, ok := r.handles[userID]
	return handle, ok
}

// ActiveConnections reports how many users currently hold a live stream.
func (r *ConnectionRegistry) ActiveConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.handles)
}

// Shutdown closes every live handle; part of process teardown.
func (r *ConnectionRegistry) Shutdown() {
	r.mu.Lock()
	handles := r.handles
	r.handles = make(map[string]common.StreamHandle)
	r.mu.Unlock()

	for userID, handle := range handles {
		if err := handle.Close(); err != nil {
			log.Printf("Failed to close connection for user %s: %v", userID, err)
		}
	}

	log.Println("ConnectionRegistry shutdown complete")
}
