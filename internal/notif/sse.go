package notif

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"researchhub/internal/common"
)

var errStreamClosed = errors.New("stream closed")

// sseHandle is one server-sent-events connection. Send frames a JSON
// event as a single SSE message; the mutex keeps concurrent pushes
// (broadcaster vs heartbeat ticker) from interleaving partial writes.
type sseHandle struct {
	w       io.Writer
	flusher http.Flusher
	mu      sync.Mutex
	closed  bool
	done    chan struct{}
}

func newSSEHandle(w http.ResponseWriter, flusher http.Flusher) *sseHandle {
	return &sseHandle{
		w:       w,
		flusher: flusher,
		done:    make(chan struct{}),
	}
}

func (s *sseHandle) Send(event common.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errStreamClosed
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	s.flusher.Flush()
	return nil
}

// Close marks the handle dead and wakes the handler goroutine blocked
// in the event loop. Safe to call more than once: a superseded handle
// gets closed by the registry and again by its own handler's teardown.
func (s *sseHandle) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.done)
	}

	return nil
}

// Done signals that the handle was closed, normally because a newer
// connection from the same user replaced it.
func (s *sseHandle) Done() <-chan struct{} {
	return s.done
}
