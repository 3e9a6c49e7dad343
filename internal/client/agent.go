// Package client is the in-process notification agent a connected
// client runs: a live stream subscription with automatic reconnect, a
// fixed-interval poll fallback, and an imperative API over the pull
// endpoints. The stream is an optimization only; every piece of state
// the agent serves can be rebuilt from the pull API alone.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"researchhub/internal/common"
)

type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
)

const (
	defaultPollInterval   = 10 * time.Second
	defaultReconnectDelay = 3 * time.Second
)

// Snapshot is the agent's current view: the last reconciled list and
// unread count, the stream status, and when the data was last refreshed.
type Snapshot struct {
	Notifications []*common.NotificationResponse
	UnreadCount   int64
	Status        Status
	LastUpdate    time.Time
}

type Option func(*Agent)

func WithPollInterval(interval time.Duration) Option {
	return func(a *Agent) {
		a.pollInterval = interval
	}
}

func WithReconnectDelay(delay time.Duration) Option {
	return func(a *Agent) {
		a.reconnectDelay = delay
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(a *Agent) {
		a.httpClient = httpClient
	}
}

type Agent struct {
	baseURL        string
	token          string
	httpClient     *http.Client
	pollInterval   time.Duration
	reconnectDelay time.Duration

	mu            sync.RWMutex
	notifications []*common.NotificationResponse
	unreadCount   int64
	status        Status
	lastUpdate    time.Time

	updates chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewAgent(baseURL, token string, opts ...Option) *Agent {
	ctx, cancel := context.WithCancel(context.Background())

	agent := &Agent{
		baseURL:        strings.TrimRight(baseURL, "/"),
		token:          token,
		httpClient:     &http.Client{},
		pollInterval:   defaultPollInterval,
		reconnectDelay: defaultReconnectDelay,
		status:         StatusDisconnected,
		updates:        make(chan struct{}, 1),
		ctx:            ctx,
		cancel:         cancel,
	}

	for _, opt := range opts {
		opt(agent)
	}

	return agent
}

// Start launches the stream loop and the poll loop. Both stop when the
// agent is closed; Start must be called at most once.
func (a *Agent) Start() {
	a.wg.Add(2)
	go a.streamLoop()
	go a.pollLoop()
}

// Close releases the stream subscription and the poll timer. Idempotent;
// every exit path of the embedding client must end up here or the
// server keeps a registry entry until the next write fails.
func (a *Agent) Close() {
	a.cancel()
	a.wg.Wait()
}

func (a *Agent) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	// Copy the structs, not just the slice: the optimistic mutators
	// write through these pointers under the lock, and a snapshot must
	// stay safe to read without it.
	notifications := make([]*common.NotificationResponse, len(a.notifications))
	for i, notif := range a.notifications {
		copied := *notif
		notifications[i] = &copied
	}

	return Snapshot{
		Notifications: notifications,
		UnreadCount:   a.unreadCount,
		Status:        a.status,
		LastUpdate:    a.lastUpdate,
	}
}

// Updates signals state changes. The channel is coalescing: consumers
// read a snapshot after each signal rather than counting signals.
func (a *Agent) Updates() <-chan struct{} {
	return a.updates
}

func (a *Agent) streamLoop() {
	defer a.wg.Done()

	for {
		if a.ctx.Err() != nil {
			return
		}

		err := a.consumeStream()
		if a.ctx.Err() != nil {
			return
		}

		log.Printf("Notification stream lost: %v", err)
		a.setStatus(StatusReconnecting)

		select {
		case <-time.After(a.reconnectDelay):
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *Agent) consumeStream() error {
	req, err := http.NewRequestWithContext(a.ctx, http.MethodGet, a.baseURL+"/api/v1/notifications/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected stream status: %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var event common.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			log.Printf("Dropping malformed stream event: %v", err)
			continue
		}

		a.handleEvent(event)
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}

func (a *Agent) handleEvent(event common.Event) {
	switch event.Type {
	case common.ConnectedEvent:
		a.setStatus(StatusConnected)
	case common.HeartbeatEvent:
		if event.UnreadCount != nil {
			a.mu.Lock()
			a.unreadCount = *event.UnreadCount
			a.lastUpdate = time.Now()
			a.mu.Unlock()
			a.signal()
		}
	case common.ActionEvent:
		// Never trust the push payload as the source of truth: a full
		// re-fetch tolerates missed or out-of-order pushes.
		if err := a.Reconcile(a.ctx); err != nil {
			log.Printf("Reconciliation after push failed: %v", err)
		}
	}
}

func (a *Agent) pollLoop() {
	defer a.wg.Done()

	if err := a.Reconcile(a.ctx); err != nil {
		log.Printf("Initial notification fetch failed: %v", err)
	}

	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			if err := a.Reconcile(a.ctx); err != nil {
				log.Printf("Notification poll failed: %v", err)
			}
		}
	}
}

// Reconcile re-fetches the full list and unread count from the durable
// store, replacing whatever the agent held in memory.
func (a *Agent) Reconcile(ctx context.Context) error {
	resp, err := a.doJSON(ctx, http.MethodGet, "/api/v1/notifications", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected list status: %d", resp.StatusCode)
	}

	var list common.NotificationListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return fmt.Errorf("failed to decode notifications: %w", err)
	}

	a.mu.Lock()
	a.notifications = list.Notifications
	a.unreadCount = list.UnreadCount
	a.lastUpdate = time.Now()
	a.mu.Unlock()
	a.signal()

	return nil
}

// MarkAsRead optimistically flips local state, then calls the API. No
// rollback on failure; the next reconciliation corrects any drift.
func (a *Agent) MarkAsRead(ctx context.Context, notificationID string) error {
	a.mu.Lock()
	for _, notif := range a.notifications {
		if notif.ID == notificationID && !notif.Read {
			notif.Read = true
			if a.unreadCount > 0 {
				a.unreadCount--
			}
			break
		}
	}
	a.mu.Unlock()
	a.signal()

	resp, err := a.doJSON(ctx, http.MethodPut, "/api/v1/notifications/"+notificationID, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mark as read failed with status %d", resp.StatusCode)
	}
	return nil
}

func (a *Agent) MarkAllAsRead(ctx context.Context) error {
	a.mu.Lock()
	for _, notif := range a.notifications {
		notif.Read = true
	}
	a.unreadCount = 0
	a.mu.Unlock()
	a.signal()

	resp, err := a.doJSON(ctx, http.MethodPut, "/api/v1/notifications", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mark all as read failed with status %d", resp.StatusCode)
	}
	return nil
}

func (a *Agent) DeleteNotification(ctx context.Context, notificationID string) error {
	a.mu.Lock()
	kept := a.notifications[:0]
	for _, notif := range a.notifications {
		if notif.ID == notificationID {
			if !notif.Read && a.unreadCount > 0 {
				a.unreadCount--
			}
			continue
		}
		kept = append(kept, notif)
	}
	a.notifications = kept
	a.mu.Unlock()
	a.signal()

	resp, err := a.doJSON(ctx, http.MethodDelete, "/api/v1/notifications/"+notificationID, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete failed with status %d", resp.StatusCode)
	}
	return nil
}

// EmitAction records an action notification (for the calling user when
// targetUserID is empty) and reconciles so the new record shows up
// without waiting for the next poll.
func (a *Agent) EmitAction(ctx context.Context, actionType, title, message string, metadata common.NotificationMetadata, targetUserID string) error {
	// The caller keeps ownership of its map; annotate a copy.
	annotated := make(common.NotificationMetadata, len(metadata)+1)
	for key, value := range metadata {
		annotated[key] = value
	}
	annotated["action_type"] = actionType

	payload := map[string]interface{}{
		"type":           string(common.ActionKind),
		"title":          title,
		"message":        message,
		"metadata":       annotated,
		"target_user_id": targetUserID,
	}

	resp, err := a.doJSON(ctx, http.MethodPost, "/api/v1/notifications", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("emit action failed with status %d", resp.StatusCode)
	}

	if err := a.Reconcile(ctx); err != nil {
		log.Printf("Reconciliation after emit failed: %v", err)
	}
	return nil
}

func (a *Agent) doJSON(ctx context.Context, method, path string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return a.httpClient.Do(req)
}

func (a *Agent) setStatus(status Status) {
	a.mu.Lock()
	changed := a.status != status
	a.status = status
	a.mu.Unlock()

	if changed {
		a.signal()
	}
}

func (a *Agent) signal() {
	select {
	case a.updates <- struct{}{}:
	default:
	}
}
