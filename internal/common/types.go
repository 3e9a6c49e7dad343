package common

import (
	"time"
)

type NotificationKind string

const (
	MessageKind    NotificationKind = "MESSAGE"
	InvitationKind NotificationKind = "INVITATION"
	SystemKind     NotificationKind = "SYSTEM"
	DocumentKind   NotificationKind = "DOCUMENT"
	ActionKind     NotificationKind = "ACTION"
)

type NotificationMetadata map[string]interface{}

// Notification is the durable record owned by exactly one user.
// The core never interprets Metadata, it is stored and returned verbatim.
type Notification struct {
	ID        string
	UserID    string
	Kind      NotificationKind
	Title     string
	Body      string
	Read      bool
	Metadata  NotificationMetadata
	CreatedAt time.Time
	UpdatedAt time.Time
}

type EventType string

const (
	ConnectedEvent EventType = "connected"
	HeartbeatEvent EventType = "heartbeat"
	ActionEvent    EventType = "action"
)

// Event is the transient wire shape pushed over a live stream. Control
// events (connected, heartbeat) carry no notification payload.
type Event struct {
	Type           EventType            `json:"type"`
	Message        string               `json:"message,omitempty"`
	ActionType     string               `json:"actionType,omitempty"`
	Title          string               `json:"title,omitempty"`
	NotificationID string               `json:"notificationId,omitempty"`
	UnreadCount    *int64               `json:"unreadCount,omitempty"`
	Metadata       NotificationMetadata `json:"metadata,omitempty"`
	Timestamp      time.Time            `json:"timestamp"`
}

type NotificationResponse struct {
	ID        string               `json:"id"`
	UserID    string               `json:"user_id"`
	Kind      string               `json:"type"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Read      bool                 `json:"read"`
	Metadata  NotificationMetadata `json:"metadata,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// NotificationListResponse is what the pull API returns: the bounded,
// newest-first page plus the unread counter alongside it.
type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	UnreadCount   int64                   `json:"unread_count"`
}

func ToNotificationResponse(n *Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Kind:      string(n.Kind),
		Title:     n.Title,
		Message:   n.Body,
		Read:      n.Read,
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
