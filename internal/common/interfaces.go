package common

import (
	"context"
)

// NotificationStore is durable, per-user notification persistence.
// Implementations live in dbmysql and dbmongo; the service layer only
// ever sees this interface.
type NotificationStore interface {
	Create(ctx context.Context, userID string, kind NotificationKind, title, body string, metadata NotificationMetadata) (*Notification, error)
	ByUserID(ctx context.Context, userID string, limit int) ([]*Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, userID, notificationID string) (*Notification, error)
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID, notificationID string) error
}

// StreamHandle is one live outbound push channel to a single client
// connection. Send must be safe for concurrent use; Close must be
// idempotent because a superseded handle may be closed twice.
type StreamHandle interface {
	Send(event Event) error
	Close() error
}
