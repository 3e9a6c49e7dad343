package dbmysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"researchhub/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type notificationStore struct {
	db *gorm.DB
}

func NewNotificationStore(db *gorm.DB) common.NotificationStore {
	return &notificationStore{
		db: db,
	}
}

func (s *notificationStore) Create(
	ctx context.Context,
	userID string,
	kind common.NotificationKind,
	title, body string,
	metadata common.NotificationMetadata,
) (*common.Notification, error) {
	if err := common.ValidateNotificationInput(userID, kind, title, body); err != nil {
		return nil, err
	}

	now := time.Now()
	notif := &Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      string(kind),
		Title:     title,
		Body:      body,
		Read:      false,
		Metadata:  JSONMetadata(metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.WithContext(ctx).Create(notif).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return notif.toDomain(), nil
}

func (s *notificationStore) ByUserID(ctx context.Context, userID string, limit int) ([]*common.Notification, error) {
	var notifications []*Notification

	query := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to get user notifications: %w", err)
	}

	result := make([]*common.Notification, len(notifications))
	for i, notif := range notifications {
		result[i] = notif.toDomain()
	}

	return result, nil
}

func (s *notificationStore) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64

	err := s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}

	return count, nil
}

// MarkAsRead mutates only records owned by userID; a foreign or missing
// id is the same ErrNotFound. Marking an already-read record again is a
// no-op and leaves UpdatedAt untouched.
func (s *notificationStore) MarkAsRead(ctx context.Context, userID, notificationID string) (*common.Notification, error) {
	var notif Notification

	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&notif).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up notification: %w", err)
	}

	if notif.Read {
		return notif.toDomain(), nil
	}

	now := time.Now()
	result := s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{
			"read":       true,
			"updated_at": now,
		})

	if result.Error != nil {
		return nil, fmt.Errorf("failed to mark notification as read: %w", result.Error)
	}

	notif.Read = true
	notif.UpdatedAt = now
	return notif.toDomain(), nil
}

func (s *notificationStore) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Updates(map[string]interface{}{
			"read":       true,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func (s *notificationStore) Delete(ctx context.Context, userID, notificationID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&Notification{})

	if result.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return common.ErrNotFound
	}

	return nil
}
