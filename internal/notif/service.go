package notif

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"researchhub/internal/common"
	"researchhub/internal/config"
)

// NotificationService is the orchestration seam application code uses.
// Persist-then-push: a notification is never pushed without being
// recorded first, though it may be recorded and not (yet) pushed.
type NotificationService struct {
	store       common.NotificationStore
	broadcaster *EventBroadcaster
	listLimit   int
}

func NewNotificationService(
	cfg *config.Config,
	store common.NotificationStore,
	broadcaster *EventBroadcaster,
) *NotificationService {
	listLimit := cfg.Notification.DefaultListLimit
	if listLimit <= 0 {
		listLimit = 50
	}

	return &NotificationService{
		store:       store,
		broadcaster: broadcaster,
		listLimit:   listLimit,
	}
}

// Notify is the sole write entry point into the notification core.
// Persistence failures propagate to the caller; push failures never do.
func (s *NotificationService) Notify(
	ctx context.Context,
	userID string,
	kind common.NotificationKind,
	title, body string,
	metadata common.NotificationMetadata,
) (*common.Notification, error) {
	notif, err := s.store.Create(ctx, userID, kind, title, body, metadata)
	if err != nil {
		return nil, err
	}

	event := common.Event{
		Type:           common.ActionEvent,
		ActionType:     actionTypeFor(kind, metadata),
		Title:          notif.Title,
		Message:        notif.Body,
		NotificationID: notif.ID,
		Metadata:       notif.Metadata,
		Timestamp:      time.Now(),
	}

	if !s.broadcaster.Push(userID, event) {
		log.Printf("User %s not connected, notification %s will be picked up by polling", userID, notif.ID)
	}

	return notif, nil
}

// EmitAction pushes a transient action event without a durable record.
// Returns whether a delivery attempt was made.
func (s *NotificationService) EmitAction(
	userID, actionType, title, message string,
	metadata common.NotificationMetadata,
) bool {
	event := common.Event{
		Type:       common.ActionEvent,
		ActionType: actionType,
		Title:      title,
		Message:    message,
		Metadata:   metadata,
		Timestamp:  time.Now(),
	}

	return s.broadcaster.Push(userID, event)
}

// UserNotifications returns the bounded, newest-first list together
// with the unread counter the client renders alongside it.
func (s *NotificationService) UserNotifications(ctx context.Context, userID string, limit int) (*common.NotificationListResponse, error) {
	if limit <= 0 || limit > s.listLimit {
		limit = s.listLimit
	}

	notifications, err := s.store.ByUserID(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}

	unreadCount, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get unread count: %w", err)
	}

	responses := make([]*common.NotificationResponse, len(notifications))
	for i, notif := range notifications {
		responses[i] = common.ToNotificationResponse(notif)
	}

	return &common.NotificationListResponse{
		Notifications: responses,
		UnreadCount:   unreadCount,
	}, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID string) (*common.Notification, error) {
	return s.store.MarkAsRead(ctx, userID, notificationID)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	return s.store.Delete(ctx, userID, notificationID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.store.UnreadCount(ctx, userID)
}

// SendInvitationNotification notifies a user that a collaborator
// invited them to a project.
func (s *NotificationService) SendInvitationNotification(
	ctx context.Context,
	toUserID, inviterName, projectTitle, invitationID, projectID string,
) (*common.Notification, error) {
	return s.Notify(ctx, toUserID, common.InvitationKind,
		"New Collaboration Invitation",
		fmt.Sprintf("%s invited you to collaborate on %q", inviterName, projectTitle),
		common.NotificationMetadata{
			"invitation_id": invitationID,
			"project_id":    projectID,
			"project_title": projectTitle,
			"sender_name":   inviterName,
		},
	)
}

// SendDocumentNotification notifies a user that a document was uploaded
// to one of their projects.
func (s *NotificationService) SendDocumentNotification(
	ctx context.Context,
	toUserID, uploaderName, fileName, projectID, documentID string,
) (*common.Notification, error) {
	return s.Notify(ctx, toUserID, common.DocumentKind,
		"Document Uploaded",
		fmt.Sprintf("%s uploaded %s", uploaderName, fileName),
		common.NotificationMetadata{
			"document_id": documentID,
			"project_id":  projectID,
			"sender_name": uploaderName,
			"action_type": "document_uploaded",
		},
	)
}

// SendMessageNotification notifies a user about a new project message.
func (s *NotificationService) SendMessageNotification(
	ctx context.Context,
	toUserID, senderName, senderID, projectID, preview string,
) (*common.Notification, error) {
	return s.Notify(ctx, toUserID, common.MessageKind,
		fmt.Sprintf("Message from %s", senderName),
		preview,
		common.NotificationMetadata{
			"project_id":  projectID,
			"sender_id":   senderID,
			"sender_name": senderName,
		},
	)
}

// SendSystemNotification delivers a platform announcement to a user.
func (s *NotificationService) SendSystemNotification(
	ctx context.Context,
	userID, title, body string,
) (*common.Notification, error) {
	return s.Notify(ctx, userID, common.SystemKind, title, body, nil)
}

// SendActionNotification records a user-visible action with a free-form
// action_type discriminator inside the metadata bag.
func (s *NotificationService) SendActionNotification(
	ctx context.Context,
	userID, title, body, actionType string,
	metadata common.NotificationMetadata,
) (*common.Notification, error) {
	// Annotate a copy; the caller keeps ownership of its map.
	annotated := make(common.NotificationMetadata, len(metadata)+1)
	for key, value := range metadata {
		annotated[key] = value
	}
	annotated["action_type"] = actionType

	return s.Notify(ctx, userID, common.ActionKind, title, body, annotated)
}

func actionTypeFor(kind common.NotificationKind, metadata common.NotificationMetadata) string {
	if actionType, ok := metadata["action_type"].(string); ok && actionType != "" {
		return actionType
	}
	return strings.ToLower(string(kind))
}
