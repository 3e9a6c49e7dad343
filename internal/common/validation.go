package common

import (
	"regexp"
	"strings"
)

var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateUserID checks shape only. Whether the user actually exists is
// the user directory's problem, not the notification core's.
func ValidateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	if !userIDRegex.MatchString(userID) {
		return &ValidationError{Field: "user_id", Reason: "must be 1-64 letters, numbers, dashes or underscores"}
	}

	return nil
}

func ValidateKind(kind NotificationKind) error {
	switch kind {
	case MessageKind, InvitationKind, SystemKind, DocumentKind, ActionKind:
		return nil
	}
	return &ValidationError{Field: "type", Reason: "unknown notification type"}
}

// ValidateNotificationInput is the shared precondition for Create on
// every store implementation.
func ValidateNotificationInput(userID string, kind NotificationKind, title, body string) error {
	if err := ValidateUserID(userID); err != nil {
		return err
	}

	if err := ValidateKind(kind); err != nil {
		return err
	}

	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	if strings.TrimSpace(body) == "" {
		return &ValidationError{Field: "message", Reason: "must not be empty"}
	}

	return nil
}
