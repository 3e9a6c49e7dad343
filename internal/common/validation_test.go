package common

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUserID(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		wantErr bool
	}{
		{"simple id", "alice", false},
		{"uuid style", "550e8400-e29b-41d4-a716-446655440000", false},
		{"underscores and digits", "user_42", false},
		{"max length", strings.Repeat("a", 64), false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"spaces inside", "alice smith", true},
		{"special characters", "alice@example.com", true},
		{"too long", strings.Repeat("a", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUserID(tt.userID)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateKind(t *testing.T) {
	for _, kind := range []NotificationKind{MessageKind, InvitationKind, SystemKind, DocumentKind, ActionKind} {
		assert.NoError(t, ValidateKind(kind))
	}

	err := ValidateKind(NotificationKind("SHOUT"))
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "type", validationErr.Field)
}

func TestValidateNotificationInput(t *testing.T) {
	assert.NoError(t, ValidateNotificationInput("alice", MessageKind, "hi", "there"))

	tests := []struct {
		name      string
		userID    string
		kind      NotificationKind
		title     string
		body      string
		wantField string
	}{
		{"bad user", "", MessageKind, "t", "b", "user_id"},
		{"bad kind", "alice", "SHOUT", "t", "b", "type"},
		{"empty title", "alice", MessageKind, "", "b", "title"},
		{"blank title", "alice", MessageKind, "  ", "b", "title"},
		{"empty body", "alice", MessageKind, "t", "", "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNotificationInput(tt.userID, tt.kind, tt.title, tt.body)
			require.Error(t, err)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.wantField, validationErr.Field)
		})
	}
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(&ValidationError{Field: "title", Reason: "must not be empty"}))
	assert.False(t, IsValidationError(errors.New("something else")))
	assert.False(t, IsValidationError(nil))
	assert.False(t, IsValidationError(ErrNotFound))
}
