package notif

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"researchhub/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEHandle_SendFramesEvent(t *testing.T) {
	recorder := httptest.NewRecorder()
	handle := newSSEHandle(recorder, recorder)

	count := int64(3)
	err := handle.Send(common.Event{
		Type:        common.HeartbeatEvent,
		UnreadCount: &count,
		Timestamp:   time.Now(),
	})

	require.NoError(t, err)
	body := recorder.Body.String()
	require.True(t, strings.HasPrefix(body, "data: "))
	require.True(t, strings.HasSuffix(body, "\n\n"))

	var event common.Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(body, "data: "))), &event))
	assert.Equal(t, common.HeartbeatEvent, event.Type)
	require.NotNil(t, event.UnreadCount)
	assert.Equal(t, int64(3), *event.UnreadCount)
	assert.Contains(t, body, `"unreadCount":3`)
	assert.True(t, recorder.Flushed)
}

func TestSSEHandle_ActionEventWireKeys(t *testing.T) {
	recorder := httptest.NewRecorder()
	handle := newSSEHandle(recorder, recorder)

	err := handle.Send(common.Event{
		Type:           common.ActionEvent,
		ActionType:     "document_uploaded",
		Title:          "Document Uploaded",
		NotificationID: "notif-123",
		Timestamp:      time.Now(),
	})

	require.NoError(t, err)
	body := recorder.Body.String()
	assert.Contains(t, body, `"actionType":"document_uploaded"`)
	assert.Contains(t, body, `"notificationId":"notif-123"`)
}

func TestSSEHandle_SendAfterClose(t *testing.T) {
	recorder := httptest.NewRecorder()
	handle := newSSEHandle(recorder, recorder)

	require.NoError(t, handle.Close())

	err := handle.Send(common.Event{Type: common.ConnectedEvent, Timestamp: time.Now()})
	assert.ErrorIs(t, err, errStreamClosed)
	assert.Empty(t, recorder.Body.String())
}

func TestSSEHandle_CloseIsIdempotent(t *testing.T) {
	recorder := httptest.NewRecorder()
	handle := newSSEHandle(recorder, recorder)

	require.NoError(t, handle.Close())
	require.NoError(t, handle.Close())

	select {
	case <-handle.Done():
	default:
		t.Fatal("Done must be signalled after Close")
	}
}
