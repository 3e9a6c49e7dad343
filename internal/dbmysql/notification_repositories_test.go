package dbmysql

import (
	"context"
	"regexp"
	"testing"
	"time"

	"researchhub/internal/common"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return gormDB, mock, cleanup
}

func notificationColumns() []string {
	return []string{"id", "user_id", "kind", "title", "body", "read", "metadata", "created_at", "updated_at"}
}

func TestNotificationStore_Create(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `notifications`")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	store := NewNotificationStore(db)
	notif, err := store.Create(context.Background(), "user-1", common.MessageKind,
		"Message from Ada", "hello", common.NotificationMetadata{"project_id": "proj-1"})

	require.NoError(t, err)
	assert.NotEmpty(t, notif.ID)
	assert.Equal(t, "user-1", notif.UserID)
	assert.Equal(t, common.MessageKind, notif.Kind)
	assert.False(t, notif.Read)
	assert.Equal(t, notif.CreatedAt, notif.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStore_CreateValidation(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewNotificationStore(db)

	tests := []struct {
		name   string
		userID string
		kind   common.NotificationKind
		title  string
	}{
		{"empty user id", "", common.MessageKind, "t"},
		{"malformed user id", "has spaces!", common.MessageKind, "t"},
		{"unknown kind", "user-1", common.NotificationKind("SHOUT"), "t"},
		{"empty title", "user-1", common.MessageKind, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(context.Background(), tt.userID, tt.kind, tt.title, "body", nil)

			require.Error(t, err)
			assert.True(t, common.IsValidationError(err))
		})
	}

	// Validation rejects before any SQL runs.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStore_CreateDBError(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `notifications`")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	store := NewNotificationStore(db)
	_, err := store.Create(context.Background(), "user-1", common.MessageKind, "t", "b", nil)

	assert.ErrorContains(t, err, "failed to create notification")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStore_ByUserID(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows(notificationColumns()).
		AddRow("n-2", "user-1", "DOCUMENT", "Document Uploaded", "results.csv", false, []byte(`{"project_id":"proj-1"}`), now, now).
		AddRow("n-1", "user-1", "MESSAGE", "hi", "there", true, nil, now.Add(-time.Hour), now.Add(-time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `notifications` WHERE user_id = ?")).
		WithArgs("user-1", 50).
		WillReturnRows(rows)

	store := NewNotificationStore(db)
	notifications, err := store.ByUserID(context.Background(), "user-1", 50)

	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, "n-2", notifications[0].ID)
	assert.Equal(t, common.DocumentKind, notifications[0].Kind)
	assert.Equal(t, "proj-1", notifications[0].Metadata["project_id"])
	assert.True(t, notifications[1].Read)
	assert.Nil(t, notifications[1].Metadata)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStore_ByUserIDEmpty(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `notifications` WHERE user_id = ?")).
		WithArgs("ghost", 50).
		WillReturnRows(sqlmock.NewRows(notificationColumns()))

	store := NewNotificationStore(db)
	notifications, err := store.ByUserID(context.Background(), "ghost", 50)

	require.NoError(t, err)
	assert.Empty(t, notifications)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStore_UnreadCount(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `notifications`")).
		WithArgs("user-1", false).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(7))

	store := NewNotificationStore(db)
	count, err := store.UnreadCount(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStore_MarkAsRead(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows(notificationColumns()).
		AddRow("n-1", "user-1", "MESSAGE", "hi", "there", false, nil, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `notifications` WHERE id = ? AND user_id = ?")).
		WithArgs("n-1", "user-1", 1).
		WillReturnRows(rows)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `notifications`")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewNotificationStore(db)
	notif, err := store.MarkAsRead(context.Background(), "user-1", "n-1")

	require.NoError(t, err)
	assert.True(t, notif.Read)
	assert.True(t, notif.UpdatedAt.After(now) || notif.UpdatedAt.Equal(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStore_MarkAsReadIdempotent(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	created := time.Now().Add(-time.Hour)
	updated := time.Now().Add(-30 * time.Minute)
	rows := sqlmock.NewRows(notificationColumns()).
		AddRow("n-1", "user-1", "MESSAGE", "hi", "there", true, nil, created, updated)

	// Already read: the lookup is the only statement issued.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `notifications` WHERE id = ? AND user_id = ?")).
		WithArgs("n-1", "user-1", 1).
		WillReturnRows(rows)

	store := NewNotificationStore(db)
	notif, err := store.MarkAsRead(context.Background(), "user-1", "n-1")

	require.NoError(t, err)
	assert.True(t, notif.Read)
	assert.WithinDuration(t, updated, notif.UpdatedAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStore_MarkAsReadNotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `notifications` WHERE id = ? AND user_id = ?")).
		WithArgs("n-1", "intruder", 1).
		WillReturnRows(sqlmock.NewRows(notificationColumns()))

	store := NewNotificationStore(db)
	_, err := store.MarkAsRead(context.Background(), "intruder", "n-1")

	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStore_MarkAllAsRead(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `notifications`")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	store := NewNotificationStore(db)
	count, err := store.MarkAllAsRead(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStore_MarkAllAsReadNoneUnread(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `notifications`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	store := NewNotificationStore(db)
	count, err := store.MarkAllAsRead(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStore_Delete(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `notifications`")).
		WithArgs("n-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewNotificationStore(db)
	err := store.Delete(context.Background(), "user-1", "n-1")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStore_DeleteNotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `notifications`")).
		WithArgs("n-1", "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	store := NewNotificationStore(db)
	err := store.Delete(context.Background(), "intruder", "n-1")

	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
