package dbmysql

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"researchhub/internal/common"
)

// Notification is the MySQL row backing one durable notification record.
type Notification struct {
	ID        string       `gorm:"primaryKey;size:36"`
	UserID    string       `gorm:"not null;index:idx_notifications_user_created;size:64"`
	Kind      string       `gorm:"not null;size:20"`
	Title     string       `gorm:"not null;size:255"`
	Body      string       `gorm:"not null;type:text"`
	Read      bool         `gorm:"not null;default:false;index:idx_notifications_user_read"`
	Metadata  JSONMetadata `gorm:"type:json"`
	CreatedAt time.Time    `gorm:"index:idx_notifications_user_created"`
	UpdatedAt time.Time
}

func (n *Notification) toDomain() *common.Notification {
	return &common.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Kind:      common.NotificationKind(n.Kind),
		Title:     n.Title,
		Body:      n.Body,
		Read:      n.Read,
		Metadata:  common.NotificationMetadata(n.Metadata),
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// JSONMetadata stores the open key/value bag as a JSON column.
type JSONMetadata common.NotificationMetadata

func (m JSONMetadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata column type %T", value)
	}

	return json.Unmarshal(raw, m)
}
