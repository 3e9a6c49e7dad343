package wire

import (
	"fmt"

	"researchhub/internal/common"
	"researchhub/internal/config"
	"researchhub/internal/dbmongo"
	"researchhub/internal/dbmysql"
	"researchhub/internal/notif"
)

type Application struct {
	Config      *config.Config
	Store       common.NotificationStore
	Registry    *notif.ConnectionRegistry
	Broadcaster *notif.EventBroadcaster
	Service     *notif.NotificationService
	Handler     *notif.NotificationHandler
}

// ProvideNotificationStore picks the durable store backend. MySQL is
// the default; deployments that keep platform data in MongoDB set
// NOTIF_STORE=mongo.
func ProvideNotificationStore(cfg *config.Config) (common.NotificationStore, error) {
	switch cfg.Notification.StoreDriver {
	case "mongo":
		client, err := dbmongo.NewMongoConnection(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mongo store: %w", err)
		}
		return dbmongo.NewNotificationStore(client), nil
	case "mysql", "":
		db, err := dbmysql.NewMySQL(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mysql store: %w", err)
		}
		return dbmysql.NewNotificationStore(db), nil
	default:
		return nil, fmt.Errorf("unknown notification store driver: %s", cfg.Notification.StoreDriver)
	}
}
