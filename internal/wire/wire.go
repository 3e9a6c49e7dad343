//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"

	"researchhub/internal/config"
	"researchhub/internal/notif"
)

// This is just a declaration — wire generates the real body.
func InitializeApplication() (*Application, error) {
	wire.Build(
		config.LoadConfig,
		ProvideNotificationStore,
		notif.NewConnectionRegistry,
		notif.NewEventBroadcaster,
		notif.NewNotificationService,
		notif.NewNotificationHandler,
		wire.Struct(new(Application), "*"),
	)
	return &Application{}, nil
}
