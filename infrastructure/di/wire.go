//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"plangraph/application/ports"
	"plangraph/application/services"
	"plangraph/infrastructure/config"
	"plangraph/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Store       ports.VersionStore
	Executor    ports.StatementExecutor
	Publisher   ports.EventPublisher
	Metrics     *observability.Metrics
	Coordinator *services.SyncCoordinator
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideVersionStore,
	ProvideStatementExecutor,
	ProvideEventPublisher,
	ProvideSyncCoordinator,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
