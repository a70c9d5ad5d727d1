package di

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"plangraph/application/ports"
	"plangraph/application/services"
	"plangraph/infrastructure/config"
	natsmsg "plangraph/infrastructure/messaging/nats"
	noopmsg "plangraph/infrastructure/messaging/noop"
	"plangraph/infrastructure/persistence/memory"
	"plangraph/infrastructure/persistence/neo4j"
	noopdb "plangraph/infrastructure/persistence/noop"
	"plangraph/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideMetrics creates metrics instance registered on the default registry
func ProvideMetrics(cfg *config.Config) *observability.Metrics {
	if !cfg.EnableMetrics {
		return observability.NewMetrics(prometheus.NewRegistry())
	}
	return observability.NewMetrics(prometheus.DefaultRegisterer)
}

// ProvideVersionStore creates the in-memory version store
func ProvideVersionStore(logger *zap.Logger) ports.VersionStore {
	return memory.NewVersionStore(logger)
}

// ProvideStatementExecutor creates a statement executor. When no database
// endpoint is configured the service runs with persistence disabled.
func ProvideStatementExecutor(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.StatementExecutor, error) {
	if cfg.Neo4jURI == "" {
		logger.Warn("NEO4J_URI not set, persistence disabled")
		return noopdb.NewStatementExecutor(logger), nil
	}
	executor, err := neo4j.NewStatementExecutor(cfg.Neo4jURI, cfg.Neo4jUsername, cfg.Neo4jPassword, logger)
	if err != nil {
		return nil, err
	}
	if err := executor.Ping(ctx); err != nil {
		logger.Warn("database unreachable at startup", zap.Error(err))
	}
	return executor, nil
}

// ProvideEventPublisher creates an event publisher. When no broker is
// configured change notifications are dropped.
func ProvideEventPublisher(cfg *config.Config, logger *zap.Logger) (ports.EventPublisher, error) {
	if cfg.NATSURL == "" {
		logger.Warn("NATS_URL not set, change notifications disabled")
		return noopmsg.NewPublisher(logger), nil
	}
	return natsmsg.NewPublisher(cfg.NATSURL, logger)
}

// ProvideSyncCoordinator creates the central coordination service
func ProvideSyncCoordinator(
	store ports.VersionStore,
	executor ports.StatementExecutor,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) *services.SyncCoordinator {
	return services.NewSyncCoordinator(
		store,
		executor,
		publisher,
		metrics,
		logger,
		cfg.CoalesceWindow,
		cfg.PersistTimeout,
	)
}
