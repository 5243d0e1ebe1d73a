package bootstrap

import (
	"context"
	"time"

	chclient "wsbpanel/internal/adapters/clickhouse"
	"wsbpanel/internal/adapters/kafka"
	pgclient "wsbpanel/internal/adapters/postgres"
	redisclient "wsbpanel/internal/adapters/redis"
	"wsbpanel/pkg/errors"
	"wsbpanel/pkg/logger"
)

// Lifecycle manages orderly shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		shutdownTimeout: 30 * time.Second,
	}
}

// Shutdown releases components in dependency order:
// 1. Kafka producer flushes pending messages
// 2. Error tracker flushes captured events
// 3. Logs are synced
// 4. Database connections close last
func (l *Lifecycle) Shutdown(
	kafkaProducer *kafka.Producer,
	pgClient *pgclient.Client,
	chClient *chclient.Client,
	redisClient *redisclient.Client,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer shutdownCancel()

	log.Info("[1/4] Closing Kafka producer...")
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Errorw("Kafka producer close failed", "error", err)
		} else {
			log.Info("✓ Kafka producer closed")
		}
	}

	log.Info("[2/4] Flushing error tracker...")
	l.flushErrorTracker(shutdownCtx, errorTracker, log)

	log.Info("[3/4] Syncing logs...")
	if err := logger.Sync(); err != nil {
		log.Warn("Log sync completed with warnings")
	}

	log.Info("[4/4] Closing database connections...")
	l.closeDatabases(pgClient, chClient, redisClient, log)

	log.Info("✅ Shutdown complete")
}

// flushErrorTracker flushes the error tracker (Sentry, etc.)
func (l *Lifecycle) flushErrorTracker(ctx context.Context, tracker errors.Tracker, log *logger.Logger) {
	if tracker == nil {
		return
	}
	if err := tracker.Flush(ctx); err != nil {
		log.Warnw("Failed to flush error tracker", "error", err)
		return
	}
	log.Info("✓ Error tracker flushed")
}

// closeDatabases closes every connected store
func (l *Lifecycle) closeDatabases(pgClient *pgclient.Client, chClient *chclient.Client, redisClient *redisclient.Client, log *logger.Logger) {
	if pgClient != nil {
		if err := pgClient.Close(); err != nil {
			log.Errorw("PostgreSQL close failed", "error", err)
		}
	}
	if chClient != nil {
		if err := chClient.Close(); err != nil {
			log.Errorw("ClickHouse close failed", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Errorw("Redis close failed", "error", err)
		}
	}
	log.Info("✓ Databases closed")
}
