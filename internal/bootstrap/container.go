package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"wsbpanel/internal/adapters/arcticshift"
	chclient "wsbpanel/internal/adapters/clickhouse"
	"wsbpanel/internal/adapters/config"
	"wsbpanel/internal/adapters/csvstore"
	"wsbpanel/internal/adapters/eodhd"
	"wsbpanel/internal/adapters/kafka"
	pgclient "wsbpanel/internal/adapters/postgres"
	redisclient "wsbpanel/internal/adapters/redis"
	"wsbpanel/internal/domain/market_data"
	"wsbpanel/internal/domain/panel"
	"wsbpanel/internal/domain/sentiment"
	"wsbpanel/internal/domain/ticker"
	redisrepo "wsbpanel/internal/repository/redis"
	"wsbpanel/internal/services/entity"
	"wsbpanel/internal/services/timenorm"
	"wsbpanel/internal/workers"
	"wsbpanel/pkg/errors"
	"wsbpanel/pkg/logger"
)

// Container holds all pipeline dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker
	RunID        string

	// Infrastructure Layer (optional data stores, nil when disabled)
	PG    *pgclient.Client
	CH    *chclient.Client
	Redis *redisclient.Client

	// Repositories
	Repos *Repositories

	// External Adapters
	Adapters *Adapters

	// Pipeline
	Runner *workers.Runner

	// Lifecycle management
	Lifecycle *Lifecycle
	Context   context.Context
	Cancel    context.CancelFunc
}

// Repositories groups the persistence ports; sinks are nil when their store is disabled
type Repositories struct {
	Universe    ticker.UniverseSource
	Checkpoints *redisrepo.CheckpointRepository
	MarketData  market_data.Repository
	Sentiment   sentiment.Repository
	Panel       panel.Repository
}

// Adapters groups sources, the dataset store and shared services
type Adapters struct {
	Source        *arcticshift.Client
	Market        *eodhd.Client
	Store         *csvstore.Store
	KafkaProducer *kafka.Producer
	Normalizer    *timenorm.Normalizer
	Matcher       *entity.Matcher
}

// NewContainer creates a new dependency container. Its context is
// cancelled on SIGINT or SIGTERM.
func NewContainer() *Container {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &Container{
		Repos:     &Repositories{},
		Adapters:  &Adapters{},
		Lifecycle: NewLifecycle(),
		Context:   ctx,
		Cancel:    cancel,
	}
}

// MustInit initializes all components in the correct order
// Panics on any initialization error (fail-fast at startup)
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitAdapters()
	c.MustInitStages()
}

// Run executes one pipeline run and pushes its metrics
func (c *Container) Run() error {
	c.Log.Infow("Starting pipeline run",
		"run_id", c.RunID,
		"start", c.Config.Pipeline.StartDate,
		"end", c.Config.Pipeline.EndDate,
		"stages", c.Config.Pipeline.Stages,
	)

	runErr := c.Runner.Run(c.Context, c.RunID)

	// push even when cancelled so partial runs stay visible
	pushCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	if err := pushMetrics(pushCtx, c.Config, c.RunID); err != nil {
		c.Log.Warnw("Failed to push metrics", "error", err)
	}

	return runErr
}

// Shutdown releases every component
func (c *Container) Shutdown() {
	c.Cancel()
	c.Lifecycle.Shutdown(c.Adapters.KafkaProducer, c.PG, c.CH, c.Redis, c.ErrorTracker, c.Log)
}
