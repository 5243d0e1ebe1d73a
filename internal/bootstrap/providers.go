package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"wsbpanel/internal/adapters/arcticshift"
	chclient "wsbpanel/internal/adapters/clickhouse"
	"wsbpanel/internal/adapters/config"
	"wsbpanel/internal/adapters/csvstore"
	"wsbpanel/internal/adapters/eodhd"
	errnoop "wsbpanel/internal/adapters/errors/noop"
	"wsbpanel/internal/adapters/errors/sentry"
	"wsbpanel/internal/adapters/kafka"
	pgclient "wsbpanel/internal/adapters/postgres"
	redisclient "wsbpanel/internal/adapters/redis"
	"wsbpanel/internal/domain/ticker"
	"wsbpanel/internal/metrics"
	chrepo "wsbpanel/internal/repository/clickhouse"
	pgrepo "wsbpanel/internal/repository/postgres"
	redisrepo "wsbpanel/internal/repository/redis"
	"wsbpanel/internal/services/entity"
	"wsbpanel/internal/services/timenorm"
	"wsbpanel/pkg/errors"
	"wsbpanel/pkg/logger"
)

const (
	connectTimeout = 15 * time.Second
	pushTimeout    = 10 * time.Second
)

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration, initializes logger, error tracking and metrics
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.RunID = uuid.NewString()
	c.Log = logger.Get().With("run_id", c.RunID)
	c.Log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	c.ErrorTracker.SetRunID(c.RunID)
	logger.SetErrorTracker(c.ErrorTracker)

	metrics.Init()
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects the optional data stores that are enabled
func (c *Container) MustInitInfrastructure() {
	ctx, cancel := context.WithTimeout(c.Context, connectTimeout)
	defer cancel()

	var err error

	if c.Config.Universe.Source == "postgres" {
		c.Log.Info("Connecting to PostgreSQL...")
		c.PG, err = pgclient.NewClient(ctx, c.Config.Postgres)
		if err != nil {
			c.Log.Fatalf("failed to connect postgres: %v", err)
		}
		if err := c.PG.Migrate(ctx); err != nil {
			c.Log.Fatalf("failed to migrate postgres: %v", err)
		}
		c.Log.Info("✓ PostgreSQL connected")
	}

	if c.Config.ClickHouse.Enabled {
		c.Log.Info("Connecting to ClickHouse...")
		c.CH, err = chclient.NewClient(ctx, c.Config.ClickHouse)
		if err != nil {
			c.Log.Fatalf("failed to connect clickhouse: %v", err)
		}
		if err := c.CH.Migrate(ctx); err != nil {
			c.Log.Fatalf("failed to migrate clickhouse: %v", err)
		}
		c.Log.Info("✓ ClickHouse connected")
	}

	if c.Config.Redis.Enabled {
		c.Log.Info("Connecting to Redis...")
		c.Redis, err = redisclient.NewClient(ctx, c.Config.Redis)
		if err != nil {
			c.Log.Fatalf("failed to connect redis: %v", err)
		}
		c.Log.Info("✓ Redis connected")
	}

	if c.PG != nil || c.CH != nil {
		metrics.RegisterStorageCollector(provideStorageCollector(c.PG, c.CH, c.Log))
	}
}

// ========================================
// Phase 3: Repositories
// ========================================

// MustInitRepositories wires the persistence ports to the connected stores
func (c *Container) MustInitRepositories() {
	if c.PG != nil {
		c.Repos.Universe = pgrepo.NewUniverseRepository(c.PG.DB())
	} else {
		c.Repos.Universe = csvstore.NewUniverseFile(c.Config.Universe.CSVPath)
	}

	if c.CH != nil {
		c.Repos.MarketData = chrepo.NewMarketDataRepository(c.CH.Conn())
		c.Repos.Sentiment = chrepo.NewSentimentRepository(c.CH.Conn())
		c.Repos.Panel = chrepo.NewPanelRepository(c.CH.Conn())
	}

	if c.Redis != nil {
		c.Repos.Checkpoints = redisrepo.NewCheckpointRepository(
			c.Redis.Client(),
			c.Config.Source.Subreddit,
			redisrepo.DefaultCheckpointTTL,
		)
	}

	c.Log.Info("✓ Repositories initialized")
}

// ========================================
// Phase 4: External Adapters
// ========================================

// MustInitAdapters creates the source clients, the dataset store and the ticker matcher
func (c *Container) MustInitAdapters() {
	var err error

	c.Adapters.Normalizer, err = timenorm.New(c.Config.Pipeline.Timezone)
	if err != nil {
		c.Log.Fatalf("invalid pipeline timezone: %v", err)
	}

	c.Adapters.Store = csvstore.New(c.Config.Output.Dir)

	c.Adapters.Source = arcticshift.NewClient(
		arcticshift.WithBaseURL(c.Config.Source.BaseURL),
	)

	c.Adapters.Market = eodhd.NewClient(c.Config.Market.APIKey,
		eodhd.WithBaseURL(c.Config.Market.BaseURL),
		eodhd.WithExchange(c.Config.Market.ExchangeSuffix),
		eodhd.WithRateLimit(c.Config.Market.RateLimit),
		eodhd.WithHTTPClient(&http.Client{Timeout: c.Config.Market.RequestTimeout}),
	)

	if c.Config.Kafka.Enabled {
		c.Adapters.KafkaProducer = provideKafkaProducer(c.Config, c.Log)
	}

	c.Adapters.Matcher, err = provideMatcher(c.Context, c.Repos.Universe, c.Config, c.Log)
	if err != nil {
		c.Log.Fatalf("failed to load ticker universe: %v", err)
	}

	c.Log.Info("✓ Adapters initialized")
}

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	log.Info("Initializing Kafka producer...")
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("Kafka brokers not configured, using default localhost:9092")
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
	})
	log.Info("✓ Kafka producer initialized")
	return producer
}

func provideStorageCollector(pg *pgclient.Client, ch *chclient.Client, log *logger.Logger) *metrics.StorageCollector {
	var (
		db   *sqlx.DB
		conn driver.Conn
	)
	if pg != nil {
		db = pg.DB()
	}
	if ch != nil {
		conn = ch.Conn()
	}
	return metrics.NewStorageCollector(log, db, conn)
}

// provideMatcher loads the universe and compiles the matcher. An empty
// Postgres universe is seeded from the CSV file first.
func provideMatcher(ctx context.Context, universe ticker.UniverseSource, cfg *config.Config, log *logger.Logger) (*entity.Matcher, error) {
	companies, err := universe.LoadCompanies(ctx)
	if err != nil {
		return nil, err
	}

	if repo, ok := universe.(*pgrepo.UniverseRepository); ok && len(companies) == 0 {
		log.Infow("Universe table empty, seeding from CSV", "path", cfg.Universe.CSVPath)
		companies, err = csvstore.NewUniverseFile(cfg.Universe.CSVPath).LoadCompanies(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "seed universe")
		}
		if err := repo.UpsertCompanies(ctx, companies); err != nil {
			return nil, errors.Wrap(err, "seed universe")
		}
	}

	matcher := entity.NewMatcherFromCompanies(companies)
	log.Infow("✓ Ticker universe loaded",
		"companies", len(companies),
		"tickers", len(matcher.Tickers()),
	)
	return matcher, nil
}

func pushMetrics(ctx context.Context, cfg *config.Config, runID string) error {
	return metrics.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, runID)
}
