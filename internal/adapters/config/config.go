package config

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"wsbpanel/pkg/errors"
)

type Config struct {
	App           AppConfig
	Pipeline      PipelineConfig
	Source        SourceConfig
	Market        MarketConfig
	Universe      UniverseConfig
	Output        OutputConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Postgres      PostgresConfig
	Metrics       MetricsConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"wsbpanel"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// PipelineConfig holds the script-level constants of a run
type PipelineConfig struct {
	StartDate string   `envconfig:"PIPELINE_START_DATE" default:"2024-04-01"`
	EndDate   string   `envconfig:"PIPELINE_END_DATE" default:"2025-03-31"`
	Timezone  string   `envconfig:"PIPELINE_TIMEZONE" default:"America/New_York"`
	Stages    []string `envconfig:"PIPELINE_STAGES" default:"submissions,comments,market,panel"`
	RSIPeriod int      `envconfig:"PANEL_RSI_PERIOD" default:"14"`
}

// Start parses StartDate
func (c PipelineConfig) Start() (civil.Date, error) {
	return parseDate("PIPELINE_START_DATE", c.StartDate)
}

// End parses EndDate
func (c PipelineConfig) End() (civil.Date, error) {
	return parseDate("PIPELINE_END_DATE", c.EndDate)
}

// StageEnabled reports whether the named stage is part of this run
func (c PipelineConfig) StageEnabled(name string) bool {
	for _, s := range c.Stages {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return true
		}
	}
	return false
}

// SourceConfig configures the Arctic Shift archive source
type SourceConfig struct {
	BaseURL        string        `envconfig:"SOURCE_BASE_URL" default:"https://arctic-shift.photon-reddit.com"`
	Subreddit      string        `envconfig:"SOURCE_SUBREDDIT" default:"wallstreetbets"`
	PageDelay      time.Duration `envconfig:"SOURCE_PAGE_DELAY" default:"2s"`
	RequestTimeout time.Duration `envconfig:"SOURCE_REQUEST_TIMEOUT" default:"30s"`
	CommentPage    int           `envconfig:"SOURCE_COMMENT_PAGE_SIZE" default:"100"`
	MaxComments    int           `envconfig:"SOURCE_MAX_COMMENTS_PER_POST" default:"5000"`
	AnchorAuthor   string        `envconfig:"ANCHOR_AUTHOR" default:"wsbapp"`
	AnchorMarker   string        `envconfig:"ANCHOR_TITLE_MARKER" default:"daily discussion thread"`
	TopPerParent   int           `envconfig:"DEDUP_TOP_PER_PARENT" default:"200"`
}

// MarketConfig configures the EODHD market data provider
type MarketConfig struct {
	BaseURL         string        `envconfig:"EODHD_BASE_URL" default:"https://eodhd.com/api"`
	APIKey          string        `envconfig:"EODHD_API_KEY"`
	ExchangeSuffix  string        `envconfig:"EODHD_EXCHANGE_SUFFIX" default:"US"`
	RateLimit       int           `envconfig:"EODHD_RATE_LIMIT" default:"10"`
	RequestTimeout  time.Duration `envconfig:"EODHD_REQUEST_TIMEOUT" default:"30s"`
	ChunkSize       int           `envconfig:"MARKET_CHUNK_SIZE" default:"50"`
	Tickers         []string      `envconfig:"MARKET_TICKERS"`
	TopTickers      int           `envconfig:"MARKET_TOP_TICKERS" default:"100"` // used when Tickers is empty
	CalendarFromAPI bool          `envconfig:"MARKET_CALENDAR_FROM_API" default:"false"`
}

// UniverseConfig selects where the ticker universe comes from
type UniverseConfig struct {
	Source  string `envconfig:"UNIVERSE_SOURCE" default:"csv"` // csv | postgres
	CSVPath string `envconfig:"UNIVERSE_CSV_PATH" default:"russel_3000.csv"`
}

// OutputConfig locates the CSV outputs and the labeler's consensus files
type OutputConfig struct {
	Dir               string `envconfig:"OUTPUT_DIR" default:"./output"`
	PostLabelsPath    string `envconfig:"LABELS_POSTS_PATH" default:"./output/submissions_with_consensus.csv"`
	CommentLabelsPath string `envconfig:"LABELS_COMMENTS_PATH" default:"./output/comments_with_consensus.csv"`
}

type ClickHouseConfig struct {
	Enabled  bool   `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"wsbpanel"`
}

type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"postgres"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"wsbpanel"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"4"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type MetricsConfig struct {
	PushgatewayURL string `envconfig:"METRICS_PUSHGATEWAY_URL"`
	Job            string `envconfig:"METRICS_JOB" default:"wsbpanel"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express
func (c *Config) Validate() error {
	start, err := c.Pipeline.Start()
	if err != nil {
		return err
	}
	end, err := c.Pipeline.End()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return errors.NewValidationError("PIPELINE_END_DATE", "must be after start date", c.Pipeline.EndDate)
	}
	if c.Market.ChunkSize <= 0 {
		return errors.NewValidationError("MARKET_CHUNK_SIZE", "must be positive", c.Market.ChunkSize)
	}
	if len(c.Market.Tickers) == 0 && c.Market.TopTickers <= 0 {
		return errors.NewValidationError("MARKET_TOP_TICKERS", "must be positive when MARKET_TICKERS is empty", c.Market.TopTickers)
	}
	if c.Source.CommentPage <= 0 {
		return errors.NewValidationError("SOURCE_COMMENT_PAGE_SIZE", "must be positive", c.Source.CommentPage)
	}
	switch c.Universe.Source {
	case "csv", "postgres":
	default:
		return errors.NewValidationError("UNIVERSE_SOURCE", "must be csv or postgres", c.Universe.Source)
	}
	return nil
}

func parseDate(field, value string) (civil.Date, error) {
	d, err := civil.ParseDate(value)
	if err != nil {
		return civil.Date{}, errors.NewValidationError(field, "expected YYYY-MM-DD", value)
	}
	return d, nil
}
