package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"wsbpanel/internal/adapters/config"
	"wsbpanel/internal/metrics"
	"wsbpanel/pkg/errors"
)

// Client wraps ClickHouse connection
type Client struct {
	conn driver.Conn
}

// NewClient creates a new ClickHouse client
func NewClient(ctx context.Context, cfg config.ClickHouseConfig) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to clickhouse")
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to ping clickhouse")
	}

	return &Client{conn: conn}, nil
}

// Conn returns the underlying ClickHouse connection
func (c *Client) Conn() driver.Conn {
	return c.conn
}

// Close closes the ClickHouse connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Health checks ClickHouse connectivity
func (c *Client) Health(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Exec executes a query without returning rows
func (c *Client) Exec(ctx context.Context, query string, args ...interface{}) error {
	return c.conn.Exec(ctx, query, args...)
}

// Query executes a query and scans rows into dest
func (c *Client) Query(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return c.conn.Select(ctx, dest, query, args...)
}

// Migrate creates the analytical tables if they do not exist
func (c *Client) Migrate(ctx context.Context) error {
	start := time.Now()
	for _, ddl := range schema {
		if err := c.conn.Exec(ctx, ddl); err != nil {
			metrics.RecordDBQuery("clickhouse", "migrate", time.Since(start), err)
			return errors.Wrap(err, "failed to apply clickhouse schema")
		}
	}
	metrics.RecordDBQuery("clickhouse", "migrate", time.Since(start), nil)
	return nil
}

// Tables lists every table Migrate creates
var Tables = []string{"market_observations", "daily_sentiment", "panel_rows"}

// Each run appends rows under its own run_id; ReplacingMergeTree keeps the
// latest version of a (run_id, key) pair when a stage is re-run.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS market_observations (
		run_id        String,
		date          Date,
		ticker        LowCardinality(String),
		closing_price Nullable(Decimal(18, 6)),
		volume        Nullable(Decimal(20, 2)),
		inserted_at   DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(inserted_at)
	ORDER BY (run_id, ticker, date)`,

	`CREATE TABLE IF NOT EXISTS daily_sentiment (
		run_id                         String,
		date                           Date,
		ticker                         LowCardinality(String),
		no_positive_consensus          UInt32,
		no_neutral_consensus           UInt32,
		no_negative_consensus          UInt32,
		like_score_positive            Int64,
		like_score_negative            Int64,
		avg_num_comments               Nullable(Float64),
		most_mentioned_link_flair_text String,
		number_of_mentions             UInt32,
		ticker_consensus_label         LowCardinality(String),
		inserted_at                    DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(inserted_at)
	ORDER BY (run_id, ticker, date)`,

	`CREATE TABLE IF NOT EXISTS panel_rows (
		run_id                         String,
		date                           Date,
		ticker                         LowCardinality(String),
		closing_price                  Nullable(Decimal(18, 6)),
		volume                         Nullable(Decimal(20, 2)),
		closing_price_next_day         Nullable(Decimal(18, 6)),
		target                         Nullable(UInt8),
		no_positive_consensus          UInt32,
		no_neutral_consensus           UInt32,
		no_negative_consensus          UInt32,
		like_score_positive            Int64,
		like_score_negative            Int64,
		avg_num_comments               Float64,
		most_mentioned_link_flair_text String,
		number_of_mentions             UInt32,
		ticker_consensus_label         LowCardinality(String),
		no_positive_consensus_general  UInt32,
		no_neutral_consensus_general   UInt32,
		no_negative_consensus_general  UInt32,
		general_consensus_label        LowCardinality(String),
		rsi_14                         Nullable(Float64),
		inserted_at                    DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(inserted_at)
	ORDER BY (run_id, ticker, date)`,
}
