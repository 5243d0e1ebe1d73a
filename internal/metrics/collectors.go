package metrics

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"wsbpanel/pkg/logger"
)

// StorageCollector reports table sizes from the configured stores at gather time
type StorageCollector struct {
	log        *logger.Logger
	postgres   *sqlx.DB
	clickhouse driver.Conn

	universeSize *prometheus.Desc
	storedRows   *prometheus.Desc
}

// NewStorageCollector creates a collector. Either store may be nil.
func NewStorageCollector(log *logger.Logger, postgres *sqlx.DB, clickhouse driver.Conn) *StorageCollector {
	return &StorageCollector{
		log:        log,
		postgres:   postgres,
		clickhouse: clickhouse,

		universeSize: prometheus.NewDesc(
			"wsbpanel_universe_companies",
			"Number of companies in the ticker universe table",
			nil, nil,
		),
		storedRows: prometheus.NewDesc(
			"wsbpanel_stored_rows",
			"Rows stored per analytical table",
			[]string{"table"}, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *StorageCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.universeSize
	ch <- c.storedRows
}

// Collect implements prometheus.Collector
func (c *StorageCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if c.postgres != nil {
		c.collectUniverseSize(ctx, ch)
	}
	if c.clickhouse != nil {
		for _, table := range []string{"panel_rows", "daily_sentiment", "market_observations"} {
			c.collectTableRows(ctx, ch, table)
		}
	}
}

func (c *StorageCollector) collectUniverseSize(ctx context.Context, ch chan<- prometheus.Metric) {
	var count int
	if err := c.postgres.GetContext(ctx, &count, "SELECT COUNT(*) FROM companies"); err != nil {
		c.log.Warnw("Failed to collect universe size metric", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.universeSize, prometheus.GaugeValue, float64(count))
}

func (c *StorageCollector) collectTableRows(ctx context.Context, ch chan<- prometheus.Metric, table string) {
	var count uint64
	if err := c.clickhouse.QueryRow(ctx, "SELECT count() FROM "+table).Scan(&count); err != nil {
		c.log.Warnw("Failed to collect table rows metric", "table", table, "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.storedRows, prometheus.GaugeValue, float64(count), table)
}

// RegisterStorageCollector registers the collector with the pipeline registry
func RegisterStorageCollector(collector *StorageCollector) {
	Registry.MustRegister(collector)
}
