package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/push"

	"wsbpanel/pkg/errors"
)

// Registry holds every pipeline metric. A private registry keeps pushes to
// the gateway free of process-wide default collectors.
var Registry = prometheus.NewRegistry()

var (
	// Stage metrics
	StageExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wsbpanel_stage_executions_total",
			Help: "Total number of pipeline stage executions",
		},
		[]string{"stage", "status"}, // status: success|error
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wsbpanel_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 3600, 14400, 43200},
		},
		[]string{"stage"},
	)

	StageLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wsbpanel_stage_last_run_timestamp",
			Help: "Unix timestamp of last stage execution",
		},
		[]string{"stage"},
	)

	// Archive source metrics
	SourcePages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wsbpanel_source_pages_total",
			Help: "Total number of archive pages requested",
		},
		[]string{"pager", "status"}, // status: success|error|empty
	)

	SourceRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wsbpanel_source_records_total",
			Help: "Total number of records received from the archive",
		},
		[]string{"pager"},
	)

	SourceLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wsbpanel_source_latency_seconds",
			Help:    "Archive page request latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"pager"},
	)

	// Market data metrics
	MarketAPICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wsbpanel_market_api_calls_total",
			Help: "Total number of market data API calls",
		},
		[]string{"endpoint", "status"},
	)

	MarketAPILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wsbpanel_market_api_latency_seconds",
			Help:    "Market data API latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"endpoint"},
	)

	// Dataset metrics
	DatasetRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wsbpanel_dataset_rows",
			Help: "Rows written per output dataset in the last run",
		},
		[]string{"dataset"},
	)

	JoinMismatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wsbpanel_comment_join_mismatches_total",
			Help: "Comments dropped because their parent post was not collected",
		},
	)

	// Database metrics
	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wsbpanel_db_queries_total",
			Help: "Total number of database operations",
		},
		[]string{"database", "operation", "status"}, // database: postgres|clickhouse|redis
	)

	DBQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wsbpanel_db_query_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"database", "operation"},
	)

	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wsbpanel_kafka_messages_total",
			Help: "Total Kafka messages produced",
		},
		[]string{"topic", "status"},
	)
)

var initOnce sync.Once

// Init registers all metrics with the pipeline registry
func Init() {
	initOnce.Do(func() {
		Registry.MustRegister(
			StageExecutions,
			StageDuration,
			StageLastRun,
			SourcePages,
			SourceRecords,
			SourceLatency,
			MarketAPICalls,
			MarketAPILatency,
			DatasetRows,
			JoinMismatches,
			DBQueries,
			DBQueryDuration,
			KafkaMessages,
			collectors.NewGoCollector(),
		)
	})
}

// Push sends the registry to a Prometheus Pushgateway. Batch runs are too
// short lived to be scraped.
func Push(ctx context.Context, url, job, runID string) error {
	if url == "" {
		return nil
	}

	pusher := push.New(url, job).
		Gatherer(Registry).
		Grouping("run_id", runID).
		Client(&http.Client{Timeout: 10 * time.Second})

	if err := pusher.PushContext(ctx); err != nil {
		return errors.Wrap(err, "push metrics")
	}
	return nil
}

// RecordStageExecution records a stage execution
func RecordStageExecution(stage string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	StageExecutions.WithLabelValues(stage, status).Inc()
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	StageLastRun.WithLabelValues(stage).SetToCurrentTime()
}

// RecordSourcePage records one archive page request
func RecordSourcePage(pager string, records int, latency time.Duration, err error) {
	status := "success"
	switch {
	case err != nil:
		status = "error"
	case records == 0:
		status = "empty"
	}

	SourcePages.WithLabelValues(pager, status).Inc()
	SourceLatency.WithLabelValues(pager).Observe(latency.Seconds())
	if records > 0 {
		SourceRecords.WithLabelValues(pager).Add(float64(records))
	}
}

// RecordMarketAPICall records a market data API call
func RecordMarketAPICall(endpoint string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	MarketAPICalls.WithLabelValues(endpoint, status).Inc()
	MarketAPILatency.WithLabelValues(endpoint).Observe(latency.Seconds())
}

// RecordDatasetRows sets the row count of an output dataset
func RecordDatasetRows(dataset string, rows int) {
	DatasetRows.WithLabelValues(dataset).Set(float64(rows))
}

// RecordDBQuery records a database operation
func RecordDBQuery(database, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	DBQueries.WithLabelValues(database, operation, status).Inc()
	DBQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}

// RecordKafkaMessages records produced messages
func RecordKafkaMessages(topic string, count int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	KafkaMessages.WithLabelValues(topic, status).Add(float64(count))
}
