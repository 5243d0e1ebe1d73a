package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"wsbpanel/internal/domain/market_data"
	"wsbpanel/internal/metrics"
	chbatch "wsbpanel/pkg/clickhouse"
	"wsbpanel/pkg/errors"
)

// Compile-time check
var _ market_data.Repository = (*MarketDataRepository)(nil)

// MarketDataRepository implements market_data.Repository using ClickHouse
type MarketDataRepository struct {
	conn      driver.Conn
	batchSize int
}

// NewMarketDataRepository creates a new market data repository
func NewMarketDataRepository(conn driver.Conn) *MarketDataRepository {
	return &MarketDataRepository{conn: conn, batchSize: defaultBatchSize}
}

// InsertObservations writes the daily bars of a run
func (r *MarketDataRepository) InsertObservations(ctx context.Context, runID string, observations []market_data.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	writer := chbatch.NewBatchWriter(chbatch.BatchWriterConfig[market_data.Observation]{
		TableName:    "market_observations",
		MaxBatchSize: r.batchSize,
		FlushFunc: func(ctx context.Context, batch []market_data.Observation) error {
			return r.insert(ctx, runID, batch)
		},
	})
	return writer.Write(ctx, observations)
}

func (r *MarketDataRepository) insert(ctx context.Context, runID string, observations []market_data.Observation) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("clickhouse", "insert_market_observations", time.Since(start), err) }()

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO market_observations (run_id, date, ticker, closing_price, volume)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	for _, o := range observations {
		err := batch.Append(
			runID, chDate(o.Date), o.Ticker,
			nullableDecimal(o.Close), nullableDecimal(o.Volume),
		)
		if err != nil {
			return errors.Wrap(err, "failed to append observation")
		}
	}

	return batch.Send()
}
