package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"wsbpanel/internal/domain/panel"
	"wsbpanel/internal/metrics"
	chbatch "wsbpanel/pkg/clickhouse"
	"wsbpanel/pkg/errors"
)

// Compile-time check
var _ panel.Repository = (*PanelRepository)(nil)

// PanelRepository implements panel.Repository using ClickHouse
type PanelRepository struct {
	conn      driver.Conn
	batchSize int
}

// NewPanelRepository creates a new panel repository
func NewPanelRepository(conn driver.Conn) *PanelRepository {
	return &PanelRepository{conn: conn, batchSize: defaultBatchSize}
}

// InsertRows writes the finished panel of a run
func (r *PanelRepository) InsertRows(ctx context.Context, runID string, rows []panel.Row) error {
	if len(rows) == 0 {
		return nil
	}

	writer := chbatch.NewBatchWriter(chbatch.BatchWriterConfig[panel.Row]{
		TableName:    "panel_rows",
		MaxBatchSize: r.batchSize,
		FlushFunc: func(ctx context.Context, batch []panel.Row) error {
			return r.insert(ctx, runID, batch)
		},
	})
	return writer.Write(ctx, rows)
}

func (r *PanelRepository) insert(ctx context.Context, runID string, rows []panel.Row) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("clickhouse", "insert_panel_rows", time.Since(start), err) }()

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO panel_rows (
			run_id, date, ticker,
			closing_price, volume, closing_price_next_day, target,
			no_positive_consensus, no_neutral_consensus, no_negative_consensus,
			like_score_positive, like_score_negative, avg_num_comments,
			most_mentioned_link_flair_text, number_of_mentions, ticker_consensus_label,
			no_positive_consensus_general, no_neutral_consensus_general, no_negative_consensus_general,
			general_consensus_label, rsi_14
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	for _, row := range rows {
		s, g := row.Sentiment, row.General

		avgComments := 0.0
		if s.AvgNumComments != nil {
			avgComments = *s.AvgNumComments
		}

		err := batch.Append(
			runID, chDate(row.Date), row.Ticker,
			nullableDecimal(row.ClosingPrice), nullableDecimal(row.Volume),
			nullableDecimal(row.ClosingPriceNextDay), nullableTarget(row.Target),
			uint32(s.PositiveCount), uint32(s.NeutralCount), uint32(s.NegativeCount),
			int64(s.LikeScorePositive), int64(s.LikeScoreNegative), avgComments,
			s.MostMentionedFlair, uint32(s.NumberOfMentions), string(s.TickerConsensusLabel),
			uint32(g.PositiveCount), uint32(g.NeutralCount), uint32(g.NegativeCount),
			string(g.GeneralConsensusLabel), row.RSI,
		)
		if err != nil {
			return errors.Wrap(err, "failed to append panel row")
		}
	}

	return batch.Send()
}
