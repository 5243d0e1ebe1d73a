package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"wsbpanel/internal/domain/sentiment"
	"wsbpanel/internal/metrics"
	chbatch "wsbpanel/pkg/clickhouse"
	"wsbpanel/pkg/errors"
)

// Compile-time check
var _ sentiment.Repository = (*SentimentRepository)(nil)

// SentimentRepository implements sentiment.Repository using ClickHouse
type SentimentRepository struct {
	conn      driver.Conn
	batchSize int
}

// NewSentimentRepository creates a new sentiment repository
func NewSentimentRepository(conn driver.Conn) *SentimentRepository {
	return &SentimentRepository{conn: conn, batchSize: defaultBatchSize}
}

// InsertDailyAggregates writes per (date, ticker) sentiment aggregates
func (r *SentimentRepository) InsertDailyAggregates(ctx context.Context, runID string, aggregates []sentiment.DailyAggregate) error {
	if len(aggregates) == 0 {
		return nil
	}

	writer := chbatch.NewBatchWriter(chbatch.BatchWriterConfig[sentiment.DailyAggregate]{
		TableName:    "daily_sentiment",
		MaxBatchSize: r.batchSize,
		FlushFunc: func(ctx context.Context, batch []sentiment.DailyAggregate) error {
			return r.insert(ctx, runID, batch)
		},
	})
	return writer.Write(ctx, aggregates)
}

func (r *SentimentRepository) insert(ctx context.Context, runID string, aggregates []sentiment.DailyAggregate) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("clickhouse", "insert_daily_sentiment", time.Since(start), err) }()

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO daily_sentiment (
			run_id, date, ticker,
			no_positive_consensus, no_neutral_consensus, no_negative_consensus,
			like_score_positive, like_score_negative, avg_num_comments,
			most_mentioned_link_flair_text, number_of_mentions, ticker_consensus_label
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	for _, a := range aggregates {
		err := batch.Append(
			runID, chDate(a.Date), a.Ticker,
			uint32(a.PositiveCount), uint32(a.NeutralCount), uint32(a.NegativeCount),
			int64(a.LikeScorePositive), int64(a.LikeScoreNegative), a.AvgNumComments,
			a.MostMentionedFlair, uint32(a.NumberOfMentions), string(a.TickerConsensusLabel),
		)
		if err != nil {
			return errors.Wrap(err, "failed to append aggregate")
		}
	}

	return batch.Send()
}
