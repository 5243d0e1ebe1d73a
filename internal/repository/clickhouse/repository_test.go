package clickhouse

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsbpanel/internal/domain/market_data"
	"wsbpanel/internal/domain/panel"
	"wsbpanel/internal/domain/sentiment"
	"wsbpanel/internal/testsupport"
)

var (
	day1 = civil.Date{Year: 2024, Month: time.April, Day: 1}
	day2 = civil.Date{Year: 2024, Month: time.April, Day: 2}
)

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestMarketDataRepository_InsertObservations(t *testing.T) {
	helper := testsupport.NewTestClickHouse(t)
	repo := NewMarketDataRepository(helper.Client().Conn())

	err := repo.InsertObservations(context.Background(), helper.RunID(), []market_data.Observation{
		{Date: day1, Ticker: "AAPL", Close: price("170.03"), Volume: price("1000")},
		{Date: day2, Ticker: "AAPL"},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), helper.CountRun(t, "market_observations"))

	t.Run("Rerun_ReplacesRows", func(t *testing.T) {
		err := repo.InsertObservations(context.Background(), helper.RunID(), []market_data.Observation{
			{Date: day2, Ticker: "AAPL", Close: price("171.10"), Volume: price("900")},
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(2), helper.CountRun(t, "market_observations"))
	})
}

func TestSentimentRepository_InsertDailyAggregates(t *testing.T) {
	helper := testsupport.NewTestClickHouse(t)
	repo := NewSentimentRepository(helper.Client().Conn())

	avg := 12.5
	err := repo.InsertDailyAggregates(context.Background(), helper.RunID(), []sentiment.DailyAggregate{
		{
			Date: day1, Ticker: "GME", PositiveCount: 3, NegativeCount: 1,
			LikeScorePositive: 40, AvgNumComments: &avg, MostMentionedFlair: "YOLO",
			NumberOfMentions: 4, TickerConsensusLabel: sentiment.ConsensusPositive,
		},
		{Date: day1, Ticker: "AMC", NeutralCount: 1, NumberOfMentions: 1, TickerConsensusLabel: sentiment.ConsensusEqual},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), helper.CountRun(t, "daily_sentiment"))
}

func TestPanelRepository_InsertRows(t *testing.T) {
	helper := testsupport.NewTestClickHouse(t)
	repo := NewPanelRepository(helper.Client().Conn())

	up := 1
	rsi := 55.2
	rows := []panel.Row{
		{
			Date: day1, Ticker: "AAPL",
			ClosingPrice: price("170.03"), Volume: price("1000"),
			ClosingPriceNextDay: price("171.10"), Target: &up, RSI: &rsi,
			Sentiment: sentiment.DailyAggregate{TickerConsensusLabel: sentiment.ConsensusEqual},
			General:   sentiment.GeneralSentiment{GeneralConsensusLabel: sentiment.ConsensusNegative, NegativeCount: 2},
		},
		{
			Date: day2, Ticker: "AAPL", ClosingPrice: price("171.10"),
			Sentiment: sentiment.DailyAggregate{TickerConsensusLabel: sentiment.ConsensusEqual},
			General:   sentiment.GeneralSentiment{GeneralConsensusLabel: sentiment.ConsensusEqual},
		},
	}

	require.NoError(t, repo.InsertRows(context.Background(), helper.RunID(), rows))
	assert.Equal(t, uint64(2), helper.CountRun(t, "panel_rows"))

	var target *uint8
	row := helper.Client().Conn().QueryRow(context.Background(),
		"SELECT target FROM panel_rows FINAL WHERE run_id = ? AND date = ?", helper.RunID(), chDate(day2))
	require.NoError(t, row.Scan(&target))
	assert.Nil(t, target)
}

func TestInsert_EmptyIsNoop(t *testing.T) {
	repo := NewPanelRepository(nil)
	assert.NoError(t, repo.InsertRows(context.Background(), "run", nil))
}
