package marketdata

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsbpanel/internal/domain/market_data"
	"wsbpanel/internal/domain/sentiment"
	"wsbpanel/pkg/errors"
)

var (
	from = civil.Date{Year: 2024, Month: time.April, Day: 1}
	to   = civil.Date{Year: 2024, Month: time.April, Day: 3}
)

type fakeProvider struct {
	bars    map[string][]market_data.Observation
	fail    map[string]bool
	limited map[string]bool
	queries []market_data.Query
}

func (f *fakeProvider) GetDaily(_ context.Context, q market_data.Query) ([]market_data.Observation, error) {
	f.queries = append(f.queries, q)
	if f.limited[q.Ticker] {
		return nil, errors.NewTransportError("/eod/"+q.Ticker+".US", 429, []byte("Too Many Requests"))
	}
	if f.fail[q.Ticker] {
		return nil, errors.NewTransportError("/eod/"+q.Ticker+".US", 404, []byte("Ticker Not Found."))
	}
	return f.bars[q.Ticker], nil
}

type memoryStore struct {
	summary    []sentiment.MentionSummary
	summaryErr error
	written    []market_data.Observation
}

func (m *memoryStore) ReadMentionSummary() ([]sentiment.MentionSummary, error) {
	return m.summary, m.summaryErr
}

func (m *memoryStore) WriteObservations(rows []market_data.Observation) error {
	m.written = rows
	return nil
}

type recordingRepo struct {
	runID string
	rows  []market_data.Observation
}

func (r *recordingRepo) InsertObservations(_ context.Context, runID string, rows []market_data.Observation) error {
	r.runID = runID
	r.rows = rows
	return nil
}

func bar(ticker string, day int, close string) market_data.Observation {
	return market_data.Observation{
		Date:   civil.Date{Year: 2024, Month: time.April, Day: day},
		Ticker: ticker,
		Close:  decimal.NewNullDecimal(decimal.RequireFromString(close)),
		Volume: decimal.NewNullDecimal(decimal.NewFromInt(1000)),
	}
}

func TestObservationsStage_TopMentionedTickers(t *testing.T) {
	provider := &fakeProvider{bars: map[string][]market_data.Observation{
		"TSLA": {bar("TSLA", 1, "175.22"), bar("TSLA", 2, "166.63")},
		"AAPL": {bar("AAPL", 1, "170.03")},
	}}
	store := &memoryStore{summary: []sentiment.MentionSummary{
		{Ticker: "TSLA", TotalMentions: 40},
		{Ticker: "AAPL", TotalMentions: 12},
		{Ticker: "GME", TotalMentions: 3},
	}}
	repo := &recordingRepo{}

	stage := NewObservationsStage(provider, store, repo, "run-1", ObservationsConfig{
		Start:      from,
		End:        to,
		ChunkSize:  1,
		TopTickers: 2,
	}, true)
	require.NoError(t, stage.Run(t.Context()))

	require.Len(t, provider.queries, 2)
	assert.Equal(t, market_data.Query{Ticker: "TSLA", From: from, To: to}, provider.queries[0])

	require.Len(t, store.written, 3)
	assert.Equal(t, "AAPL", store.written[0].Ticker)
	assert.Equal(t, "TSLA", store.written[1].Ticker)
	assert.Equal(t, 2, store.written[2].Date.Day)

	assert.Equal(t, "run-1", repo.runID)
	assert.Len(t, repo.rows, 3)
}

func TestObservationsStage_ExplicitTickersAndFailures(t *testing.T) {
	provider := &fakeProvider{
		bars: map[string][]market_data.Observation{"NVDA": {bar("NVDA", 1, "903.63")}},
		fail: map[string]bool{"XYZ": true},
	}
	store := &memoryStore{summaryErr: errors.ErrNotFound}

	stage := NewObservationsStage(provider, store, nil, "run-2", ObservationsConfig{
		Start:   from,
		End:     to,
		Tickers: []string{" nvda", "XYZ", "NVDA"},
	}, true)
	err := stage.Run(t.Context())

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTransport))
	assert.Contains(t, err.Error(), "ticker XYZ")
	require.Len(t, provider.queries, 2)
	require.Len(t, store.written, 1)
	assert.Equal(t, "NVDA", store.written[0].Ticker)
}

func TestObservationsStage_RateLimitStopsDownload(t *testing.T) {
	provider := &fakeProvider{
		bars: map[string][]market_data.Observation{
			"AAPL": {bar("AAPL", 1, "170.03")},
			"TSLA": {bar("TSLA", 1, "175.22")},
		},
		limited: map[string]bool{"GME": true},
	}
	store := &memoryStore{}

	stage := NewObservationsStage(provider, store, nil, "run-4", ObservationsConfig{
		Start:   from,
		End:     to,
		Tickers: []string{"AAPL", "GME", "TSLA"},
	}, true)
	err := stage.Run(t.Context())

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRateLimitExceeded))
	require.Len(t, provider.queries, 2)
	require.Len(t, store.written, 1)
	assert.Equal(t, "AAPL", store.written[0].Ticker)
}

func TestObservationsStage_NeedsSummaryWithoutTickers(t *testing.T) {
	store := &memoryStore{summaryErr: errors.Wrap(errors.ErrNotFound, "ticker_mentions_summary.csv")}
	stage := NewObservationsStage(&fakeProvider{}, store, nil, "run-3", ObservationsConfig{Start: from, End: to}, true)

	err := stage.Run(t.Context())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Nil(t, store.written)
}
