package csvstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsbpanel/internal/domain/market_data"
	"wsbpanel/internal/domain/panel"
	"wsbpanel/internal/domain/sentiment"
	"wsbpanel/internal/domain/social"
	"wsbpanel/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSubmissions_RoundTrip(t *testing.T) {
	store := New(t.TempDir())

	in := []social.PostRow{{
		Post: social.Post{
			ID: "a1", CreatedUTC: 1711990000, Author: "someone", Title: "AAPL, \"TSLA\" and\nGME",
			SelfText: "multi\nline", LinkFlairText: "DD", NumComments: 12, Score: 150, UpvoteRatio: 0.91,
			Permalink: "/r/wallstreetbets/comments/a1/", URL: "https://example.com", NoFollow: true,
		},
		DateTime: "2024-04-01 12:46:40",
		Date:     "2024-04-01",
		Tickers:  []string{"AAPL", "TSLA", "GME"},
	}, {
		Post:    social.Post{ID: "a2", CreatedUTC: 1711990100},
		Tickers: []string{},
	}}

	require.NoError(t, store.WriteSubmissions(in))

	out, err := store.ReadSubmissions()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestComments_RoundTrip(t *testing.T) {
	store := New(t.TempDir())

	in := []social.CommentRow{{
		CommentID: "c1", PostID: "a1", PostCreatedUTC: 1711990000, CommentCreatedUTC: 1711990500,
		PostTitle: "Daily Discussion Thread", Author: "x", Score: -3, Tickers: []string{"NVDA"}, Body: "puts, obviously",
	}}

	require.NoError(t, store.WriteComments(in))

	out, err := store.ReadComments()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestObservations_RoundTripKeepsMissingValues(t *testing.T) {
	store := New(t.TempDir())
	day := civil.Date{Year: 2024, Month: time.April, Day: 1}

	in := []market_data.Observation{
		{Date: day, Ticker: "AAPL", Close: decimal.NewNullDecimal(decimal.RequireFromString("170.03")), Volume: decimal.NewNullDecimal(decimal.NewFromInt(46240500))},
		{Date: day.AddDays(1), Ticker: "AAPL"},
	}
	require.NoError(t, store.WriteObservations(in))

	out, err := store.ReadObservations()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "170.03", out[0].Close.Decimal.String())
	assert.Equal(t, "46240500", out[0].Volume.Decimal.String())
	assert.False(t, out[1].Close.Valid)
	assert.False(t, out[1].Volume.Valid)
}

func TestMentionSummary_RoundTrip(t *testing.T) {
	store := New(t.TempDir())
	in := []sentiment.MentionSummary{
		{Ticker: "NVDA", PostMentions: 10, CommentMentions: 30, TotalMentions: 40},
		{Ticker: "AAPL", PostMentions: 1, CommentMentions: 2, TotalMentions: 3},
	}
	require.NoError(t, store.WriteMentionSummary(in))

	out, err := store.ReadMentionSummary()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWritePanel_EmptyCellsForMissing(t *testing.T) {
	store := New(t.TempDir())
	target := 1

	rows := []panel.Row{
		{
			Date: civil.Date{Year: 2024, Month: time.April, Day: 1}, Ticker: "AAPL",
			ClosingPrice:        decimal.NewNullDecimal(decimal.RequireFromString("170.03")),
			ClosingPriceNextDay: decimal.NewNullDecimal(decimal.RequireFromString("171")),
			Target:              &target,
			Sentiment:           sentiment.DailyAggregate{TickerConsensusLabel: sentiment.ConsensusEqual},
			General:             sentiment.GeneralSentiment{GeneralConsensusLabel: sentiment.ConsensusEqual},
		},
	}
	require.NoError(t, store.WritePanel(rows))

	data, err := os.ReadFile(store.Path(PanelFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "date,ticker,closing_price,volume,closing_price_next_day,target,"))
	assert.Equal(t, "2024-04-01,AAPL,170.03,,171,1,0,0,0,0,0,0,,0,equal,0,0,0,equal,", lines[1])
}

func TestWriteTable_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := New(filepath.Join(dir, "nested"))

	require.NoError(t, store.WriteDailyMentions(nil))

	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, DailyMentionsFile, entries[0].Name())
}

func TestReadTable_Errors(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	_, err := store.ReadObservations()
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	writeFile(t, dir, MarketObservationsFile, "date,ticker\n2024-04-01,AAPL\n")
	_, err = store.ReadObservations()
	assert.True(t, errors.Is(err, errors.ErrMalformedField))

	writeFile(t, dir, MarketObservationsFile, "date,ticker,closing_price,volume\n04/01/2024,AAPL,1,2\n")
	_, err = store.ReadObservations()
	assert.True(t, errors.Is(err, errors.ErrMalformedField))
}

func TestLabelFile(t *testing.T) {
	dir := t.TempDir()

	posts := writeFile(t, dir, "submissions_with_consensus.csv",
		"id,title,consensus_score\na1,x,positive\na2,y,negative\na3,z,\n")
	labels, err := NewLabelFile(posts).LoadLabels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]sentiment.Label{
		"a1": sentiment.LabelPositive,
		"a2": sentiment.LabelNegative,
		"a3": sentiment.LabelNone,
	}, labels)

	comments := writeFile(t, dir, "comments_with_consensus.csv",
		"comment_id,post_id,consensus_score\nc1,a1,neutral\n")
	labels, err = NewLabelFile(comments).LoadLabels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sentiment.LabelNeutral, labels["c1"])

	missing := writeFile(t, dir, "bad.csv", "id,title\na1,x\n")
	_, err = NewLabelFile(missing).LoadLabels(context.Background())
	assert.True(t, errors.Is(err, errors.ErrMalformedField))
}

func TestUniverseFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "russel_3000.csv",
		"\ufeffTicker;Name\nAAPL;Apple Inc.\n;Nameless\nT;AT&T Inc.\n")

	companies, err := NewUniverseFile(path).LoadCompanies(context.Background())
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "AAPL", companies[0].Symbol)
	assert.Equal(t, "Apple Inc.", companies[0].Name)
	assert.Equal(t, "T", companies[1].Symbol)
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{}, parseList(""))
	assert.Equal(t, []string{}, parseList("[]"))
	assert.Equal(t, []string{"AAPL"}, parseList("['AAPL']"))
	assert.Equal(t, []string{"AAPL", "TSLA"}, parseList(`["AAPL", "TSLA"]`))
	assert.Equal(t, "['AAPL', 'TSLA']", formatList([]string{"AAPL", "TSLA"}))
	assert.Equal(t, "[]", formatList(nil))
}
