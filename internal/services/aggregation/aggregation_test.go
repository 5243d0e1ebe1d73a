package aggregation

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsbpanel/internal/domain/sentiment"
	"wsbpanel/internal/domain/social"
	"wsbpanel/internal/domain/ticker"
	"wsbpanel/internal/services/entity"
	"wsbpanel/internal/services/timenorm"
)

var (
	day1 = civil.Date{Year: 2025, Month: time.March, Day: 3}
	day2 = civil.Date{Year: 2025, Month: time.March, Day: 4}
)

func ptr(f float64) *float64 { return &f }

func newNorm(t *testing.T) *timenorm.Normalizer {
	t.Helper()
	n, err := timenorm.New("America/New_York")
	require.NoError(t, err)
	return n
}

func newMatcher() *entity.Matcher {
	return entity.NewMatcherFromCompanies([]ticker.Company{
		{Symbol: "AAPL", Name: "Apple Inc."},
		{Symbol: "GME", Name: "GameStop Corp."},
	})
}

// epoch returns a timestamp at the given New York wall clock time
func epoch(t *testing.T, d civil.Date, hour int) int64 {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return time.Date(d.Year, d.Month, d.Day, hour, 0, 0, 0, loc).Unix()
}

func TestAggregate_CountsScoresAndConsensus(t *testing.T) {
	mentions := []sentiment.LabeledMention{
		{Date: day1, Ticker: "AAPL", Label: sentiment.LabelPositive, Score: 10, NumComments: ptr(4), LinkFlairText: "DD"},
		{Date: day1, Ticker: "AAPL", Label: sentiment.LabelPositive, Score: 5, NumComments: ptr(8), LinkFlairText: "YOLO"},
		{Date: day1, Ticker: "AAPL", Label: sentiment.LabelNegative, Score: -3},
		{Date: day1, Ticker: "AAPL", Label: sentiment.LabelNeutral, Score: 100},
		{Date: day1, Ticker: "AAPL", Label: sentiment.LabelNone, Score: 7},
		{Date: day1, Ticker: "GME", Label: sentiment.LabelNegative, Score: 2},
		{Date: day1, Ticker: "GME", Label: sentiment.LabelPositive, Score: 1},
	}

	got := Aggregate(mentions)
	require.Len(t, got, 2)

	aapl := got[0]
	assert.Equal(t, "AAPL", aapl.Ticker)
	assert.Equal(t, 2, aapl.PositiveCount)
	assert.Equal(t, 1, aapl.NeutralCount)
	assert.Equal(t, 1, aapl.NegativeCount)
	assert.Equal(t, 15, aapl.LikeScorePositive)
	assert.Equal(t, -3, aapl.LikeScoreNegative)
	assert.Equal(t, 5, aapl.NumberOfMentions)
	require.NotNil(t, aapl.AvgNumComments)
	assert.InDelta(t, 6.0, *aapl.AvgNumComments, 1e-9)
	assert.Equal(t, "DD", aapl.MostMentionedFlair)
	assert.Equal(t, sentiment.ConsensusPositive, aapl.TickerConsensusLabel)

	gme := got[1]
	assert.Nil(t, gme.AvgNumComments)
	assert.Empty(t, gme.MostMentionedFlair)
	assert.Equal(t, sentiment.ConsensusEqual, gme.TickerConsensusLabel)
}

func TestAggregate_SortedByDateThenTicker(t *testing.T) {
	got := Aggregate([]sentiment.LabeledMention{
		{Date: day2, Ticker: "AAPL"},
		{Date: day1, Ticker: "GME"},
		{Date: day1, Ticker: "AAPL"},
	})
	require.Len(t, got, 3)
	assert.Equal(t, sentiment.Key{Date: day1, Ticker: "AAPL"}, got[0].Key())
	assert.Equal(t, sentiment.Key{Date: day1, Ticker: "GME"}, got[1].Key())
	assert.Equal(t, sentiment.Key{Date: day2, Ticker: "AAPL"}, got[2].Key())
}

func TestMode_TiesGoToSmallest(t *testing.T) {
	assert.Equal(t, "Discussion", mode(map[string]int{"YOLO": 2, "Discussion": 2, "DD": 1}))
	assert.Empty(t, mode(map[string]int{}))
}

func TestGeneral(t *testing.T) {
	got := General([]sentiment.GeneralRecord{
		{Date: day2, Label: sentiment.LabelNegative},
		{Date: day1, Label: sentiment.LabelPositive},
		{Date: day1, Label: sentiment.LabelNeutral},
		{Date: day1, Label: sentiment.LabelNone},
	})
	require.Len(t, got, 2)
	assert.Equal(t, day1, got[0].Date)
	assert.Equal(t, 1, got[0].PositiveCount)
	assert.Equal(t, 1, got[0].NeutralCount)
	assert.Equal(t, sentiment.ConsensusPositive, got[0].GeneralConsensusLabel)
	assert.Equal(t, sentiment.ConsensusNegative, got[1].GeneralConsensusLabel)
}

func TestProcessPosts(t *testing.T) {
	norm := newNorm(t)
	posts := []social.Post{
		{ID: "p1", CreatedUTC: epoch(t, day1, 23), Title: "AAPL calls", SelfText: "and GameStop too"},
		{ID: "p2", CreatedUTC: epoch(t, day1, 10), Title: "removed", RemovedByCategory: "moderator"},
		{ID: "p3", CreatedUTC: epoch(t, day1, 10), Title: "nothing"},
	}

	rows := ProcessPosts(norm, posts, newMatcher())
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"AAPL", "GME"}, rows[0].Tickers)
	// 23:00 New York is already the next day in UTC
	assert.Equal(t, "2025-03-03", rows[0].Date)
	assert.Equal(t, "2025-03-03 23:00:00", rows[0].DateTime)
	assert.Empty(t, rows[1].Tickers)
}

func TestJoinComments_DropsOrphans(t *testing.T) {
	posts := []social.Post{{ID: "p1", CreatedUTC: 100, Title: "Daily Discussion Thread"}}
	comments := []social.Comment{
		{ID: "c1", LinkID: "p1", Body: "AAPL to the moon", Score: 3, CreatedUTC: 200},
		{ID: "c2", LinkID: "missing", Body: "GME"},
		{ID: "c3", LinkID: "p1", Body: "nothing here"},
	}

	rows, stats := JoinComments(posts, comments, newMatcher())
	assert.Equal(t, JoinStats{Joined: 2, Dropped: 1}, stats)
	require.Len(t, rows, 2)
	assert.Equal(t, "Daily Discussion Thread", rows[0].PostTitle)
	assert.Equal(t, int64(100), rows[0].PostCreatedUTC)
	assert.Equal(t, []string{"AAPL"}, rows[0].Tickers)
	assert.Empty(t, rows[1].Tickers)
}

func TestCommentMentions_DatedByParentPost(t *testing.T) {
	norm := newNorm(t)
	comments := []social.CommentRow{{
		CommentID:         "c1",
		PostCreatedUTC:    epoch(t, day1, 7),
		CommentCreatedUTC: epoch(t, day2, 9),
		Score:             4,
		Tickers:           []string{"AAPL"},
	}}

	got := CommentMentions(norm, comments, map[string]sentiment.Label{"c1": sentiment.LabelNegative})
	require.Len(t, got, 1)
	assert.Equal(t, day1, got[0].Date)
	assert.Equal(t, sentiment.LabelNegative, got[0].Label)
	assert.Nil(t, got[0].NumComments)
}

func TestPostMentions(t *testing.T) {
	norm := newNorm(t)
	posts := []social.PostRow{{
		Post:    social.Post{ID: "p1", CreatedUTC: epoch(t, day2, 12), NumComments: 12, Score: 9, LinkFlairText: "DD"},
		Tickers: []string{"AAPL", "GME"},
	}}

	got := PostMentions(norm, posts, map[string]sentiment.Label{"p1": sentiment.LabelPositive})
	require.Len(t, got, 2)
	assert.Equal(t, day2, got[1].Date)
	assert.Equal(t, "GME", got[1].Ticker)
	require.NotNil(t, got[1].NumComments)
	assert.Equal(t, 12.0, *got[1].NumComments)
}

func TestGeneralRecords(t *testing.T) {
	norm := newNorm(t)
	posts := []social.PostRow{
		{Post: social.Post{ID: "p1", CreatedUTC: epoch(t, day1, 12)}},
		{Post: social.Post{ID: "p2", CreatedUTC: epoch(t, day1, 12)}, Tickers: []string{"AAPL"}},
	}
	comments := []social.CommentRow{{CommentID: "c1", PostCreatedUTC: epoch(t, day2, 1)}}

	got := GeneralRecords(norm, posts, comments,
		map[string]sentiment.Label{"p1": sentiment.LabelPositive},
		map[string]sentiment.Label{"c1": sentiment.LabelNegative},
	)
	assert.ElementsMatch(t, []sentiment.GeneralRecord{
		{Date: day1, Label: sentiment.LabelPositive},
		{Date: day2, Label: sentiment.LabelNegative},
	}, got)
}

func TestDailyMentionCounts(t *testing.T) {
	norm := newNorm(t)
	posts := []social.PostRow{
		{Post: social.Post{CreatedUTC: epoch(t, day1, 12)}, Tickers: []string{"AAPL", "GME"}},
	}
	comments := []social.CommentRow{
		// comment counted on its own day, not its parent's
		{PostCreatedUTC: epoch(t, day1, 12), CommentCreatedUTC: epoch(t, day2, 1), Tickers: []string{"AAPL"}},
		{PostCreatedUTC: epoch(t, day1, 12), CommentCreatedUTC: epoch(t, day1, 13), Tickers: []string{"aapl "}},
	}

	got := DailyMentionCounts(norm, posts, comments, map[string]struct{}{"AAPL": {}})
	require.Len(t, got, 2)
	assert.Equal(t, sentiment.DailyMentionCount{Date: day1, Ticker: "AAPL", PostMentions: 1, CommentMentions: 1, TotalMentions: 2}, got[0])
	assert.Equal(t, sentiment.DailyMentionCount{Date: day2, Ticker: "AAPL", CommentMentions: 1, TotalMentions: 1}, got[1])
}

func TestMentionSummary_SortedDescending(t *testing.T) {
	posts := []social.PostRow{
		{Tickers: []string{"AAPL"}},
		{Tickers: []string{"GME", "AAPL"}},
	}
	comments := []social.CommentRow{
		{Tickers: []string{"GME"}},
		{Tickers: []string{"GME"}},
		{Tickers: []string{"TSLA"}},
	}

	got := MentionSummary(posts, comments)
	require.Len(t, got, 3)
	assert.Equal(t, sentiment.MentionSummary{Ticker: "GME", PostMentions: 1, CommentMentions: 2, TotalMentions: 3}, got[0])
	assert.Equal(t, sentiment.MentionSummary{Ticker: "AAPL", PostMentions: 2, TotalMentions: 2}, got[1])
	assert.Equal(t, "TSLA", got[2].Ticker)
}
