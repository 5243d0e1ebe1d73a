package aggregation

import (
	"slices"
	"strings"

	"cloud.google.com/go/civil"

	"wsbpanel/internal/domain/sentiment"
)

type tickerAccumulator struct {
	agg            sentiment.DailyAggregate
	commentsSum    float64
	commentsCount  int
	flairFrequency map[string]int
}

// Aggregate groups labeled mentions by (date, ticker). The result is sorted
// by date, then ticker.
func Aggregate(mentions []sentiment.LabeledMention) []sentiment.DailyAggregate {
	acc := make(map[sentiment.Key]*tickerAccumulator)

	for _, m := range mentions {
		key := sentiment.Key{Date: m.Date, Ticker: m.Ticker}
		a, ok := acc[key]
		if !ok {
			a = &tickerAccumulator{
				agg:            sentiment.DailyAggregate{Date: m.Date, Ticker: m.Ticker},
				flairFrequency: make(map[string]int),
			}
			acc[key] = a
		}

		a.agg.NumberOfMentions++
		switch m.Label {
		case sentiment.LabelPositive:
			a.agg.PositiveCount++
			a.agg.LikeScorePositive += m.Score
		case sentiment.LabelNeutral:
			a.agg.NeutralCount++
		case sentiment.LabelNegative:
			a.agg.NegativeCount++
			a.agg.LikeScoreNegative += m.Score
		}

		if m.NumComments != nil {
			a.commentsSum += *m.NumComments
			a.commentsCount++
		}
		if m.LinkFlairText != "" {
			a.flairFrequency[m.LinkFlairText]++
		}
	}

	out := make([]sentiment.DailyAggregate, 0, len(acc))
	for _, a := range acc {
		if a.commentsCount > 0 {
			avg := a.commentsSum / float64(a.commentsCount)
			a.agg.AvgNumComments = &avg
		}
		a.agg.MostMentionedFlair = mode(a.flairFrequency)
		a.agg.TickerConsensusLabel = sentiment.Consensus(a.agg.PositiveCount, a.agg.NegativeCount)
		out = append(out, a.agg)
	}

	slices.SortFunc(out, func(x, y sentiment.DailyAggregate) int {
		if c := x.Date.Compare(y.Date); c != 0 {
			return c
		}
		return strings.Compare(x.Ticker, y.Ticker)
	})
	return out
}

// General counts labels of ticker-less records per date, sorted by date
func General(records []sentiment.GeneralRecord) []sentiment.GeneralSentiment {
	acc := make(map[civil.Date]*sentiment.GeneralSentiment)

	for _, r := range records {
		g, ok := acc[r.Date]
		if !ok {
			g = &sentiment.GeneralSentiment{Date: r.Date}
			acc[r.Date] = g
		}
		switch r.Label {
		case sentiment.LabelPositive:
			g.PositiveCount++
		case sentiment.LabelNeutral:
			g.NeutralCount++
		case sentiment.LabelNegative:
			g.NegativeCount++
		}
	}

	out := make([]sentiment.GeneralSentiment, 0, len(acc))
	for _, g := range acc {
		g.GeneralConsensusLabel = sentiment.Consensus(g.PositiveCount, g.NegativeCount)
		out = append(out, *g)
	}
	slices.SortFunc(out, func(x, y sentiment.GeneralSentiment) int {
		return x.Date.Compare(y.Date)
	})
	return out
}

// mode returns the most frequent value; ties go to the lexicographically smallest
func mode(freq map[string]int) string {
	best, bestCount := "", 0
	for v, n := range freq {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}
