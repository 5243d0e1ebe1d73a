package aggregation

import (
	"cmp"
	"slices"
	"strings"

	"wsbpanel/internal/domain/sentiment"
	"wsbpanel/internal/domain/social"
	"wsbpanel/internal/services/timenorm"
)

// DailyMentionCounts counts mentions per (date, ticker). Posts are dated by
// their own civil date and so are comments. When valid is non-nil only
// tickers in it are counted. Sorted by date, then ticker.
func DailyMentionCounts(
	norm *timenorm.Normalizer,
	posts []social.PostRow,
	comments []social.CommentRow,
	valid map[string]struct{},
) []sentiment.DailyMentionCount {
	acc := make(map[sentiment.Key]*sentiment.DailyMentionCount)
	get := func(key sentiment.Key) *sentiment.DailyMentionCount {
		c, ok := acc[key]
		if !ok {
			c = &sentiment.DailyMentionCount{Date: key.Date, Ticker: key.Ticker}
			acc[key] = c
		}
		return c
	}

	for _, p := range posts {
		date := norm.Date(p.CreatedUTC)
		for _, t := range p.Tickers {
			if t, ok := accept(t, valid); ok {
				get(sentiment.Key{Date: date, Ticker: t}).PostMentions++
			}
		}
	}
	for _, c := range comments {
		date := norm.Date(c.CommentCreatedUTC)
		for _, t := range c.Tickers {
			if t, ok := accept(t, valid); ok {
				get(sentiment.Key{Date: date, Ticker: t}).CommentMentions++
			}
		}
	}

	out := make([]sentiment.DailyMentionCount, 0, len(acc))
	for _, c := range acc {
		c.TotalMentions = c.PostMentions + c.CommentMentions
		out = append(out, *c)
	}
	slices.SortFunc(out, func(x, y sentiment.DailyMentionCount) int {
		if c := x.Date.Compare(y.Date); c != 0 {
			return c
		}
		return strings.Compare(x.Ticker, y.Ticker)
	})
	return out
}

// MentionSummary totals mentions per ticker over the whole run, most
// mentioned first
func MentionSummary(posts []social.PostRow, comments []social.CommentRow) []sentiment.MentionSummary {
	acc := make(map[string]*sentiment.MentionSummary)
	get := func(t string) *sentiment.MentionSummary {
		s, ok := acc[t]
		if !ok {
			s = &sentiment.MentionSummary{Ticker: t}
			acc[t] = s
		}
		return s
	}

	for _, p := range posts {
		for _, t := range p.Tickers {
			if t, ok := accept(t, nil); ok {
				get(t).PostMentions++
			}
		}
	}
	for _, c := range comments {
		for _, t := range c.Tickers {
			if t, ok := accept(t, nil); ok {
				get(t).CommentMentions++
			}
		}
	}

	out := make([]sentiment.MentionSummary, 0, len(acc))
	for _, s := range acc {
		s.TotalMentions = s.PostMentions + s.CommentMentions
		out = append(out, *s)
	}
	slices.SortFunc(out, mentionOrder)
	return out
}

// mentionOrder sorts totals descending with ticker as tie breaker
func mentionOrder(x, y sentiment.MentionSummary) int {
	if c := cmp.Compare(y.TotalMentions, x.TotalMentions); c != 0 {
		return c
	}
	return strings.Compare(x.Ticker, y.Ticker)
}

// accept normalizes a ticker and checks it against the optional valid set
func accept(ticker string, valid map[string]struct{}) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if len(t) < 2 {
		return "", false
	}
	if valid != nil {
		if _, ok := valid[t]; !ok {
			return "", false
		}
	}
	return t, true
}
