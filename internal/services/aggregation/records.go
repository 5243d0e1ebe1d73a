// Package aggregation turns collected posts and comments into per-day
// mention and sentiment tables.
package aggregation

import (
	"wsbpanel/internal/domain/sentiment"
	"wsbpanel/internal/domain/social"
	"wsbpanel/internal/services/timenorm"
	"wsbpanel/pkg/logger"
)

// Matcher finds ticker mentions in text
type Matcher interface {
	Match(text string) []string
	MatchAll(texts ...string) []string
}

// ProcessPosts drops removed posts, stamps civil date and datetime and
// records the tickers mentioned in title or selftext
func ProcessPosts(norm *timenorm.Normalizer, posts []social.Post, m Matcher) []social.PostRow {
	rows := make([]social.PostRow, 0, len(posts))
	removed := 0

	for _, p := range posts {
		if p.Removed() {
			removed++
			continue
		}
		date, dateTime := norm.ToCivil(p.CreatedUTC)
		rows = append(rows, social.PostRow{
			Post:     p,
			DateTime: dateTime,
			Date:     date.String(),
			Tickers:  m.MatchAll(p.Title, p.SelfText),
		})
	}

	logger.Get().Infow("Processed submissions", "kept", len(rows), "removed", removed)
	return rows
}

// PostMentions explodes posts into one labeled mention per ticker, dated by
// the post's civil date
func PostMentions(norm *timenorm.Normalizer, posts []social.PostRow, labels map[string]sentiment.Label) []sentiment.LabeledMention {
	var out []sentiment.LabeledMention
	for _, p := range posts {
		date := norm.Date(p.CreatedUTC)
		label := labels[p.ID]
		numComments := float64(p.NumComments)
		for _, t := range p.Tickers {
			out = append(out, sentiment.LabeledMention{
				Date:          date,
				Ticker:        t,
				Label:         label,
				Score:         p.Score,
				NumComments:   &numComments,
				LinkFlairText: p.LinkFlairText,
			})
		}
	}
	return out
}

// CommentMentions explodes comments into labeled mentions. Comments are
// dated by their parent post, not by their own timestamp.
func CommentMentions(norm *timenorm.Normalizer, comments []social.CommentRow, labels map[string]sentiment.Label) []sentiment.LabeledMention {
	var out []sentiment.LabeledMention
	for _, c := range comments {
		date := norm.Date(c.PostCreatedUTC)
		label := labels[c.CommentID]
		for _, t := range c.Tickers {
			out = append(out, sentiment.LabeledMention{
				Date:   date,
				Ticker: t,
				Label:  label,
				Score:  c.Score,
			})
		}
	}
	return out
}

// GeneralRecords collects the labeled records that mention no ticker
func GeneralRecords(
	norm *timenorm.Normalizer,
	posts []social.PostRow,
	comments []social.CommentRow,
	postLabels, commentLabels map[string]sentiment.Label,
) []sentiment.GeneralRecord {
	var out []sentiment.GeneralRecord
	for _, c := range comments {
		if len(c.Tickers) == 0 {
			out = append(out, sentiment.GeneralRecord{Date: norm.Date(c.PostCreatedUTC), Label: commentLabels[c.CommentID]})
		}
	}
	for _, p := range posts {
		if len(p.Tickers) == 0 {
			out = append(out, sentiment.GeneralRecord{Date: norm.Date(p.CreatedUTC), Label: postLabels[p.ID]})
		}
	}
	return out
}
