package aggregation

import (
	"github.com/dustin/go-humanize"

	"wsbpanel/internal/domain/social"
	"wsbpanel/internal/metrics"
	"wsbpanel/pkg/logger"
)

// JoinStats counts the outcome of a comment to post join
type JoinStats struct {
	Joined  int
	Dropped int
}

// JoinComments attaches every comment to its parent post and matches tickers
// in its body. Comments whose parent is not in posts are dropped and counted.
func JoinComments(posts []social.Post, comments []social.Comment, m Matcher) ([]social.CommentRow, JoinStats) {
	lookup := make(map[string]social.Post, len(posts))
	for _, p := range posts {
		if p.ID == "" {
			continue
		}
		lookup[p.ID] = p
	}

	log := logger.Get().With("component", "comment_join")
	rows := make([]social.CommentRow, 0, len(comments))
	var stats JoinStats

	for i, c := range comments {
		if i > 0 && i%1000 == 0 {
			log.Debugw("Joining comments", "processed", humanize.Comma(int64(i)))
		}

		post, ok := lookup[c.LinkID]
		if !ok {
			stats.Dropped++
			continue
		}

		rows = append(rows, social.CommentRow{
			CommentID:         c.ID,
			PostID:            post.ID,
			PostCreatedUTC:    post.CreatedUTC,
			CommentCreatedUTC: c.CreatedUTC,
			PostTitle:         post.Title,
			Author:            c.Author,
			Score:             c.Score,
			Tickers:           m.Match(c.Body),
			Body:              c.Body,
		})
		stats.Joined++
	}

	if stats.Dropped > 0 {
		metrics.JoinMismatches.Add(float64(stats.Dropped))
		log.Warnw("Dropped comments without a collected parent post",
			"dropped", humanize.Comma(int64(stats.Dropped)),
			"joined", humanize.Comma(int64(stats.Joined)),
		)
	}
	return rows, stats
}
