package csvstore

import (
	"cloud.google.com/go/civil"

	"wsbpanel/internal/domain/sentiment"
)

var mentionSummaryHeader = []string{"ticker", "post_mentions", "comment_mentions", "total_mentions"}

// WriteMentionSummary writes whole-run mention totals
func (s *Store) WriteMentionSummary(rows []sentiment.MentionSummary) error {
	return writeTable(s.Path(MentionSummaryFile), mentionSummaryHeader, rows, func(m sentiment.MentionSummary) []string {
		return []string{m.Ticker, itoa(m.PostMentions), itoa(m.CommentMentions), itoa(m.TotalMentions)}
	})
}

// ReadMentionSummary reads mention totals back in file order
func (s *Store) ReadMentionSummary() ([]sentiment.MentionSummary, error) {
	var rows []sentiment.MentionSummary
	err := readTable(s.Path(MentionSummaryFile), ',', mentionSummaryHeader, func(r record) error {
		posts, err := r.int("post_mentions")
		if err != nil {
			return err
		}
		comments, err := r.int("comment_mentions")
		if err != nil {
			return err
		}
		total, err := r.int("total_mentions")
		if err != nil {
			return err
		}
		rows = append(rows, sentiment.MentionSummary{
			Ticker:          r.get("ticker"),
			PostMentions:    posts,
			CommentMentions: comments,
			TotalMentions:   total,
		})
		return nil
	})
	return rows, err
}

var dailyMentionsHeader = []string{"date", "ticker", "post_mentions", "comment_mentions", "total_mentions"}

// WriteDailyMentions writes per (date, ticker) mention counts
func (s *Store) WriteDailyMentions(rows []sentiment.DailyMentionCount) error {
	return writeTable(s.Path(DailyMentionsFile), dailyMentionsHeader, rows, func(m sentiment.DailyMentionCount) []string {
		return []string{m.Date.String(), m.Ticker, itoa(m.PostMentions), itoa(m.CommentMentions), itoa(m.TotalMentions)}
	})
}

var dailySentimentHeader = []string{
	"date", "ticker",
	"no_positive_consensus", "no_neutral_consensus", "no_negative_consensus",
	"like_score_positive", "like_score_negative", "avg_num_comments",
	"most_mentioned_link_flair_text", "number_of_mentions", "ticker_consensus_label",
}

// WriteDailySentiment writes per (date, ticker) sentiment aggregates
func (s *Store) WriteDailySentiment(rows []sentiment.DailyAggregate) error {
	return writeTable(s.Path(DailySentimentFile), dailySentimentHeader, rows, func(a sentiment.DailyAggregate) []string {
		return []string{
			a.Date.String(), a.Ticker,
			itoa(a.PositiveCount), itoa(a.NeutralCount), itoa(a.NegativeCount),
			itoa(a.LikeScorePositive), itoa(a.LikeScoreNegative), formatOptionalFloat(a.AvgNumComments),
			a.MostMentionedFlair, itoa(a.NumberOfMentions), string(a.TickerConsensusLabel),
		}
	})
}

var generalSentimentHeader = []string{
	"date",
	"no_positive_consensus_general", "no_neutral_consensus_general", "no_negative_consensus_general",
	"general_consensus_label",
}

// WriteGeneralSentiment writes per date ticker-less sentiment
func (s *Store) WriteGeneralSentiment(rows []sentiment.GeneralSentiment) error {
	return writeTable(s.Path(GeneralSentimentFile), generalSentimentHeader, rows, func(g sentiment.GeneralSentiment) []string {
		return []string{
			g.Date.String(),
			itoa(g.PositiveCount), itoa(g.NeutralCount), itoa(g.NegativeCount),
			string(g.GeneralConsensusLabel),
		}
	})
}

func parseDate(r record, col string) (civil.Date, error) {
	v := r.get(col)
	d, err := civil.ParseDate(v)
	if err != nil {
		return civil.Date{}, r.malformed(col, v)
	}
	return d, nil
}
