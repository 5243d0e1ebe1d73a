package csvstore

import (
	"wsbpanel/internal/domain/panel"
)

var panelHeader = []string{
	"date", "ticker", "closing_price", "volume", "closing_price_next_day", "target",
	"no_positive_consensus", "no_neutral_consensus", "no_negative_consensus",
	"like_score_positive", "like_score_negative", "avg_num_comments",
	"most_mentioned_link_flair_text", "number_of_mentions", "ticker_consensus_label",
	"no_positive_consensus_general", "no_neutral_consensus_general", "no_negative_consensus_general",
	"general_consensus_label", "rsi_14",
}

// WritePanel writes the finished dataset. Missing prices, targets and RSI
// values are empty cells; absent sentiment was already filled with zeros.
func (s *Store) WritePanel(rows []panel.Row) error {
	return writeTable(s.Path(PanelFile), panelHeader, rows, func(row panel.Row) []string {
		a, g := row.Sentiment, row.General
		avg := 0.0
		if a.AvgNumComments != nil {
			avg = *a.AvgNumComments
		}
		return []string{
			row.Date.String(), row.Ticker,
			formatDecimal(row.ClosingPrice), formatDecimal(row.Volume),
			formatDecimal(row.ClosingPriceNextDay), formatOptionalInt(row.Target),
			itoa(a.PositiveCount), itoa(a.NeutralCount), itoa(a.NegativeCount),
			itoa(a.LikeScorePositive), itoa(a.LikeScoreNegative), formatFloat(avg),
			a.MostMentionedFlair, itoa(a.NumberOfMentions), string(a.TickerConsensusLabel),
			itoa(g.PositiveCount), itoa(g.NeutralCount), itoa(g.NegativeCount),
			string(g.GeneralConsensusLabel), formatOptionalFloat(row.RSI),
		}
	})
}
