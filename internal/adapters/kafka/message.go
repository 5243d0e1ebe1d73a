package kafka

import (
	"github.com/shopspring/decimal"

	"wsbpanel/internal/domain/panel"
)

// RowMessage is the wire form of a panel row.
// Missing prices and targets are encoded as null.
type RowMessage struct {
	RunID               string           `json:"run_id"`
	Date                string           `json:"date"`
	Ticker              string           `json:"ticker"`
	ClosingPrice        *decimal.Decimal `json:"closing_price"`
	Volume              *decimal.Decimal `json:"volume"`
	ClosingPriceNextDay *decimal.Decimal `json:"closing_price_next_day"`
	Target              *int             `json:"target"`
	RSI14               *float64         `json:"rsi_14"`

	NoPositiveConsensus  int     `json:"no_positive_consensus"`
	NoNeutralConsensus   int     `json:"no_neutral_consensus"`
	NoNegativeConsensus  int     `json:"no_negative_consensus"`
	LikeScorePositive    int     `json:"like_score_positive"`
	LikeScoreNegative    int     `json:"like_score_negative"`
	AvgNumComments       float64 `json:"avg_num_comments"`
	MostMentionedFlair   string  `json:"most_mentioned_link_flair_text"`
	NumberOfMentions     int     `json:"number_of_mentions"`
	TickerConsensusLabel string  `json:"ticker_consensus_label"`

	NoPositiveConsensusGeneral int    `json:"no_positive_consensus_general"`
	NoNeutralConsensusGeneral  int    `json:"no_neutral_consensus_general"`
	NoNegativeConsensusGeneral int    `json:"no_negative_consensus_general"`
	GeneralConsensusLabel      string `json:"general_consensus_label"`
}

// NewRowMessage flattens a panel row for publishing
func NewRowMessage(runID string, row panel.Row) RowMessage {
	s, g := row.Sentiment, row.General

	msg := RowMessage{
		RunID:               runID,
		Date:                row.Date.String(),
		Ticker:              row.Ticker,
		ClosingPrice:        decimalPtr(row.ClosingPrice),
		Volume:              decimalPtr(row.Volume),
		ClosingPriceNextDay: decimalPtr(row.ClosingPriceNextDay),
		Target:              row.Target,
		RSI14:               row.RSI,

		NoPositiveConsensus:  s.PositiveCount,
		NoNeutralConsensus:   s.NeutralCount,
		NoNegativeConsensus:  s.NegativeCount,
		LikeScorePositive:    s.LikeScorePositive,
		LikeScoreNegative:    s.LikeScoreNegative,
		MostMentionedFlair:   s.MostMentionedFlair,
		NumberOfMentions:     s.NumberOfMentions,
		TickerConsensusLabel: string(s.TickerConsensusLabel),

		NoPositiveConsensusGeneral: g.PositiveCount,
		NoNeutralConsensusGeneral:  g.NeutralCount,
		NoNegativeConsensusGeneral: g.NegativeCount,
		GeneralConsensusLabel:      string(g.GeneralConsensusLabel),
	}
	if s.AvgNumComments != nil {
		msg.AvgNumComments = *s.AvgNumComments
	}
	return msg
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
