package sentiment

import (
	"cloud.google.com/go/civil"
)

// Label is the precomputed consensus label of a text record
type Label string

const (
	LabelPositive Label = "positive"
	LabelNeutral  Label = "neutral"
	LabelNegative Label = "negative"
	// LabelNone marks a record the labeler produced nothing for
	LabelNone Label = ""
)

// ConsensusLabel is the majority label derived from counts
type ConsensusLabel string

const (
	ConsensusPositive ConsensusLabel = "positive"
	ConsensusNegative ConsensusLabel = "negative"
	ConsensusEqual    ConsensusLabel = "equal"
)

// ParseLabel normalizes a label read from the labeler output
func ParseLabel(s string) Label {
	switch Label(s) {
	case LabelPositive, LabelNeutral, LabelNegative:
		return Label(s)
	default:
		return LabelNone
	}
}

// Consensus derives the majority label; ties and empty counts are "equal"
func Consensus(positive, negative int) ConsensusLabel {
	switch {
	case positive > negative:
		return ConsensusPositive
	case negative > positive:
		return ConsensusNegative
	default:
		return ConsensusEqual
	}
}

// LabeledMention is one (record, ticker) association with the record's label
type LabeledMention struct {
	Date          civil.Date
	Ticker        string
	Label         Label
	Score         int
	NumComments   *float64 // posts only
	LinkFlairText string   // posts only
}

// DailyAggregate summarizes mentions of one ticker on one civil date
type DailyAggregate struct {
	Date                 civil.Date     `ch:"date"`
	Ticker               string         `ch:"ticker"`
	PositiveCount        int            `ch:"no_positive_consensus"`
	NeutralCount         int            `ch:"no_neutral_consensus"`
	NegativeCount        int            `ch:"no_negative_consensus"`
	LikeScorePositive    int            `ch:"like_score_positive"`
	LikeScoreNegative    int            `ch:"like_score_negative"`
	AvgNumComments       *float64       `ch:"avg_num_comments"` // nil when only comments mentioned the ticker
	MostMentionedFlair   string         `ch:"most_mentioned_link_flair_text"`
	NumberOfMentions     int            `ch:"number_of_mentions"`
	TickerConsensusLabel ConsensusLabel `ch:"ticker_consensus_label"`
}

// Key identifies the aggregate in the panel join
func (a DailyAggregate) Key() Key { return Key{Date: a.Date, Ticker: a.Ticker} }

// Key is the (date, ticker) join key
type Key struct {
	Date   civil.Date
	Ticker string
}

// GeneralRecord is a labeled record that mentions no ticker
type GeneralRecord struct {
	Date  civil.Date
	Label Label
}

// GeneralSentiment summarizes ticker-less discussion for one date
type GeneralSentiment struct {
	Date                  civil.Date
	PositiveCount         int
	NeutralCount          int
	NegativeCount         int
	GeneralConsensusLabel ConsensusLabel
}

// DailyMentionCount is the per (date, ticker) mention volume split by record type
type DailyMentionCount struct {
	Date            civil.Date
	Ticker          string
	PostMentions    int
	CommentMentions int
	TotalMentions   int
}

// MentionSummary is the whole-run mention volume of a ticker
type MentionSummary struct {
	Ticker          string
	PostMentions    int
	CommentMentions int
	TotalMentions   int
}
