package csvstore

import (
	"path/filepath"
)

// Dataset file names under the output directory
const (
	SubmissionsFile        = "submissions.csv"
	CommentsFile           = "comments.csv"
	MentionSummaryFile     = "ticker_mentions_summary.csv"
	DailyMentionsFile      = "ticker_mentions_combined_daily.csv"
	MarketObservationsFile = "market_observations.csv"
	DailySentimentFile     = "daily_sentiment.csv"
	GeneralSentimentFile   = "general_sentiment.csv"
	PanelFile              = "panel.csv"
)

// Store reads and writes the datasets of one output directory
type Store struct {
	dir string
}

// New creates a store rooted at dir
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the location of a dataset file
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}
