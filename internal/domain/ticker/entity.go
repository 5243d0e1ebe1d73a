package ticker

import "context"

// Ticker is a tracked symbol of the universe
type Ticker struct {
	Symbol      string   `db:"ticker"`
	CompanyName string   `db:"name"`
	NameTokens  []string `db:"-"`
}

// Company is a raw universe entry before name cleaning
type Company struct {
	Symbol string `db:"ticker"`
	Name   string `db:"name"`
}

// UniverseSource loads the raw company list (CSV file or Postgres table)
type UniverseSource interface {
	LoadCompanies(ctx context.Context) ([]Company, error)
}
