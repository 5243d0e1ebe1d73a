package market_data

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Observation is one trading day of one ticker.
// Close and Volume are invalid when the provider had no value for the cell.
type Observation struct {
	Date   civil.Date          `ch:"date"`
	Ticker string              `ch:"ticker"`
	Close  decimal.NullDecimal `ch:"closing_price"`
	Volume decimal.NullDecimal `ch:"volume"`
}

// Query selects a date range of daily bars for one ticker
type Query struct {
	Ticker string
	From   civil.Date
	To     civil.Date
}
