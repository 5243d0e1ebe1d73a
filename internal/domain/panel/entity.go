package panel

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"wsbpanel/internal/domain/sentiment"
)

// Row is one (trading date, ticker) cell of the dense panel
type Row struct {
	Date                civil.Date
	Ticker              string
	ClosingPrice        decimal.NullDecimal
	Volume              decimal.NullDecimal
	ClosingPriceNextDay decimal.NullDecimal
	Target              *int // nil on the trailing edge
	RSI                 *float64
	Sentiment           sentiment.DailyAggregate
	General             sentiment.GeneralSentiment
}
