package eodhd

import (
	"github.com/shopspring/decimal"
)

// eodBar is one row of /eod/{symbol}; null values decode as invalid
type eodBar struct {
	Date          string              `json:"date"`
	Close         decimal.NullDecimal `json:"close"`
	AdjustedClose decimal.NullDecimal `json:"adjusted_close"`
	Volume        decimal.NullDecimal `json:"volume"`
}

// closeValue prefers the split and dividend adjusted close
func (b eodBar) closeValue() decimal.NullDecimal {
	if b.AdjustedClose.Valid {
		return b.AdjustedClose
	}
	return b.Close
}

// exchangeDetails is the subset of /exchange-details/{code} the calendar uses
type exchangeDetails struct {
	Code     string                     `json:"Code"`
	Timezone string                     `json:"Timezone"`
	Holidays map[string]exchangeHoliday `json:"ExchangeHolidays"`
}

type exchangeHoliday struct {
	Holiday string `json:"Holiday"`
	Date    string `json:"Date"`
	Type    string `json:"Type"`
}
