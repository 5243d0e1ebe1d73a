package clickhouse

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

const defaultBatchSize = 1000

// chDate maps a civil date to the midnight UTC value a Date column expects
func chDate(d civil.Date) time.Time {
	return d.In(time.UTC)
}

// nullableDecimal maps an invalid NullDecimal to a NULL cell
func nullableDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func nullableTarget(t *int) *uint8 {
	if t == nil {
		return nil
	}
	v := uint8(*t)
	return &v
}
