// Package calendar decides which civil dates are exchange trading days.
package calendar

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	xcal "github.com/scmhub/calendar"

	"wsbpanel/pkg/errors"
)

// Provider lists trading days in a closed date interval
type Provider interface {
	ValidTradingDays(ctx context.Context, start, end civil.Date) ([]civil.Date, error)
}

// exchangeCalendar is the part of an exchange calendar the panel needs
type exchangeCalendar interface {
	IsBusinessDay(t time.Time) bool
}

// unscheduledClosures are one-off full-day closures (national days of
// mourning, weather) applied on top of the scheduled holidays
var unscheduledClosures = []civil.Date{
	{Year: 2001, Month: time.September, Day: 11},
	{Year: 2001, Month: time.September, Day: 12},
	{Year: 2001, Month: time.September, Day: 13},
	{Year: 2001, Month: time.September, Day: 14},
	{Year: 2004, Month: time.June, Day: 11},
	{Year: 2007, Month: time.January, Day: 2},
	{Year: 2012, Month: time.October, Day: 29},
	{Year: 2012, Month: time.October, Day: 30},
	{Year: 2018, Month: time.December, Day: 5},
	{Year: 2025, Month: time.January, Day: 9},
}

// NYSE answers from the XNYS exchange calendar plus extra closures
type NYSE struct {
	exchange exchangeCalendar
	closures map[civil.Date]struct{}
}

// Option configures the calendar
type Option func(*NYSE)

// WithExtraClosures adds closures on top of the exchange calendar, e.g.
// holidays published by the market data provider
func WithExtraClosures(days ...civil.Date) Option {
	return func(n *NYSE) {
		for _, d := range days {
			n.closures[d] = struct{}{}
		}
	}
}

// NewNYSE creates the calendar
func NewNYSE(opts ...Option) *NYSE {
	n := &NYSE{
		exchange: xcal.XNYS(),
		closures: make(map[civil.Date]struct{}, len(unscheduledClosures)),
	}
	for _, d := range unscheduledClosures {
		n.closures[d] = struct{}{}
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ValidTradingDays returns the trading days in [start, end] in ascending order
func (n *NYSE) ValidTradingDays(ctx context.Context, start, end civil.Date) ([]civil.Date, error) {
	if end.Before(start) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "calendar range %s > %s", start, end)
	}

	var days []civil.Date
	for d := start; !d.After(end); d = d.AddDays(1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if n.IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days, nil
}

// IsTradingDay reports whether the exchange is open on d
func (n *NYSE) IsTradingDay(d civil.Date) bool {
	if _, closed := n.closures[d]; closed {
		return false
	}
	// noon UTC is the same civil date in New York
	return n.exchange.IsBusinessDay(time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC))
}
