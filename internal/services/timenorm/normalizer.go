// Package timenorm converts source timestamps into civil dates of a single
// pipeline timezone. Every component that buckets records by day takes a
// *Normalizer explicitly so UTC and civil days are never mixed.
package timenorm

import (
	"iter"
	"time"
	_ "time/tzdata" // zone database for hosts without /usr/share/zoneinfo

	"cloud.google.com/go/civil"

	"wsbpanel/pkg/errors"
)

// DateTimeLayout is the civil datetime format written to tabular outputs
const DateTimeLayout = "2006-01-02 15:04:05"

// Normalizer converts epoch seconds into civil dates in a fixed zone
type Normalizer struct {
	loc *time.Location
}

// New loads the IANA zone (e.g. "America/New_York")
func New(zone string) (*Normalizer, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, errors.Wrapf(err, "load timezone %q", zone)
	}
	return &Normalizer{loc: loc}, nil
}

// Location returns the pipeline zone
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// ToCivil returns the civil date and civil datetime string of an epoch timestamp
func (n *Normalizer) ToCivil(epochSeconds int64) (civil.Date, string) {
	t := time.Unix(epochSeconds, 0).In(n.loc)
	return civil.DateOf(t), t.Format(DateTimeLayout)
}

// Date returns only the civil date of an epoch timestamp
func (n *Normalizer) Date(epochSeconds int64) civil.Date {
	d, _ := n.ToCivil(epochSeconds)
	return d
}

// DayStart returns the instant the civil day begins in the pipeline zone
func (n *Normalizer) DayStart(day civil.Date) time.Time {
	return day.In(n.loc)
}

// DayWindow returns [day 00:00, day+1 00:00) in the pipeline zone.
// The window is 23 or 25 hours long on DST transition days.
func (n *Normalizer) DayWindow(day civil.Date) (start, end time.Time) {
	return n.DayStart(day), n.DayStart(day.AddDays(1))
}

// Days yields every civil date in [start, end)
func Days(start, end civil.Date) iter.Seq[civil.Date] {
	return func(yield func(civil.Date) bool) {
		for d := start; d.Before(end); d = d.AddDays(1) {
			if !yield(d) {
				return
			}
		}
	}
}
