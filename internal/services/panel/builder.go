// Package panel reshapes sparse market observations and mention aggregates
// into a dense trading day by ticker grid with a next-day direction target.
package panel

import (
	"context"
	"slices"

	"cloud.google.com/go/civil"
	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"

	"wsbpanel/internal/domain/market_data"
	"wsbpanel/internal/domain/panel"
	"wsbpanel/internal/domain/sentiment"
	"wsbpanel/internal/services/calendar"
	"wsbpanel/pkg/errors"
	"wsbpanel/pkg/logger"
)

// DefaultRSIPeriod is the lookback of the rsi_14 column
const DefaultRSIPeriod = 14

// Builder assembles panel rows
type Builder struct {
	calendar  calendar.Provider
	rsiPeriod int
	log       *logger.Logger
}

// NewBuilder creates a builder. rsiPeriod < 2 disables RSI enrichment.
func NewBuilder(cal calendar.Provider, rsiPeriod int) *Builder {
	return &Builder{
		calendar:  cal,
		rsiPeriod: rsiPeriod,
		log:       logger.Get().With("component", "panel_builder"),
	}
}

type cell struct {
	close  decimal.NullDecimal
	volume decimal.NullDecimal
}

// Build returns one row per (trading day, ticker) ordered by ticker, then date.
// Trading days span the closed range of observed dates; observations on
// other days are discarded and the last observation of a cell wins.
// General sentiment is joined onto every row of its date, and target is
// missing whenever that day's close is missing.
func (b *Builder) Build(
	ctx context.Context,
	observations []market_data.Observation,
	aggregates []sentiment.DailyAggregate,
	general []sentiment.GeneralSentiment,
) ([]panel.Row, error) {
	if len(observations) == 0 {
		b.log.Warnw("No market observations, panel is empty")
		return nil, nil
	}

	first, last := observations[0].Date, observations[0].Date
	tickerSet := make(map[string]struct{})
	for _, o := range observations {
		if o.Date.Before(first) {
			first = o.Date
		}
		if o.Date.After(last) {
			last = o.Date
		}
		tickerSet[o.Ticker] = struct{}{}
	}

	days, err := b.calendar.ValidTradingDays(ctx, first, last)
	if err != nil {
		return nil, errors.Wrap(err, "load trading days")
	}
	dayIndex := make(map[civil.Date]int, len(days))
	for i, d := range days {
		dayIndex[d] = i
	}

	tickers := make([]string, 0, len(tickerSet))
	for t := range tickerSet {
		tickers = append(tickers, t)
	}
	slices.Sort(tickers)

	grid := make(map[string][]cell, len(tickers))
	for _, t := range tickers {
		grid[t] = make([]cell, len(days))
	}
	discarded := 0
	for _, o := range observations {
		i, ok := dayIndex[o.Date]
		if !ok {
			discarded++
			continue
		}
		grid[o.Ticker][i] = cell{close: o.Close, volume: o.Volume}
	}

	aggIndex := make(map[sentiment.Key]sentiment.DailyAggregate, len(aggregates))
	for _, a := range aggregates {
		aggIndex[a.Key()] = a
	}
	generalIndex := make(map[civil.Date]sentiment.GeneralSentiment, len(general))
	for _, g := range general {
		generalIndex[g.Date] = g
	}

	rows := make([]panel.Row, 0, len(days)*len(tickers))
	for _, t := range tickers {
		cells := grid[t]
		forwardFill(cells)
		rsi := b.rsi(cells)

		for i, d := range days {
			row := panel.Row{
				Date:         d,
				Ticker:       t,
				ClosingPrice: cells[i].close,
				Volume:       cells[i].volume,
				RSI:          rsi[i],
				Sentiment:    sentimentFor(aggIndex, d, t),
				General:      generalFor(generalIndex, d),
			}
			if i+1 < len(cells) {
				row.ClosingPriceNextDay = cells[i+1].close
				row.Target = target(cells[i].close, cells[i+1].close)
			}
			rows = append(rows, row)
		}
	}

	b.log.Infow("Panel built",
		"trading_days", len(days),
		"tickers", len(tickers),
		"rows", len(rows),
		"discarded_observations", discarded,
	)
	return rows, nil
}

// forwardFill carries the last valid close and volume forward independently
func forwardFill(cells []cell) {
	var lastClose, lastVolume decimal.NullDecimal
	for i := range cells {
		if cells[i].close.Valid {
			lastClose = cells[i].close
		} else {
			cells[i].close = lastClose
		}
		if cells[i].volume.Valid {
			lastVolume = cells[i].volume
		} else {
			cells[i].volume = lastVolume
		}
	}
}

// target is 1 when the next close is higher, 0 otherwise, nil when either is missing
func target(today, next decimal.NullDecimal) *int {
	if !today.Valid || !next.Valid {
		return nil
	}
	v := 0
	if next.Decimal.GreaterThan(today.Decimal) {
		v = 1
	}
	return &v
}

// rsi computes RSI over the filled close series. After forward filling the
// valid closes form a contiguous suffix; values before the lookback is
// complete stay nil.
func (b *Builder) rsi(cells []cell) []*float64 {
	out := make([]*float64, len(cells))
	if b.rsiPeriod < 2 {
		return out
	}

	start := slices.IndexFunc(cells, func(c cell) bool { return c.close.Valid })
	if start < 0 || len(cells)-start <= b.rsiPeriod {
		return out
	}

	series := make([]float64, 0, len(cells)-start)
	for _, c := range cells[start:] {
		series = append(series, c.close.Decimal.InexactFloat64())
	}

	values := talib.Rsi(series, b.rsiPeriod)
	for i := b.rsiPeriod; i < len(values); i++ {
		v := values[i]
		out[start+i] = &v
	}
	return out
}

func sentimentFor(index map[sentiment.Key]sentiment.DailyAggregate, d civil.Date, t string) sentiment.DailyAggregate {
	a, ok := index[sentiment.Key{Date: d, Ticker: t}]
	if !ok {
		a = sentiment.DailyAggregate{Date: d, Ticker: t, TickerConsensusLabel: sentiment.ConsensusEqual}
	}
	if a.AvgNumComments == nil {
		zero := 0.0
		a.AvgNumComments = &zero
	}
	return a
}

func generalFor(index map[civil.Date]sentiment.GeneralSentiment, d civil.Date) sentiment.GeneralSentiment {
	g, ok := index[d]
	if !ok {
		return sentiment.GeneralSentiment{Date: d, GeneralConsensusLabel: sentiment.ConsensusEqual}
	}
	return g
}
