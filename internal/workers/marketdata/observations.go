// Package marketdata holds the stage that downloads daily market bars for
// the tickers the discussion mentions most.
package marketdata

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dustin/go-humanize"

	"wsbpanel/internal/domain/market_data"
	"wsbpanel/internal/domain/sentiment"
	"wsbpanel/internal/workers"
	"wsbpanel/pkg/errors"
)

// StageMarket is the stage name as accepted by PIPELINE_STAGES
const StageMarket = "market"

// ObservationStore reads the mention summary and writes market observations
type ObservationStore interface {
	ReadMentionSummary() ([]sentiment.MentionSummary, error)
	WriteObservations(rows []market_data.Observation) error
}

// ObservationsConfig selects tickers and the date range
type ObservationsConfig struct {
	Start      civil.Date
	End        civil.Date // inclusive
	ChunkSize  int
	Tickers    []string // explicit list; empty means the TopTickers most mentioned
	TopTickers int
}

// ObservationsStage downloads daily close and volume per ticker, chunk by
// chunk, and writes the observations dataset. A ticker whose request fails
// is skipped and reported; the others are still written. A rate limited
// response ends the download and keeps what was fetched.
type ObservationsStage struct {
	*workers.BaseWorker
	provider market_data.Provider
	store    ObservationStore
	repo     market_data.Repository
	runID    string
	cfg      ObservationsConfig
}

// NewObservationsStage creates the market stage. repo may be nil.
func NewObservationsStage(
	provider market_data.Provider,
	store ObservationStore,
	repo market_data.Repository,
	runID string,
	cfg ObservationsConfig,
	enabled bool,
) *ObservationsStage {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 50
	}
	return &ObservationsStage{
		BaseWorker: workers.NewBaseWorker(StageMarket, enabled),
		provider:   provider,
		store:      store,
		repo:       repo,
		runID:      runID,
		cfg:        cfg,
	}
}

// Run implements workers.Stage
func (s *ObservationsStage) Run(ctx context.Context) error {
	tickers, err := s.tickers()
	if err != nil {
		return err
	}
	if len(tickers) == 0 {
		s.Log().Warnw("No tickers to download")
		return nil
	}

	var (
		errs     errors.MultiError
		all      []market_data.Observation
		missing  []string
		chunkNum int
	)

	for chunk := range slices.Chunk(tickers, s.cfg.ChunkSize) {
		chunkNum++
		for _, t := range chunk {
			if err := ctx.Err(); err != nil {
				errs.Add(errors.Wrap(err, "market download cancelled"))
				return s.finish(ctx, all, missing, &errs)
			}

			obs, err := s.provider.GetDaily(ctx, market_data.Query{Ticker: t, From: s.cfg.Start, To: s.cfg.End})
			if errors.Is(err, errors.ErrRateLimitExceeded) {
				s.Log().Warnw("Provider rate limit exceeded, skipping remaining tickers", "ticker", t)
				errs.Add(errors.Wrapf(err, "ticker %s", t))
				return s.finish(ctx, all, missing, &errs)
			}
			if err != nil {
				s.Log().Warnw("Missing data for ticker", "ticker", t, "error", err)
				errs.Add(errors.Wrapf(err, "ticker %s", t))
				missing = append(missing, t)
				continue
			}
			if len(obs) == 0 {
				missing = append(missing, t)
				continue
			}
			all = append(all, obs...)
		}

		s.Log().Debugw("Chunk downloaded",
			"chunk", chunkNum,
			"tickers", len(chunk),
			"observations", humanize.Comma(int64(len(all))),
		)
	}

	return s.finish(ctx, all, missing, &errs)
}

func (s *ObservationsStage) finish(ctx context.Context, all []market_data.Observation, missing []string, errs *errors.MultiError) error {
	slices.SortStableFunc(all, func(a, b market_data.Observation) int {
		if c := cmp.Compare(a.Ticker, b.Ticker); c != 0 {
			return c
		}
		return a.Date.Compare(b.Date)
	})

	if err := s.store.WriteObservations(all); err != nil {
		errs.Add(errors.Wrap(err, "write observations"))
		return errs.ToError()
	}

	if s.repo != nil && len(all) > 0 {
		if err := s.repo.InsertObservations(ctx, s.runID, all); err != nil {
			errs.Add(errors.Wrap(err, "store observations"))
		}
	}

	s.Log().Infow("Market observations downloaded",
		"observations", humanize.Comma(int64(len(all))),
		"missing", len(missing),
	)
	if len(missing) > 0 {
		s.Log().Infow("Tickers without data", "tickers", strings.Join(missing, ","))
	}
	return errs.ToError()
}

// tickers returns the explicit list, or the most mentioned tickers
func (s *ObservationsStage) tickers() ([]string, error) {
	if len(s.cfg.Tickers) > 0 {
		out := make([]string, 0, len(s.cfg.Tickers))
		seen := make(map[string]struct{}, len(s.cfg.Tickers))
		for _, t := range s.cfg.Tickers {
			t = strings.ToUpper(strings.TrimSpace(t))
			if _, ok := seen[t]; ok || t == "" {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
		return out, nil
	}

	summary, err := s.store.ReadMentionSummary()
	if err != nil {
		return nil, errors.Wrap(err, "market stage needs MARKET_TICKERS or the mention summary")
	}

	n := len(summary)
	if s.cfg.TopTickers > 0 {
		n = min(n, s.cfg.TopTickers)
	}
	out := make([]string, 0, n)
	for _, m := range summary[:n] {
		out = append(out, m.Ticker)
	}
	return out, nil
}
