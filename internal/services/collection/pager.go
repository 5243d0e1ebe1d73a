package collection

import (
	"context"
	"iter"
	"slices"
	"time"

	"wsbpanel/internal/adapters/ratelimit"
	"wsbpanel/internal/domain/social"
	"wsbpanel/internal/metrics"
	"wsbpanel/pkg/errors"
	"wsbpanel/pkg/logger"
)

// Record is anything the pager can advance a cursor over
type Record interface {
	CreatedAt() int64
}

// FetchFunc issues one page request
type FetchFunc[T Record] func(ctx context.Context, q social.Query) ([]T, error)

// PagerConfig controls termination and pacing
type PagerConfig struct {
	Name string

	// Delay is the minimum gap between two requests
	Delay time.Duration

	// Limiter, when set, replaces the Delay limiter so several pagers share one pace
	Limiter *ratelimit.Limiter

	// RequestTimeout bounds a single page request (0 = transport default)
	RequestTimeout time.Duration

	// ShortPageStop ends the sequence on a page shorter than FullPageSize.
	// This is a heuristic: if the source silently caps page size below
	// FullPageSize the sequence ends after the first page.
	ShortPageStop bool
	FullPageSize  int

	// HardCap stops after the page that brings the total to HardCap or more (0 = no cap)
	HardCap int

	// OnAdvance is called with the new cursor after every page
	OnAdvance func(cursor time.Time)
}

// Pager walks a time ordered search API page by page
type Pager[T Record] struct {
	fetch   FetchFunc[T]
	cfg     PagerConfig
	limiter *ratelimit.Limiter
	log     *logger.Logger
}

// NewPager creates a pager around a fetch function
func NewPager[T Record](fetch FetchFunc[T], cfg PagerConfig) *Pager[T] {
	if cfg.Name == "" {
		cfg.Name = "pager"
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.NewIntervalLimiter(cfg.Name, cfg.Delay)
	}
	return &Pager[T]{
		fetch:   fetch,
		cfg:     cfg,
		limiter: limiter,
		log:     logger.Get().With("component", "pager", "pager", cfg.Name),
	}
}

// All lazily yields records starting at q.After. A transport failure is
// yielded once as the error of the final pair; records yielded before it
// remain valid. The sequence is not restartable: resume by issuing a new
// query from a persisted cursor.
func (p *Pager[T]) All(ctx context.Context, q social.Query) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		total, pages := 0, 0

		for {
			if err := p.limiter.Wait(ctx); err != nil {
				yield(zero, err)
				return
			}

			page, err := p.fetchPage(ctx, q)
			if err != nil {
				p.log.Warnw("Page request failed, aborting sequence",
					"pages", pages,
					"records", total,
					"cursor", q.After,
					"error", err,
				)
				yield(zero, err)
				return
			}
			pages++

			if len(page) == 0 {
				p.log.Debugw("Empty page, sequence complete", "pages", pages, "records", total)
				return
			}

			for _, item := range page {
				if !yield(item, nil) {
					return
				}
			}
			total += len(page)

			if p.cfg.HardCap > 0 && total >= p.cfg.HardCap {
				p.log.Infow("Hard cap reached", "cap", p.cfg.HardCap, "records", total)
				return
			}

			if p.cfg.ShortPageStop && len(page) < p.cfg.FullPageSize {
				p.log.Debugw("Short page, sequence complete", "page_size", len(page), "records", total)
				return
			}

			next := time.Unix(page[len(page)-1].CreatedAt(), 0).UTC()
			if !next.After(q.After) {
				p.log.Warnw("Cursor did not advance, stopping", "cursor", q.After, "page_size", len(page))
				return
			}
			q.After = next
			if p.cfg.OnAdvance != nil {
				p.cfg.OnAdvance(next)
			}

			if !q.Before.IsZero() && !next.Before(q.Before) {
				p.log.Debugw("Cursor reached upper bound", "cursor", next, "before", q.Before, "records", total)
				return
			}
		}
	}
}

// Collect drains All into a finished collection. On a transport error the
// records gathered so far are returned together with the error.
func (p *Pager[T]) Collect(ctx context.Context, q social.Query) (Collection[T], error) {
	var acc []T
	for item, err := range p.All(ctx, q) {
		if err != nil {
			return NewCollection(acc), err
		}
		acc = append(acc, item)
	}
	return NewCollection(acc), nil
}

func (p *Pager[T]) fetchPage(ctx context.Context, q social.Query) ([]T, error) {
	if p.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	page, err := p.fetch(ctx, q)
	metrics.RecordSourcePage(p.cfg.Name, len(page), time.Since(start), err)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: fetch page after %s", p.cfg.Name, q.After.Format(time.RFC3339))
	}
	return page, nil
}

// Collection is the finished, read-only result of a pagination run
type Collection[T any] struct {
	items []T
}

// NewCollection wraps already collected items
func NewCollection[T any](items []T) Collection[T] {
	return Collection[T]{items: slices.Clone(items)}
}

// Len returns the number of records
func (c Collection[T]) Len() int {
	return len(c.items)
}

// Items returns a copy of the records in arrival order
func (c Collection[T]) Items() []T {
	return slices.Clone(c.items)
}

// All iterates the records in arrival order without copying
func (c Collection[T]) All() iter.Seq[T] {
	return slices.Values(c.items)
}
