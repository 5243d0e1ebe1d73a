package collection

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dustin/go-humanize"

	"wsbpanel/internal/domain/social"
	"wsbpanel/internal/services/aggregation"
	"wsbpanel/internal/services/collection"
	"wsbpanel/internal/services/dedup"
	"wsbpanel/internal/services/timenorm"
	"wsbpanel/internal/workers"
	"wsbpanel/pkg/errors"
)

// SubmissionStore reads and writes the submissions dataset
type SubmissionStore interface {
	ReadSubmissions() ([]social.PostRow, error)
	WriteSubmissions(rows []social.PostRow) error
}

// SubmissionsConfig bounds the submission collection
type SubmissionsConfig struct {
	Subreddit      string
	Start          civil.Date
	End            civil.Date // exclusive
	PageDelay      time.Duration
	RequestTimeout time.Duration
}

// SubmissionsStage pages through every post of the subreddit in
// [Start, End), drops removed posts, matches tickers and writes the
// submissions dataset. With a cursor store it resumes from the last
// recorded cursor on top of the previously written dataset.
type SubmissionsStage struct {
	*workers.BaseWorker
	source  social.Source
	store   SubmissionStore
	norm    *timenorm.Normalizer
	matcher aggregation.Matcher
	cursors collection.CursorStore
	cfg     SubmissionsConfig
}

// NewSubmissionsStage creates the submissions stage. cursors may be nil.
func NewSubmissionsStage(
	source social.Source,
	store SubmissionStore,
	norm *timenorm.Normalizer,
	matcher aggregation.Matcher,
	cursors collection.CursorStore,
	cfg SubmissionsConfig,
	enabled bool,
) *SubmissionsStage {
	return &SubmissionsStage{
		BaseWorker: workers.NewBaseWorker(StageSubmissions, enabled),
		source:     source,
		store:      store,
		norm:       norm,
		matcher:    matcher,
		cursors:    cursors,
		cfg:        cfg,
	}
}

// Run collects submissions and writes the dataset. When the source fails
// mid-run the posts gathered so far are still written and the transport
// error is returned.
func (s *SubmissionsStage) Run(ctx context.Context) error {
	scope := s.scope()
	q := social.Query{
		Subreddit: s.cfg.Subreddit,
		After:     s.norm.DayStart(s.cfg.Start),
		Before:    s.norm.DayStart(s.cfg.End),
		Sort:      social.SortAsc,
		SortType:  social.CursorCreatedUTC,
	}

	posts, resumedAt, pages := s.resume(ctx, scope)
	if !resumedAt.IsZero() {
		q.After = resumedAt
	}

	pager := collection.NewPager(s.source.SearchPosts, collection.PagerConfig{
		Name:           StageSubmissions,
		Delay:          s.cfg.PageDelay,
		RequestTimeout: s.cfg.RequestTimeout,
		OnAdvance: func(cursor time.Time) {
			pages++
			s.saveCursor(ctx, scope, cursor, pages)
		},
	})

	collected, fetchErr := pager.Collect(ctx, q)
	posts = append(posts, collected.Items()...)
	posts = dedup.Unique(posts)

	rows := aggregation.ProcessPosts(s.norm, posts, s.matcher)
	if err := s.store.WriteSubmissions(rows); err != nil {
		return errors.Wrap(err, "write submissions")
	}

	s.Log().Infow("Submissions collected",
		"fetched", humanize.Comma(int64(collected.Len())),
		"unique", humanize.Comma(int64(len(posts))),
		"written", humanize.Comma(int64(len(rows))),
		"resumed", !resumedAt.IsZero(),
	)

	if fetchErr != nil {
		return errors.Wrap(fetchErr, "collect submissions (partial output written)")
	}
	return nil
}

// resume returns previously written posts and the cursor to continue from.
// Any failure falls back to a full collection.
func (s *SubmissionsStage) resume(ctx context.Context, scope string) ([]social.Post, time.Time, int) {
	if s.cursors == nil {
		return nil, time.Time{}, 0
	}

	cursor, err := s.cursors.LoadCursor(ctx, scope)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			s.Log().Warnw("Failed to load cursor, collecting from start", "scope", scope, "error", err)
		}
		return nil, time.Time{}, 0
	}

	rows, err := s.store.ReadSubmissions()
	if err != nil {
		s.Log().Warnw("Cursor found but submissions unreadable, collecting from start",
			"scope", scope,
			"error", err,
		)
		return nil, time.Time{}, 0
	}

	posts := make([]social.Post, len(rows))
	var latest int64
	for i := range rows {
		posts[i] = rows[i].Post
		latest = max(latest, rows[i].CreatedUTC)
	}
	if len(posts) == 0 {
		return nil, time.Time{}, 0
	}

	// the cursor is saved per page but the dataset only at the end of a run
	after := cursor.After
	if last := time.Unix(latest, 0).UTC(); last.Before(after) {
		after = last
	}

	s.Log().Infow("Resuming submissions",
		"cursor", after,
		"pages", cursor.Pages,
		"existing", humanize.Comma(int64(len(posts))),
	)
	return posts, after, cursor.Pages
}

func (s *SubmissionsStage) saveCursor(ctx context.Context, scope string, after time.Time, pages int) {
	if s.cursors == nil {
		return
	}
	cursor := collection.Cursor{After: after, Pages: pages, UpdatedAt: time.Now().UTC()}
	if err := s.cursors.SaveCursor(ctx, scope, cursor); err != nil {
		s.Log().Warnw("Failed to save cursor", "scope", scope, "error", err)
	}
}

func (s *SubmissionsStage) scope() string {
	return fmt.Sprintf("%s:%s:%s", StageSubmissions, s.cfg.Start, s.cfg.End)
}
