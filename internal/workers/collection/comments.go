package collection

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dustin/go-humanize"

	"wsbpanel/internal/adapters/ratelimit"
	"wsbpanel/internal/domain/sentiment"
	"wsbpanel/internal/domain/social"
	"wsbpanel/internal/services/aggregation"
	"wsbpanel/internal/services/collection"
	"wsbpanel/internal/services/dedup"
	"wsbpanel/internal/services/timenorm"
	"wsbpanel/internal/workers"
	"wsbpanel/pkg/errors"
)

// CommentStore reads the submissions and writes the comment and mention datasets
type CommentStore interface {
	ReadSubmissions() ([]social.PostRow, error)
	WriteComments(rows []social.CommentRow) error
	WriteMentionSummary(rows []sentiment.MentionSummary) error
	WriteDailyMentions(rows []sentiment.DailyMentionCount) error
}

// Matcher finds tickers and exposes the universe symbols
type Matcher interface {
	aggregation.Matcher
	Symbols() map[string]struct{}
}

// CommentsConfig bounds the comment collection
type CommentsConfig struct {
	Start          civil.Date
	End            civil.Date // exclusive
	PageDelay      time.Duration
	RequestTimeout time.Duration
	PageSize       int // a shorter page ends a thread
	MaxComments    int // per thread
	TopPerParent   int
	Anchor         collection.AnchorConfig
}

// CommentsStage collects the comments of every day's anchor thread,
// reduces them to the top ranked ones per thread, joins them to the
// submissions and writes the comment and mention datasets.
type CommentsStage struct {
	*workers.BaseWorker
	source  social.Source
	store   CommentStore
	norm    *timenorm.Normalizer
	matcher Matcher
	anchors collection.AnchorCache
	cursors collection.CursorStore
	cfg     CommentsConfig
}

// NewCommentsStage creates the comments stage. anchors and cursors may be nil.
func NewCommentsStage(
	source social.Source,
	store CommentStore,
	norm *timenorm.Normalizer,
	matcher Matcher,
	anchors collection.AnchorCache,
	cursors collection.CursorStore,
	cfg CommentsConfig,
	enabled bool,
) *CommentsStage {
	if cfg.PageSize <= 0 {
		cfg.PageSize = collection.AnchorPageSize
	}
	return &CommentsStage{
		BaseWorker: workers.NewBaseWorker(StageComments, enabled),
		source:     source,
		store:      store,
		norm:       norm,
		matcher:    matcher,
		anchors:    anchors,
		cursors:    cursors,
		cfg:        cfg,
	}
}

// Run walks the days of [Start, End). A failure on one day is recorded and
// the next day is tried; everything collected is written either way.
func (s *CommentsStage) Run(ctx context.Context) error {
	postRows, err := s.store.ReadSubmissions()
	if err != nil {
		return errors.Wrap(err, "comments need the submissions dataset")
	}

	// anchor and comment requests go to the same source and share one pace
	limiter := ratelimit.NewIntervalLimiter(StageComments, s.cfg.PageDelay)
	anchorPager := collection.NewPager(s.source.SearchPosts, collection.PagerConfig{
		Name:           "anchor",
		Limiter:        limiter,
		RequestTimeout: s.cfg.RequestTimeout,
	})
	locator := collection.NewAnchorLocator(anchorPager, s.norm, s.cfg.Anchor, s.anchors)

	var (
		errs     errors.MultiError
		all      []social.Comment
		days     int
		threads  int
		noAnchor int
	)

	for day := range timenorm.Days(s.cfg.Start, s.cfg.End) {
		if err := ctx.Err(); err != nil {
			errs.Add(errors.Wrapf(err, "stopped before %s", day))
			break
		}
		days++

		id, ok, err := locator.Locate(ctx, day)
		if err != nil {
			s.Log().Warnw("Anchor lookup failed", "day", day.String(), "error", err)
			errs.Add(err)
			continue
		}
		if !ok {
			noAnchor++
			continue
		}

		comments, err := s.collectThread(ctx, limiter, id)
		all = append(all, comments...)
		threads++
		if err != nil {
			s.Log().Warnw("Thread collection aborted", "day", day.String(), "post_id", id, "error", err)
			errs.Add(err)
		}
	}

	reduced := dedup.Reduce(dedup.NewReducer(s.cfg.TopPerParent), all)

	posts := make([]social.Post, len(postRows))
	for i := range postRows {
		posts[i] = postRows[i].Post
	}
	rows, stats := aggregation.JoinComments(posts, reduced, s.matcher)

	if err := s.store.WriteComments(rows); err != nil {
		errs.Add(errors.Wrap(err, "write comments"))
		return errs.ToError()
	}
	if err := s.store.WriteMentionSummary(aggregation.MentionSummary(postRows, rows)); err != nil {
		errs.Add(errors.Wrap(err, "write mention summary"))
	}
	daily := aggregation.DailyMentionCounts(s.norm, postRows, rows, s.matcher.Symbols())
	if err := s.store.WriteDailyMentions(daily); err != nil {
		errs.Add(errors.Wrap(err, "write daily mentions"))
	}

	s.Log().Infow("Comments collected",
		"days", days,
		"threads", threads,
		"days_without_anchor", noAnchor,
		"fetched", humanize.Comma(int64(len(all))),
		"kept", humanize.Comma(int64(len(reduced))),
		"joined", humanize.Comma(int64(stats.Joined)),
		"dropped", humanize.Comma(int64(stats.Dropped)),
	)
	return errs.ToError()
}

// collectThread pages through one thread's comments in ascending order,
// recording the cursor after every page
func (s *CommentsStage) collectThread(ctx context.Context, limiter *ratelimit.Limiter, postID string) ([]social.Comment, error) {
	scope := StageComments + ":" + postID
	pages := 0

	pager := collection.NewPager(s.source.SearchComments, collection.PagerConfig{
		Name:           StageComments,
		Limiter:        limiter,
		RequestTimeout: s.cfg.RequestTimeout,
		ShortPageStop:  true,
		FullPageSize:   s.cfg.PageSize,
		HardCap:        s.cfg.MaxComments,
		OnAdvance: func(cursor time.Time) {
			pages++
			if s.cursors == nil {
				return
			}
			c := collection.Cursor{After: cursor, Pages: pages, UpdatedAt: time.Now().UTC()}
			if err := s.cursors.SaveCursor(ctx, scope, c); err != nil {
				s.Log().Warnw("Failed to save cursor", "scope", scope, "error", err)
			}
		},
	})

	collected, err := pager.Collect(ctx, social.Query{
		LinkID:   social.PostLinkPrefix + postID,
		Limit:    s.cfg.PageSize,
		Sort:     social.SortAsc,
		SortType: social.CursorCreatedUTC,
	})
	return collected.Items(), err
}
