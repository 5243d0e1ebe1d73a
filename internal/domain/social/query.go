package social

import (
	"context"
	"time"
)

// Sort orders
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// CursorCreatedUTC is the only cursor field the archive sorts on
const CursorCreatedUTC = "created_utc"

// Query is one search request against the archive source.
// After is the pagination cursor; Before is the caller supplied upper bound.
type Query struct {
	Subreddit string
	After     time.Time
	Before    time.Time // zero means unbounded
	Limit     int       // zero means "auto" (source maximum)
	Sort      string
	SortType  string
	Author    string
	LinkID    string
}

// Source is the archive search API
type Source interface {
	SearchPosts(ctx context.Context, q Query) ([]Post, error)
	SearchComments(ctx context.Context, q Query) ([]Comment, error)
}
