package collection

import (
	"context"
	"strings"
	"sync"

	"cloud.google.com/go/civil"

	"wsbpanel/internal/domain/social"
	"wsbpanel/internal/services/timenorm"
	"wsbpanel/pkg/errors"
	"wsbpanel/pkg/logger"
)

// AnchorPageSize is the page size of the anchor search
const AnchorPageSize = 100

// AnchorCache remembers anchor lookups per civil day. An empty id records a
// day that was searched and had no anchor.
type AnchorCache interface {
	GetAnchor(ctx context.Context, day civil.Date) (id string, cached bool, err error)
	SetAnchor(ctx context.Context, day civil.Date, id string) error
}

// AnchorConfig selects which post counts as the day's anchor thread
type AnchorConfig struct {
	Subreddit   string
	Author      string
	TitleMarker string
}

// AnchorLocator finds the automated daily discussion thread for a civil day
type AnchorLocator struct {
	pager *Pager[social.Post]
	norm  *timenorm.Normalizer
	cfg   AnchorConfig
	cache AnchorCache
	log   *logger.Logger
}

// NewAnchorLocator creates a locator. A nil cache disables caching.
func NewAnchorLocator(pager *Pager[social.Post], norm *timenorm.Normalizer, cfg AnchorConfig, cache AnchorCache) *AnchorLocator {
	return &AnchorLocator{
		pager: pager,
		norm:  norm,
		cfg:   cfg,
		cache: cache,
		log:   logger.Get().With("component", "anchor_locator"),
	}
}

// Locate returns the id of the first post of the day, in ascending creation
// order, whose lowercased title contains the marker. ok is false when the
// day has no anchor.
func (l *AnchorLocator) Locate(ctx context.Context, day civil.Date) (string, bool, error) {
	if l.cache != nil {
		id, cached, err := l.cache.GetAnchor(ctx, day)
		if err != nil {
			l.log.Warnw("Anchor cache read failed", "day", day.String(), "error", err)
		} else if cached {
			return id, id != "", nil
		}
	}

	start, end := l.norm.DayWindow(day)
	q := social.Query{
		Subreddit: l.cfg.Subreddit,
		After:     start,
		Before:    end,
		Limit:     AnchorPageSize,
		Sort:      social.SortAsc,
		SortType:  social.CursorCreatedUTC,
		Author:    l.cfg.Author,
	}
	marker := strings.ToLower(l.cfg.TitleMarker)

	id := ""
	for post, err := range l.pager.All(ctx, q) {
		if err != nil {
			return "", false, errors.Wrapf(err, "locate anchor for %s", day)
		}
		if strings.Contains(strings.ToLower(post.Title), marker) {
			id = post.ID
			break
		}
	}

	if id == "" {
		l.log.Infow("No anchor thread for day", "day", day.String())
	}

	if l.cache != nil {
		if err := l.cache.SetAnchor(ctx, day, id); err != nil {
			l.log.Warnw("Anchor cache write failed", "day", day.String(), "error", err)
		}
	}
	return id, id != "", nil
}

// MemoryAnchorCache is a process local AnchorCache
type MemoryAnchorCache struct {
	mu      sync.RWMutex
	anchors map[civil.Date]string
}

// NewMemoryAnchorCache creates an empty cache
func NewMemoryAnchorCache() *MemoryAnchorCache {
	return &MemoryAnchorCache{anchors: make(map[civil.Date]string)}
}

// GetAnchor implements AnchorCache
func (c *MemoryAnchorCache) GetAnchor(_ context.Context, day civil.Date) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.anchors[day]
	return id, ok, nil
}

// SetAnchor implements AnchorCache
func (c *MemoryAnchorCache) SetAnchor(_ context.Context, day civil.Date, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anchors[day] = id
	return nil
}
