package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/redis/go-redis/v9"

	"wsbpanel/internal/services/collection"
	"wsbpanel/pkg/errors"
)

// Compile-time checks
var (
	_ collection.AnchorCache = (*CheckpointRepository)(nil)
	_ collection.CursorStore = (*CheckpointRepository)(nil)
)

// DefaultCheckpointTTL bounds how long anchors and cursors are remembered
const DefaultCheckpointTTL = 30 * 24 * time.Hour

// CheckpointRepository stores collection progress in Redis: the anchor post
// of every civil day and the pagination cursor of every collection scope.
type CheckpointRepository struct {
	client    *redis.Client
	subreddit string
	ttl       time.Duration
}

// NewCheckpointRepository creates a new checkpoint repository
func NewCheckpointRepository(client *redis.Client, subreddit string, ttl time.Duration) *CheckpointRepository {
	if ttl <= 0 {
		ttl = DefaultCheckpointTTL
	}
	return &CheckpointRepository{
		client:    client,
		subreddit: subreddit,
		ttl:       ttl,
	}
}

// GetAnchor returns the cached anchor id of day; an empty id with cached=true is a known miss
func (r *CheckpointRepository) GetAnchor(ctx context.Context, day civil.Date) (string, bool, error) {
	id, err := r.client.Get(ctx, r.anchorKey(day)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to get anchor from redis: day=%s", day)
	}
	return id, true, nil
}

// SetAnchor remembers the anchor id (or a miss) of day
func (r *CheckpointRepository) SetAnchor(ctx context.Context, day civil.Date, id string) error {
	if err := r.client.Set(ctx, r.anchorKey(day), id, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to save anchor to redis: day=%s", day)
	}
	return nil
}

// SaveCursor records how far the pager got within scope
func (r *CheckpointRepository) SaveCursor(ctx context.Context, scope string, cursor collection.Cursor) error {
	data, err := json.Marshal(cursor)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal cursor: scope=%s", scope)
	}

	if err := r.client.Set(ctx, r.cursorKey(scope), data, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to save cursor to redis: scope=%s", scope)
	}
	return nil
}

// LoadCursor returns the last recorded cursor of scope
func (r *CheckpointRepository) LoadCursor(ctx context.Context, scope string) (*collection.Cursor, error) {
	data, err := r.client.Get(ctx, r.cursorKey(scope)).Bytes()
	if err == redis.Nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "cursor not found: scope=%s", scope)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get cursor from redis: scope=%s", scope)
	}

	var cursor collection.Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal cursor: scope=%s", scope)
	}
	return &cursor, nil
}

func (r *CheckpointRepository) anchorKey(day civil.Date) string {
	return fmt.Sprintf("wsbpanel:anchor:%s:%s", r.subreddit, day)
}

func (r *CheckpointRepository) cursorKey(scope string) string {
	return fmt.Sprintf("wsbpanel:cursor:%s:%s", r.subreddit, scope)
}
