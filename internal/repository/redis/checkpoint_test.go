package redis

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsbpanel/internal/services/collection"
	"wsbpanel/internal/testsupport"
	"wsbpanel/pkg/errors"
)

func TestCheckpointRepository_Anchors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	h := testsupport.NewTestRedis(t)
	repo := NewCheckpointRepository(h.Raw(), h.Namespace(), time.Minute)
	ctx := context.Background()
	day := civil.Date{Year: 2024, Month: time.April, Day: 1}

	_, cached, err := repo.GetAnchor(ctx, day)
	require.NoError(t, err)
	assert.False(t, cached)

	require.NoError(t, repo.SetAnchor(ctx, day, "1btmzvn"))
	id, cached, err := repo.GetAnchor(ctx, day)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "1btmzvn", id)

	// a known miss is cached as an empty id
	miss := day.AddDays(1)
	require.NoError(t, repo.SetAnchor(ctx, miss, ""))
	id, cached, err = repo.GetAnchor(ctx, miss)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Empty(t, id)
}

func TestCheckpointRepository_Cursors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	h := testsupport.NewTestRedis(t)
	repo := NewCheckpointRepository(h.Raw(), h.Namespace(), 0)
	ctx := context.Background()

	_, err := repo.LoadCursor(ctx, "comments:abc")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	want := collection.Cursor{After: time.Unix(1711990000, 0).UTC(), Pages: 3, UpdatedAt: time.Unix(1711999999, 0).UTC()}
	require.NoError(t, repo.SaveCursor(ctx, "comments:abc", want))

	got, err := repo.LoadCursor(ctx, "comments:abc")
	require.NoError(t, err)
	assert.True(t, want.After.Equal(got.After))
	assert.Equal(t, 3, got.Pages)
}
