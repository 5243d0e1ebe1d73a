package arcticshift

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsbpanel/internal/domain/social"
	"wsbpanel/pkg/errors"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *[]url.Values) {
	t.Helper()

	var seen []url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Query())
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client())), &seen
}

func TestSearchPosts_DecodesAndDefaults(t *testing.T) {
	client, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, postsPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"data": [
			{"id": "a1", "created_utc": 1711990000, "author": "wsbapp", "title": "Daily Discussion Thread",
			 "selftext": "", "link_flair_text": "Daily Discussion", "num_comments": 12000, "score": 150,
			 "upvote_ratio": 0.91, "removed_by_category": null},
			{"id": "a2", "created_utc": 1711990100.0, "title": "AAPL to the moon", "author": null, "score": null},
			{"created_utc": 1711990200, "title": "no id"}
		]}`))
	})

	posts, err := client.SearchPosts(context.Background(), social.Query{
		Subreddit: "wallstreetbets",
		After:     time.Date(2024, 4, 1, 4, 0, 0, 0, time.UTC),
		Sort:      social.SortAsc,
		SortType:  social.CursorCreatedUTC,
	})
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "a1", posts[0].ID)
	assert.Equal(t, int64(1711990000), posts[0].CreatedUTC)
	assert.Equal(t, 12000, posts[0].NumComments)
	assert.False(t, posts[0].Removed())

	assert.Equal(t, int64(1711990100), posts[1].CreatedUTC)
	assert.Equal(t, "", posts[1].Author)
	assert.Equal(t, 0, posts[1].Score)

	q := (*seen)[0]
	assert.Equal(t, "wallstreetbets", q.Get("subreddit"))
	assert.Equal(t, "2024-04-01 04:00:00", q.Get("after"))
	assert.Equal(t, "auto", q.Get("limit"))
	assert.Equal(t, "asc", q.Get("sort"))
	assert.Equal(t, "created_utc", q.Get("sort_type"))
	assert.False(t, q.Has("before"))
	assert.False(t, q.Has("author"))
}

func TestSearchComments_StripsLinkPrefix(t *testing.T) {
	client, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, commentsPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"data": [
			{"id": "c1", "created_utc": 1711990000, "author": "someone", "body": "buy GME", "score": 7, "link_id": "t3_a1"},
			{"id": "c2", "created_utc": "1711990001", "body": "[deleted]", "link_id": "a1"}
		]}`))
	})

	comments, err := client.SearchComments(context.Background(), social.Query{LinkID: "a1", Limit: 100})
	require.NoError(t, err)
	require.Len(t, comments, 2)

	assert.Equal(t, "a1", comments[0].LinkID)
	assert.Equal(t, 7, comments[0].Score)
	assert.Equal(t, "a1", comments[1].LinkID)
	assert.Equal(t, int64(1711990001), comments[1].CreatedUTC)

	q := (*seen)[0]
	assert.Equal(t, "a1", q.Get("link_id"))
	assert.Equal(t, "100", q.Get("limit"))
}

func TestSearch_NonOKIsTransportError(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	})

	_, err := client.SearchPosts(context.Background(), social.Query{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTransport))

	var te *errors.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusTooManyRequests, te.StatusCode)
	assert.Equal(t, postsPath, te.Endpoint)
	assert.Equal(t, "slow down", te.Body)
}

func TestSearch_EmptyData(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	})

	posts, err := client.SearchPosts(context.Background(), social.Query{})
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestSearch_BadJSON(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [`))
	})

	_, err := client.SearchComments(context.Background(), social.Query{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, errors.ErrTransport))
}
