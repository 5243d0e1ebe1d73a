package arcticshift

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"wsbpanel/internal/domain/social"
	"wsbpanel/pkg/errors"
	"wsbpanel/pkg/logger"
)

const (
	// DefaultBaseURL is the public Arctic Shift API
	DefaultBaseURL = "https://arctic-shift.photon-reddit.com"

	// DefaultTimeout is the default HTTP timeout
	DefaultTimeout = 30 * time.Second

	postsPath    = "/api/posts/search"
	commentsPath = "/api/comments/search"

	// the API accepts "YYYY-MM-DD HH:MM:SS" in UTC as well as epoch seconds
	timestampLayout = "2006-01-02 15:04:05"
)

// Compile-time check
var _ social.Source = (*Client)(nil)

// Client is an Arctic Shift search API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new Arctic Shift client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        logger.Get().With("component", "arcticshift"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchPosts returns one page of submissions matching q
func (c *Client) SearchPosts(ctx context.Context, q social.Query) ([]social.Post, error) {
	var resp searchResponse[rawPost]
	if err := c.get(ctx, postsPath, queryValues(q), &resp); err != nil {
		return nil, err
	}

	posts := make([]social.Post, 0, len(resp.Data))
	for _, raw := range resp.Data {
		post, err := raw.toPost()
		if err != nil {
			c.log.Warnw("Skipping malformed post", "id", raw.ID, "error", err)
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// SearchComments returns one page of comments matching q
func (c *Client) SearchComments(ctx context.Context, q social.Query) ([]social.Comment, error) {
	var resp searchResponse[rawComment]
	if err := c.get(ctx, commentsPath, queryValues(q), &resp); err != nil {
		return nil, err
	}

	comments := make([]social.Comment, 0, len(resp.Data))
	for _, raw := range resp.Data {
		comment, err := raw.toComment()
		if err != nil {
			c.log.Warnw("Skipping malformed comment", "id", raw.ID, "error", err)
			continue
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

// get performs a GET request and decodes the JSON body into result
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debugw("Arctic Shift request", "path", path, "params", params.Encode())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to execute request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.NewTransportError(path, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

// queryValues maps a query onto API parameters; zero fields are omitted
func queryValues(q social.Query) url.Values {
	v := url.Values{}
	if q.Subreddit != "" {
		v.Set("subreddit", q.Subreddit)
	}
	if !q.After.IsZero() {
		v.Set("after", q.After.UTC().Format(timestampLayout))
	}
	if !q.Before.IsZero() {
		v.Set("before", q.Before.UTC().Format(timestampLayout))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	} else {
		v.Set("limit", "auto")
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.SortType != "" {
		v.Set("sort_type", q.SortType)
	}
	if q.Author != "" {
		v.Set("author", q.Author)
	}
	if q.LinkID != "" {
		v.Set("link_id", q.LinkID)
	}
	return v
}
