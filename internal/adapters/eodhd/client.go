package eodhd

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"wsbpanel/internal/adapters/ratelimit"
	"wsbpanel/internal/domain/market_data"
	"wsbpanel/internal/metrics"
	"wsbpanel/pkg/errors"
	"wsbpanel/pkg/logger"
)

const (
	// DefaultBaseURL is the base URL for the EODHD API
	DefaultBaseURL = "https://eodhd.com/api"

	// DefaultTimeout is the default HTTP timeout
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second)
	DefaultRateLimit = 10

	// DefaultExchange is the suffix EODHD uses for US listings
	DefaultExchange = "US"
)

// Compile-time check
var _ market_data.Provider = (*Client)(nil)

// Client is an EODHD API client
type Client struct {
	baseURL    string
	apiKey     string
	exchange   string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	log        *logger.Logger
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit sets a custom rate limit; zero disables it
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = ratelimit.NewLimiter("eodhd", requestsPerSecond)
	}
}

// WithExchange sets the exchange suffix appended to tickers
func WithExchange(exchange string) ClientOption {
	return func(c *Client) {
		c.exchange = exchange
	}
}

// NewClient creates a new EODHD API client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		exchange:   DefaultExchange,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    ratelimit.NewLimiter("eodhd", DefaultRateLimit),
		log:        logger.Get().With("component", "eodhd"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Symbol returns the EODHD symbol of a ticker, e.g. "AAPL.US".
// Class shares use a dash on EODHD ("BRK.B" becomes "BRK-B.US").
func (c *Client) Symbol(ticker string) string {
	return strings.ReplaceAll(strings.ToUpper(ticker), ".", "-") + "." + c.exchange
}

// GetDaily returns the daily bars of one ticker between From and To inclusive.
// Dates the exchange did not trade are simply absent.
func (c *Client) GetDaily(ctx context.Context, query market_data.Query) ([]market_data.Observation, error) {
	params := url.Values{}
	params.Set("from", query.From.String())
	params.Set("to", query.To.String())
	params.Set("period", "d")
	params.Set("order", "a")

	var bars []eodBar
	if err := c.get(ctx, "/eod/"+c.Symbol(query.Ticker), params, &bars); err != nil {
		return nil, err
	}

	observations := make([]market_data.Observation, 0, len(bars))
	for _, bar := range bars {
		date, err := civil.ParseDate(bar.Date)
		if err != nil {
			c.log.Warnw("Skipping bar with malformed date", "ticker", query.Ticker, "date", bar.Date)
			continue
		}
		observations = append(observations, market_data.Observation{
			Date:   date,
			Ticker: query.Ticker,
			Close:  bar.closeValue(),
			Volume: bar.Volume,
		})
	}

	return observations, nil
}

// ExchangeHolidays returns the official closures EODHD lists for the
// exchange between from and to inclusive.
func (c *Client) ExchangeHolidays(ctx context.Context, from, to civil.Date) ([]civil.Date, error) {
	params := url.Values{}
	params.Set("from", from.String())
	params.Set("to", to.String())

	var details exchangeDetails
	if err := c.get(ctx, "/exchange-details/"+c.exchange, params, &details); err != nil {
		return nil, err
	}

	var days []civil.Date
	for _, h := range details.Holidays {
		if h.Type != "" && !strings.EqualFold(h.Type, "official") {
			continue
		}
		d, err := civil.ParseDate(h.Date)
		if err != nil {
			c.log.Warnw("Skipping holiday with malformed date", "holiday", h.Holiday, "date", h.Date)
			continue
		}
		if d.Before(from) || d.After(to) {
			continue
		}
		days = append(days, d)
	}

	return days, nil
}

// get performs a GET request to the API
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) (err error) {
	start := time.Now()
	defer func() { metrics.RecordMarketAPICall(endpointLabel(path), time.Since(start), err) }()

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	c.log.Debugw("EODHD API request", "path", path)

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

// endpointLabel keeps metric cardinality independent of the symbol
func endpointLabel(path string) string {
	if i := strings.Index(path[1:], "/"); i >= 0 {
		return path[:i+1]
	}
	return path
}
