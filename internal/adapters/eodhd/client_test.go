package eodhd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsbpanel/internal/domain/market_data"
	"wsbpanel/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("demo", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithRateLimit(0))
}

func TestGetDaily(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eod/AAPL.US", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "demo", q.Get("api_token"))
		assert.Equal(t, "json", q.Get("fmt"))
		assert.Equal(t, "2024-04-01", q.Get("from"))
		assert.Equal(t, "2024-04-03", q.Get("to"))
		assert.Equal(t, "d", q.Get("period"))
		assert.Equal(t, "a", q.Get("order"))

		_, _ = w.Write([]byte(`[
			{"date": "2024-04-01", "open": 171.19, "close": 170.03, "adjusted_close": 169.5, "volume": 46240500},
			{"date": "2024-04-02", "close": 168.84, "adjusted_close": null, "volume": null},
			{"date": "not-a-date", "close": 1}
		]`))
	})

	obs, err := client.GetDaily(context.Background(), market_data.Query{
		Ticker: "AAPL",
		From:   civil.Date{Year: 2024, Month: time.April, Day: 1},
		To:     civil.Date{Year: 2024, Month: time.April, Day: 3},
	})
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, "AAPL", obs[0].Ticker)
	assert.Equal(t, "169.5", obs[0].Close.Decimal.String())
	assert.Equal(t, "46240500", obs[0].Volume.Decimal.String())

	assert.True(t, obs[1].Close.Valid)
	assert.Equal(t, "168.84", obs[1].Close.Decimal.String())
	assert.False(t, obs[1].Volume.Valid)
}

func TestGetDaily_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("Ticker Not Found."))
	})

	_, err := client.GetDaily(context.Background(), market_data.Query{Ticker: "ZZZZ"})
	require.Error(t, err)

	var te *errors.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusNotFound, te.StatusCode)
	assert.Equal(t, "/eod/ZZZZ.US", te.Endpoint)
}

func TestSymbol(t *testing.T) {
	client := NewClient("demo")
	assert.Equal(t, "AAPL.US", client.Symbol("aapl"))
	assert.Equal(t, "BRK-B.US", client.Symbol("BRK.B"))

	client = NewClient("demo", WithExchange("LSE"))
	assert.Equal(t, "VOD.LSE", client.Symbol("VOD"))
}

func TestExchangeHolidays(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exchange-details/US", r.URL.Path)
		_, _ = w.Write([]byte(`{"Code": "US", "Timezone": "America/New_York", "ExchangeHolidays": {
			"0": {"Holiday": "Day of Mourning", "Date": "2025-01-09", "Type": "official"},
			"1": {"Holiday": "Columbus Day", "Date": "2024-10-14", "Type": "bank"},
			"2": {"Holiday": "Christmas", "Date": "2024-12-25", "Type": "official"},
			"3": {"Holiday": "Out of range", "Date": "2026-01-01", "Type": "official"}
		}}`))
	})

	days, err := client.ExchangeHolidays(context.Background(),
		civil.Date{Year: 2024, Month: time.April, Day: 1},
		civil.Date{Year: 2025, Month: time.March, Day: 31},
	)
	require.NoError(t, err)
	assert.ElementsMatch(t, []civil.Date{
		{Year: 2025, Month: time.January, Day: 9},
		{Year: 2024, Month: time.December, Day: 25},
	}, days)
}

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "/eod", endpointLabel("/eod/AAPL.US"))
	assert.Equal(t, "/exchange-details", endpointLabel("/exchange-details/US"))
	assert.Equal(t, "/eod", endpointLabel("/eod"))
}
