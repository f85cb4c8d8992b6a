package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/wizard/internal/ratelimit"
)

var fixedNow = time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC)

func jsonServer(t *testing.T, status int, body string, check func(r *http.Request)) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func requireProviderError(t *testing.T, err error, kind ErrorKind, msg string) {
	t.Helper()
	require.Error(t, err)
	var pe *ProviderError
	require.True(t, errors.As(err, &pe), "expected *ProviderError, got %T", err)
	assert.Equal(t, kind, pe.Kind)
	if msg != "" {
		assert.Equal(t, msg, pe.Error())
	}
}

func TestBrapiFetchSuccess(t *testing.T) {
	server, _ := jsonServer(t, http.StatusOK,
		`{"results":[{"symbol":"VALE3","regularMarketPrice":68.42}]}`,
		func(r *http.Request) {
			assert.Equal(t, "/quote/VALE3", r.URL.Path)
			assert.Equal(t, "demo", r.URL.Query().Get("token"))
		})

	client := NewBrapiClient(NewHTTPClient(server.URL, 0, 0), ratelimit.Unlimited(), "").
		WithClock(func() time.Time { return fixedNow })

	q, err := client.Fetch(context.Background(), "VALE3")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(decimal.RequireFromString("68.42")), "price = %s", q.Price)
	assert.Equal(t, "Brapi", q.Source)
	assert.Equal(t, fixedNow, q.Timestamp)
}

func TestBrapiFetchFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   ErrorKind
		msg    string
	}{
		{"not found", http.StatusNotFound, `{"error":true}`, KindHTTP, "Brapi API error: 404"},
		{"empty results", http.StatusOK, `{"results":[]}`, KindMalformed, "No price data available for XXXX3"},
		{"missing field", http.StatusOK, `{"results":[{"symbol":"XXXX3"}]}`, KindMalformed, "No price data available for XXXX3"},
		{"string price", http.StatusOK, `{"results":[{"regularMarketPrice":"10.5"}]}`, KindMalformed, "No price data available for XXXX3"},
		{"not json", http.StatusOK, `oops`, KindMalformed, "No price data available for XXXX3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := jsonServer(t, tt.status, tt.body, nil)
			client := NewBrapiClient(NewHTTPClient(server.URL, 0, 0), ratelimit.Unlimited(), "tok")

			_, err := client.Fetch(context.Background(), "XXXX3")
			requireProviderError(t, err, tt.kind, tt.msg)
		})
	}
}

func TestBrapiFetchNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewBrapiClient(NewHTTPClient(url, 0, 0), ratelimit.Unlimited(), "")
	_, err := client.Fetch(context.Background(), "PETR4")
	requireProviderError(t, err, KindNetwork, "")
}

func TestAlphaVantageMissingKeyMakesNoCall(t *testing.T) {
	server, calls := jsonServer(t, http.StatusOK, `{}`, nil)
	// an hour-long interval would block if the limiter were consulted twice
	limiter := ratelimit.New(map[ratelimit.Source]time.Duration{ratelimit.SourceAlphaVantage: time.Hour})
	client := NewAlphaVantageClient(NewHTTPClient(server.URL, 0, 0), limiter)

	for range 2 {
		_, err := client.Fetch(context.Background(), "AAPL", "")
		requireProviderError(t, err, KindConfigMissing,
			"Alpha Vantage API key not configured. Please add it in Settings.")
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestAlphaVantageRetriesWaitForSlot(t *testing.T) {
	const interval = 100 * time.Millisecond
	var (
		mu       sync.Mutex
		received []time.Time
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		received = append(received, time.Now())
		n := len(received)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"Global Quote":{"05. price":"101.50"}}`))
	}))
	t.Cleanup(server.Close)

	limiter := ratelimit.New(map[ratelimit.Source]time.Duration{ratelimit.SourceAlphaVantage: interval})
	client := NewAlphaVantageClient(NewHTTPClient(server.URL, 2, time.Millisecond), limiter)

	q, err := client.Fetch(context.Background(), "MSFT", "key")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(decimal.RequireFromString("101.50")))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 3)
	for i := 1; i < len(received); i++ {
		gap := received[i].Sub(received[i-1])
		assert.GreaterOrEqual(t, gap, interval*8/10, "attempt %d sent %v after the previous one", i+1, gap)
	}
}

func TestRetryBlockedByRateLimitIsNotSent(t *testing.T) {
	server, calls := jsonServer(t, http.StatusBadGateway, `{}`, nil)
	limiter := ratelimit.New(map[ratelimit.Source]time.Duration{ratelimit.SourceAlphaVantage: time.Hour})
	client := NewAlphaVantageClient(NewHTTPClient(server.URL, 3, time.Millisecond), limiter)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := client.Fetch(ctx, "MSFT", "key")
	requireProviderError(t, err, KindNetwork, "")
	assert.Contains(t, err.Error(), "waiting for rate limit")
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestAlphaVantageFetchSuccess(t *testing.T) {
	server, _ := jsonServer(t, http.StatusOK,
		`{"Global Quote":{"01. symbol":"AAPL","05. price":"178.2300"}}`,
		func(r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "GLOBAL_QUOTE", q.Get("function"))
			assert.Equal(t, "AAPL", q.Get("symbol"))
			assert.Equal(t, "secret", q.Get("apikey"))
		})

	client := NewAlphaVantageClient(NewHTTPClient(server.URL, 0, 0), ratelimit.Unlimited()).
		WithClock(func() time.Time { return fixedNow })

	q, err := client.Fetch(context.Background(), "AAPL", "secret")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(decimal.RequireFromString("178.23")))
	assert.Equal(t, "Alpha Vantage", q.Source)
	assert.Equal(t, fixedNow, q.Timestamp)
}

func TestAlphaVantageFetchFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   ErrorKind
		msg    string
	}{
		{"server error", http.StatusServiceUnavailable, `{}`, KindHTTP, "Alpha Vantage API error: 503"},
		{"note", http.StatusOK, `{"Note":"Thank you for using Alpha Vantage!"}`, KindRateLimited,
			"Alpha Vantage rate limit exceeded. Please wait a minute."},
		{"information", http.StatusOK, `{"Information":"daily limit"}`, KindRateLimited,
			"Alpha Vantage rate limit exceeded. Please wait a minute."},
		{"note wins over error", http.StatusOK, `{"Note":"slow down","Error Message":"bad"}`, KindRateLimited,
			"Alpha Vantage rate limit exceeded. Please wait a minute."},
		{"error message", http.StatusOK, `{"Error Message":"Invalid API call."}`, KindHTTP,
			"Alpha Vantage error: Invalid API call."},
		{"empty quote", http.StatusOK, `{"Global Quote":{}}`, KindMalformed, "No price data available for ZZZZ"},
		{"unparsable price", http.StatusOK, `{"Global Quote":{"05. price":"n/a"}}`, KindMalformed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := jsonServer(t, tt.status, tt.body, nil)
			client := NewAlphaVantageClient(NewHTTPClient(server.URL, 0, 0), ratelimit.Unlimited())

			_, err := client.Fetch(context.Background(), "ZZZZ", "key")
			requireProviderError(t, err, tt.kind, tt.msg)
		})
	}
}

func TestCoinGeckoUnknownTickerMakesNoCall(t *testing.T) {
	server, calls := jsonServer(t, http.StatusOK, `{}`, nil)
	client := NewCoinGeckoClient(NewHTTPClient(server.URL, 0, 0), ratelimit.Unlimited(), "")

	_, err := client.Fetch(context.Background(), "DOGE")
	requireProviderError(t, err, KindUnknownSymbol, "Unknown cryptocurrency ticker: DOGE. Please add it manually.")
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestCoinGeckoFetchSuccess(t *testing.T) {
	server, _ := jsonServer(t, http.StatusOK, `{"bitcoin":{"brl":350000.5}}`,
		func(r *http.Request) {
			assert.Equal(t, "/simple/price", r.URL.Path)
			assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
			assert.Equal(t, "brl", r.URL.Query().Get("vs_currencies"))
		})

	client := NewCoinGeckoClient(NewHTTPClient(server.URL, 0, 0), ratelimit.Unlimited(), "").
		WithClock(func() time.Time { return fixedNow })

	q, err := client.Fetch(context.Background(), "btc")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(decimal.RequireFromString("350000.5")))
	assert.Equal(t, "CoinGecko", q.Source)
	assert.Equal(t, fixedNow, q.Timestamp)
}

func TestCoinGeckoFetchFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   ErrorKind
		msg    string
	}{
		{"throttled", http.StatusTooManyRequests, `{}`, KindRateLimited, ""},
		{"server error", http.StatusBadGateway, `{}`, KindHTTP, "CoinGecko API error: 502"},
		{"missing coin", http.StatusOK, `{}`, KindMalformed, "No price data available for ETH"},
		{"missing currency", http.StatusOK, `{"ethereum":{"usd":3000}}`, KindMalformed, "No price data available for ETH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := jsonServer(t, tt.status, tt.body, nil)
			client := NewCoinGeckoClient(NewHTTPClient(server.URL, 0, 0), ratelimit.Unlimited(), "brl")

			_, err := client.Fetch(context.Background(), "ETH")
			requireProviderError(t, err, tt.kind, tt.msg)
		})
	}
}

func TestCoinIDsCoverCryptoSymbols(t *testing.T) {
	assert.Len(t, CoinIDs, 30)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindRateLimited, KindOf(&ProviderError{Kind: KindRateLimited}))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}
