package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"resty.dev/v3"

	"github.com/mtlprog/wizard/internal/ratelimit"
)

const (
	DefaultBrapiURL   = "https://brapi.dev/api"
	DefaultBrapiToken = "demo"

	brapiPricePath = "$.results[0].regularMarketPrice"
)

// BrapiClient fetches B3 stock and real-estate fund quotes from brapi.dev.
type BrapiClient struct {
	client *resty.Client
	token  string
	now    func() time.Time
}

// NewBrapiClient creates a Brapi client. An empty token uses the public demo token.
// Every attempt on client, retries included, waits for a brapi slot on limiter.
func NewBrapiClient(client *resty.Client, limiter *ratelimit.Limiter, token string) *BrapiClient {
	if token == "" {
		token = DefaultBrapiToken
	}
	return &BrapiClient{client: gate(client, limiter, ratelimit.SourceBrapi), token: token, now: time.Now}
}

// WithClock overrides the clock used to timestamp quotes.
func (c *BrapiClient) WithClock(now func() time.Time) *BrapiClient {
	c.now = now
	return c
}

// Fetch returns the current regular-market price for a B3 ticker.
func (c *BrapiClient) Fetch(ctx context.Context, ticker string) (Quote, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("ticker", ticker).
		SetQueryParam("token", c.token).
		Get("/quote/{ticker}")
	if err != nil {
		return Quote{}, requestError(ProviderBrapi, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return Quote{}, httpError(ProviderBrapi, resp.StatusCode())
	}

	price, err := extractBrapiPrice(resp.String())
	if err != nil {
		return Quote{}, &ProviderError{
			Kind:     KindMalformed,
			Provider: ProviderBrapi,
			Message:  fmt.Sprintf("No price data available for %s", ticker),
			Cause:    err,
		}
	}

	return Quote{Price: price, Source: ProviderBrapi, Timestamp: c.now()}, nil
}

func extractBrapiPrice(body string) (decimal.Decimal, error) {
	var jobj any
	if err := json.Unmarshal([]byte(body), &jobj); err != nil {
		return decimal.Zero, fmt.Errorf("decoding response: %w", err)
	}

	jval, err := jsonpath.Get(brapiPricePath, jobj)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reading %s: %w", brapiPricePath, err)
	}
	// jsonpath may wrap a single match in a list
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}

	val, ok := jval.(float64)
	if !ok {
		return decimal.Zero, fmt.Errorf("%s is not a number: %v", brapiPricePath, jval)
	}
	return decimal.NewFromFloat(val), nil
}
