package external

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"resty.dev/v3"

	"github.com/mtlprog/wizard/internal/ratelimit"
)

const DefaultAlphaVantageURL = "https://www.alphavantage.co/query"

// GlobalQuoteResponse is the subset of the GLOBAL_QUOTE payload the client reads.
// Throttled and failed calls return 200 with one of the message fields instead of a quote.
type GlobalQuoteResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

// AlphaVantageClient fetches US stock quotes.
type AlphaVantageClient struct {
	client *resty.Client
	now    func() time.Time
}

// NewAlphaVantageClient creates an Alpha Vantage client gated on the alphavantage source.
func NewAlphaVantageClient(client *resty.Client, limiter *ratelimit.Limiter) *AlphaVantageClient {
	return &AlphaVantageClient{client: gate(client, limiter, ratelimit.SourceAlphaVantage), now: time.Now}
}

// WithClock overrides the clock used to timestamp quotes.
func (c *AlphaVantageClient) WithClock(now func() time.Time) *AlphaVantageClient {
	c.now = now
	return c
}

// Fetch returns the latest price for a US ticker.
// A missing key fails before the rate limiter is consulted.
func (c *AlphaVantageClient) Fetch(ctx context.Context, ticker, apiKey string) (Quote, error) {
	if apiKey == "" {
		return Quote{}, configMissingError(ProviderAlphaVantage,
			"Alpha Vantage API key not configured. Please add it in Settings.")
	}

	var result GlobalQuoteResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": "GLOBAL_QUOTE",
			"symbol":   ticker,
			"apikey":   apiKey,
		}).
		SetResult(&result).
		Get("")
	if err != nil {
		return Quote{}, requestError(ProviderAlphaVantage, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return Quote{}, httpError(ProviderAlphaVantage, resp.StatusCode())
	}

	if result.GlobalQuote.Price == "" {
		switch {
		case result.Note != "" || result.Information != "":
			return Quote{}, &ProviderError{
				Kind:     KindRateLimited,
				Provider: ProviderAlphaVantage,
				Message:  "Alpha Vantage rate limit exceeded. Please wait a minute.",
			}
		case result.ErrorMessage != "":
			return Quote{}, &ProviderError{
				Kind:     KindHTTP,
				Provider: ProviderAlphaVantage,
				Message:  fmt.Sprintf("Alpha Vantage error: %s", result.ErrorMessage),
			}
		default:
			return Quote{}, noPriceError(ProviderAlphaVantage, ticker)
		}
	}

	price, err := decimal.NewFromString(result.GlobalQuote.Price)
	if err != nil {
		return Quote{}, &ProviderError{
			Kind:     KindMalformed,
			Provider: ProviderAlphaVantage,
			Message:  fmt.Sprintf("Invalid price %q returned for %s", result.GlobalQuote.Price, ticker),
			Cause:    err,
		}
	}

	return Quote{Price: price, Source: ProviderAlphaVantage, Timestamp: c.now()}, nil
}
