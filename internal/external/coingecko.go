package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"resty.dev/v3"

	"github.com/mtlprog/wizard/internal/ratelimit"
)

const (
	DefaultCoinGeckoURL      = "https://api.coingecko.com/api/v3"
	DefaultCoinGeckoCurrency = "brl"
)

// CoinIDs maps ticker symbols to CoinGecko coin ids.
// Keys match domain.CryptoSymbols.
var CoinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"BNB":   "binancecoin",
	"SOL":   "solana",
	"ADA":   "cardano",
	"XRP":   "ripple",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
	"ATOM":  "cosmos",
	"LTC":   "litecoin",
	"BCH":   "bitcoin-cash",
	"XLM":   "stellar",
	"ALGO":  "algorand",
	"VET":   "vechain",
	"ICP":   "internet-computer",
	"FIL":   "filecoin",
	"SAND":  "the-sandbox",
	"MANA":  "decentraland",
	"AXS":   "axie-infinity",
	"THETA": "theta-token",
	"EGLD":  "elrond-erd-2",
	"AAVE":  "aave",
	"EOS":   "eos",
	"CAKE":  "pancakeswap-token",
	"GRT":   "the-graph",
	"RUNE":  "thorchain",
	"FTM":   "fantom",
}

// CoinGeckoClient fetches cryptocurrency prices from the CoinGecko API.
type CoinGeckoClient struct {
	client   *resty.Client
	currency string
	now      func() time.Time
}

// NewCoinGeckoClient creates a CoinGecko client quoting in currency (default brl).
func NewCoinGeckoClient(client *resty.Client, limiter *ratelimit.Limiter, currency string) *CoinGeckoClient {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCoinGeckoCurrency
	}
	return &CoinGeckoClient{client: gate(client, limiter, ratelimit.SourceCoinGecko), currency: currency, now: time.Now}
}

// WithClock overrides the clock used to timestamp quotes.
func (c *CoinGeckoClient) WithClock(now func() time.Time) *CoinGeckoClient {
	c.now = now
	return c
}

// Fetch returns the price of a mapped cryptocurrency ticker.
// Unmapped tickers fail before the rate limiter is consulted.
func (c *CoinGeckoClient) Fetch(ctx context.Context, ticker string) (Quote, error) {
	coinID, ok := CoinIDs[strings.ToUpper(ticker)]
	if !ok {
		return Quote{}, &ProviderError{
			Kind:     KindUnknownSymbol,
			Provider: ProviderCoinGecko,
			Message:  fmt.Sprintf("Unknown cryptocurrency ticker: %s. Please add it manually.", ticker),
		}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":           coinID,
			"vs_currencies": c.currency,
		}).
		Get("/simple/price")
	if err != nil {
		return Quote{}, requestError(ProviderCoinGecko, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return Quote{}, &ProviderError{
			Kind:       KindRateLimited,
			Provider:   ProviderCoinGecko,
			StatusCode: resp.StatusCode(),
			Message:    "CoinGecko rate limit exceeded. Please wait a minute.",
		}
	default:
		return Quote{}, httpError(ProviderCoinGecko, resp.StatusCode())
	}

	// Parse: {"bitcoin":{"brl":350000.5}}
	var raw map[string]map[string]any
	if err := json.Unmarshal([]byte(resp.String()), &raw); err != nil {
		return Quote{}, &ProviderError{
			Kind:     KindMalformed,
			Provider: ProviderCoinGecko,
			Message:  fmt.Sprintf("No price data available for %s", ticker),
			Cause:    err,
		}
	}

	val, ok := raw[coinID][c.currency].(float64)
	if !ok {
		return Quote{}, noPriceError(ProviderCoinGecko, ticker)
	}

	return Quote{Price: decimal.NewFromFloat(val), Source: ProviderCoinGecko, Timestamp: c.now()}, nil
}
