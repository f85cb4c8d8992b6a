package external

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/wizard/internal/domain"
)

// Provider display names, stored as an asset's price source.
const (
	ProviderBrapi        = "Brapi"
	ProviderAlphaVantage = "Alpha Vantage"
	ProviderCoinGecko    = "CoinGecko"
)

// Quote is a successfully fetched price.
type Quote struct {
	Price     decimal.Decimal `json:"price"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}

// Result is the outcome of routing one ticker to its provider.
// Quote is set when Success is true, Error otherwise.
type Result struct {
	Success   bool             `json:"success"`
	Quote     *Quote           `json:"quote,omitempty"`
	Error     string           `json:"error,omitempty"`
	Kind      ErrorKind        `json:"kind,omitempty"`
	Ticker    string           `json:"ticker"`
	AssetType domain.AssetType `json:"assetType"`
}

func successResult(ticker string, at domain.AssetType, q Quote) Result {
	return Result{Success: true, Quote: &q, Ticker: ticker, AssetType: at}
}

func failureResult(ticker string, at domain.AssetType, err error) Result {
	return Result{Success: false, Error: err.Error(), Kind: KindOf(err), Ticker: ticker, AssetType: at}
}
