package external

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/mtlprog/wizard/internal/domain"
)

//go:generate mockgen -package=external_test -destination=mock_fetchers_test.go -source=router.go

// QuoteFetcher fetches a quote for a ticker from a provider that needs no per-call credentials.
type QuoteFetcher interface {
	Fetch(ctx context.Context, ticker string) (Quote, error)
}

// KeyedQuoteFetcher fetches a quote with a caller-supplied API key.
type KeyedQuoteFetcher interface {
	Fetch(ctx context.Context, ticker, apiKey string) (Quote, error)
}

// Router dispatches a ticker to the provider for its asset type.
type Router struct {
	brapi        QuoteFetcher
	alphaVantage KeyedQuoteFetcher
	coinGecko    QuoteFetcher
	cache        *QuoteCache

	// inflight collapses concurrent fetches of the same ticker into one provider call.
	inflight singleflight.Group
}

// NewRouter creates a router. cache may be nil.
func NewRouter(brapi QuoteFetcher, alphaVantage KeyedQuoteFetcher, coinGecko QuoteFetcher, cache *QuoteCache) *Router {
	return &Router{
		brapi:        brapi,
		alphaVantage: alphaVantage,
		coinGecko:    coinGecko,
		cache:        cache,
	}
}

// FetchPrice routes ticker by assetType and always returns a Result.
// Adapter errors and panics become the failure variant.
func (r *Router) FetchPrice(ctx context.Context, ticker string, assetType domain.AssetType, apiKey string) Result {
	var provider string
	var fetch func() (Quote, error)

	switch assetType {
	case domain.AssetTypeB3Stock, domain.AssetTypeB3FII:
		provider = ProviderBrapi
		fetch = func() (Quote, error) { return r.brapi.Fetch(ctx, ticker) }
	case domain.AssetTypeUSStock:
		provider = ProviderAlphaVantage
		fetch = func() (Quote, error) { return r.alphaVantage.Fetch(ctx, ticker, apiKey) }
	case domain.AssetTypeCrypto:
		provider = ProviderCoinGecko
		fetch = func() (Quote, error) { return r.coinGecko.Fetch(ctx, ticker) }
	default:
		return failureResult(ticker, assetType, &ProviderError{
			Kind:    KindUnsupportedType,
			Message: fmt.Sprintf("Unknown asset type: %s", assetType),
		})
	}

	if q, ok := r.cache.get(provider, ticker); ok {
		slog.Debug("quote cache hit", "provider", provider, "ticker", ticker)
		return successResult(ticker, assetType, q)
	}

	v, err, shared := r.inflight.Do(provider+":"+ticker, func() (any, error) {
		q, err := guard(ticker, assetType, fetch)
		if err != nil {
			return nil, err
		}
		r.cache.set(provider, ticker, q)
		return q, nil
	})
	if err != nil {
		return failureResult(ticker, assetType, err)
	}
	if shared {
		slog.Debug("quote fetch shared", "provider", provider, "ticker", ticker)
	}
	return successResult(ticker, assetType, v.(Quote))
}

// guard runs fetch and turns a panic into an internal ProviderError.
func guard(ticker string, assetType domain.AssetType, fetch func() (Quote, error)) (q Quote, err error) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("quote fetch panicked", "ticker", ticker, "asset_type", assetType, "panic", p)
			err = &ProviderError{
				Kind:    KindInternal,
				Message: fmt.Sprintf("Unexpected error fetching %s: %v", ticker, p),
			}
		}
	}()
	return fetch()
}
