package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/wizard/internal/domain"
	"github.com/mtlprog/wizard/internal/external"
)

//go:generate mockgen -package=pricing_test -destination=mock_deps_test.go -source=store.go

// AssetStore is the persistence the price pipeline needs.
// GetAsset wraps domain.ErrNotFound for a missing id.
type AssetStore interface {
	GetAsset(ctx context.Context, id int64) (domain.Asset, error)
	ListAssets(ctx context.Context) ([]domain.Asset, error)
	UpdateAssetType(ctx context.Context, id int64, assetType domain.AssetType) error
	UpdatePrice(ctx context.Context, id int64, price decimal.Decimal, at time.Time, source string) error
	ListStaleAssetIDs(ctx context.Context, before time.Time) ([]int64, error)
	LastPriceUpdate(ctx context.Context) (*time.Time, error)
}

// SettingsReader exposes the settings the price pipeline consults.
type SettingsReader interface {
	AlphaVantageAPIKey(ctx context.Context) (string, error)
	PriceUpdateInterval(ctx context.Context) (time.Duration, error)
	AutoUpdateEnabled(ctx context.Context) (bool, error)
}

// PriceFetcher routes a ticker to its quote provider.
type PriceFetcher interface {
	FetchPrice(ctx context.Context, ticker string, assetType domain.AssetType, apiKey string) external.Result
}
