package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset is a single holding inside a category.
// TargetAllocation is a fraction of the category (0.25 = 25%).
type Asset struct {
	ID               int64           `json:"id"`
	CategoryID       int64           `json:"categoryId"`
	Ticker           string          `json:"ticker"`
	Name             *string         `json:"name"`
	Quantity         decimal.Decimal `json:"quantity"`
	Price            decimal.Decimal `json:"price"`
	TargetAllocation decimal.Decimal `json:"targetAllocation"`
	Notes            *string         `json:"notes"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	LastPriceUpdate  *time.Time      `json:"lastPriceUpdate"`
	PriceSource      *string         `json:"priceSource"`
	AssetType        AssetType       `json:"assetType,omitempty"`
}

// Value returns quantity times price.
func (a Asset) Value() decimal.Decimal {
	return a.Quantity.Mul(a.Price)
}

// Classified reports whether the asset type has already been persisted.
func (a Asset) Classified() bool {
	return a.AssetType != ""
}

// AssetWithStats adds allocation figures relative to the asset's category.
type AssetWithStats struct {
	Asset
	TotalValue        decimal.Decimal `json:"totalValue"`
	CurrentAllocation decimal.Decimal `json:"currentAllocation"`
	AllocationDiff    decimal.Decimal `json:"allocationDiff"`
}

// Category groups assets under a shared allocation target.
type Category struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Slug             string          `json:"slug"`
	Icon             *string         `json:"icon"`
	TargetAllocation decimal.Decimal `json:"targetAllocation"`
	SortOrder        int             `json:"sortOrder"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// CategoryWithStats adds portfolio-level allocation figures to a category.
type CategoryWithStats struct {
	Category
	TotalValue        decimal.Decimal `json:"totalValue"`
	CurrentAllocation decimal.Decimal `json:"currentAllocation"`
	AllocationDiff    decimal.Decimal `json:"allocationDiff"`
	AssetCount        int             `json:"assetCount"`
}
