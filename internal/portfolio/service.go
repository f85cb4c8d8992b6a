package portfolio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/wizard/internal/domain"
)

const recentSnapshotLimit = 10

var hundred = decimal.NewFromInt(100)

// CategoryInput holds editable category fields. TargetAllocation is a percentage (0-100).
type CategoryInput struct {
	Name             string          `json:"name"`
	Icon             *string         `json:"icon"`
	TargetAllocation decimal.Decimal `json:"targetAllocation"`
	SortOrder        int             `json:"sortOrder"`
}

// Validate checks field limits and normalizes blank optionals.
func (in *CategoryInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Icon != nil && strings.TrimSpace(*in.Icon) == "" {
		in.Icon = nil
	}

	var v domain.Validator
	v.Length(in.Name, 1, 100, "name")
	v.OptionalLength(in.Icon, 10, "icon")
	v.Range(in.TargetAllocation, decimal.Zero, hundred, "targetAllocation")
	v.Check(Slugify(in.Name) != "" || in.Name == "", "name", "must contain a letter or digit")
	return v.Err()
}

// AssetInput holds editable asset fields. TargetAllocation is a percentage (0-100) of the category.
type AssetInput struct {
	CategoryID       int64           `json:"categoryId"`
	Ticker           string          `json:"ticker"`
	Name             *string         `json:"name"`
	Quantity         decimal.Decimal `json:"quantity"`
	Price            decimal.Decimal `json:"price"`
	TargetAllocation decimal.Decimal `json:"targetAllocation"`
	Notes            *string         `json:"notes"`
}

// Validate checks field limits and uppercases the ticker.
func (in *AssetInput) Validate() error {
	in.Ticker = domain.NormalizeTicker(in.Ticker)
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		in.Name = nil
	}
	if in.Notes != nil && strings.TrimSpace(*in.Notes) == "" {
		in.Notes = nil
	}

	var v domain.Validator
	v.Check(in.CategoryID > 0, "categoryId", "is required")
	v.Length(in.Ticker, 1, 20, "ticker")
	v.OptionalLength(in.Name, 100, "name")
	v.NonNegative(in.Quantity, "quantity")
	v.NonNegative(in.Price, "price")
	v.Range(in.TargetAllocation, decimal.Zero, hundred, "targetAllocation")
	v.OptionalLength(in.Notes, 500, "notes")
	return v.Err()
}

// SnapshotLister returns the most recent snapshots, newest first.
type SnapshotLister interface {
	Recent(ctx context.Context, limit int) ([]domain.Snapshot, error)
}

// CurrencyReader returns the display currency code.
type CurrencyReader interface {
	Currency(ctx context.Context) (string, error)
}

// LastUpdateReader returns the most recent price update across the portfolio.
type LastUpdateReader interface {
	LastGlobalUpdate(ctx context.Context) (*time.Time, error)
}

// Dashboard is the portfolio overview.
type Dashboard struct {
	TotalValue            decimal.Decimal            `json:"totalValue"`
	TotalValueFormatted   string                     `json:"totalValueFormatted"`
	Currency              string                     `json:"currency"`
	TotalTargetAllocation decimal.Decimal            `json:"totalTargetAllocation"`
	Categories            []domain.CategoryWithStats `json:"categories"`
	RecentSnapshots       []domain.Snapshot          `json:"recentSnapshots"`
	LastPriceUpdate       *time.Time                 `json:"lastPriceUpdate"`
}

// Service manages categories and assets and computes allocation figures.
type Service struct {
	repo      Repository
	snapshots SnapshotLister
	currency  CurrencyReader
	updates   LastUpdateReader
}

// NewService creates a portfolio service. The dashboard collaborators may be nil,
// in which case the corresponding dashboard fields are left empty.
func NewService(repo Repository, snapshots SnapshotLister, currency CurrencyReader, updates LastUpdateReader) *Service {
	return &Service{repo: repo, snapshots: snapshots, currency: currency, updates: updates}
}

// SetSnapshots wires the snapshot source after construction.
func (s *Service) SetSnapshots(snapshots SnapshotLister) {
	s.snapshots = snapshots
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (domain.Category, error) {
	if err := in.Validate(); err != nil {
		return domain.Category{}, err
	}
	return s.repo.CreateCategory(ctx, in, Slugify(in.Name))
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (domain.Category, error) {
	if err := in.Validate(); err != nil {
		return domain.Category{}, err
	}
	return s.repo.UpdateCategory(ctx, id, in, Slugify(in.Name))
}

// DeleteCategory removes a category and, by cascade, its assets.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return s.repo.DeleteCategory(ctx, id)
}

// CategoriesWithStats returns every category with its value and portfolio allocation.
func (s *Service) CategoriesWithStats(ctx context.Context) ([]domain.CategoryWithStats, error) {
	totals, err := s.repo.CategoryTotals(ctx)
	if err != nil {
		return nil, err
	}
	return categoryStats(totals), nil
}

func categoryStats(totals []CategoryTotal) []domain.CategoryWithStats {
	portfolioTotal := lo.Reduce(totals, func(sum decimal.Decimal, t CategoryTotal, _ int) decimal.Decimal {
		return sum.Add(t.TotalValue)
	}, decimal.Zero)

	return lo.Map(totals, func(t CategoryTotal, _ int) domain.CategoryWithStats {
		current := domain.Allocation(t.TotalValue, portfolioTotal)
		return domain.CategoryWithStats{
			Category:          t.Category,
			TotalValue:        t.TotalValue,
			CurrentAllocation: current,
			AllocationDiff:    domain.AllocationDiff(current, t.Category.TargetAllocation),
			AssetCount:        t.AssetCount,
		}
	})
}

func (s *Service) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	return s.repo.ListAssets(ctx)
}

func (s *Service) GetAsset(ctx context.Context, id int64) (domain.Asset, error) {
	return s.repo.GetAsset(ctx, id)
}

// AssetsByCategory returns a category's assets with their allocation inside the category.
func (s *Service) AssetsByCategory(ctx context.Context, categoryID int64) ([]domain.AssetWithStats, error) {
	if _, err := s.repo.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	assets, err := s.repo.ListAssetsByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return assetStats(assets), nil
}

func assetStats(assets []domain.Asset) []domain.AssetWithStats {
	categoryTotal := lo.Reduce(assets, func(sum decimal.Decimal, a domain.Asset, _ int) decimal.Decimal {
		return sum.Add(a.Value())
	}, decimal.Zero)

	return lo.Map(assets, func(a domain.Asset, _ int) domain.AssetWithStats {
		value := a.Value()
		current := domain.Allocation(value, categoryTotal)
		return domain.AssetWithStats{
			Asset:             a,
			TotalValue:        value,
			CurrentAllocation: current,
			AllocationDiff:    domain.AllocationDiff(current, a.TargetAllocation),
		}
	})
}

func (s *Service) CreateAsset(ctx context.Context, in AssetInput) (domain.Asset, error) {
	if err := in.Validate(); err != nil {
		return domain.Asset{}, err
	}
	if _, err := s.repo.GetCategory(ctx, in.CategoryID); err != nil {
		return domain.Asset{}, fmt.Errorf("category %d: %w", in.CategoryID, err)
	}
	return s.repo.CreateAsset(ctx, in)
}

// UpdateAsset replaces an asset's editable fields. A changed ticker keeps the stored asset type.
func (s *Service) UpdateAsset(ctx context.Context, id int64, in AssetInput) (domain.Asset, error) {
	if err := in.Validate(); err != nil {
		return domain.Asset{}, err
	}
	if _, err := s.repo.GetCategory(ctx, in.CategoryID); err != nil {
		return domain.Asset{}, fmt.Errorf("category %d: %w", in.CategoryID, err)
	}
	return s.repo.UpdateAsset(ctx, id, in)
}

func (s *Service) DeleteAsset(ctx context.Context, id int64) error {
	return s.repo.DeleteAsset(ctx, id)
}

// TotalValue returns the sum of all category values.
func (s *Service) TotalValue(ctx context.Context) (decimal.Decimal, error) {
	stats, err := s.CategoriesWithStats(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return sumValues(stats), nil
}

func sumValues(stats []domain.CategoryWithStats) decimal.Decimal {
	return lo.Reduce(stats, func(sum decimal.Decimal, c domain.CategoryWithStats, _ int) decimal.Decimal {
		return sum.Add(c.TotalValue)
	}, decimal.Zero)
}

// Dashboard assembles the portfolio overview.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	stats, err := s.CategoriesWithStats(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("loading categories: %w", err)
	}

	totalTarget := lo.Reduce(stats, func(sum decimal.Decimal, c domain.CategoryWithStats, _ int) decimal.Decimal {
		return sum.Add(c.TargetAllocation)
	}, decimal.Zero)

	d := Dashboard{
		TotalValue:            sumValues(stats),
		Currency:              domain.DefaultCurrency,
		TotalTargetAllocation: totalTarget,
		Categories:            stats,
		RecentSnapshots:       []domain.Snapshot{},
	}
	if d.Categories == nil {
		d.Categories = []domain.CategoryWithStats{}
	}

	if s.snapshots != nil {
		recent, err := s.snapshots.Recent(ctx, recentSnapshotLimit)
		if err != nil {
			return Dashboard{}, fmt.Errorf("loading snapshots: %w", err)
		}
		if recent != nil {
			d.RecentSnapshots = recent
		}
	}

	if s.currency != nil {
		cur, err := s.currency.Currency(ctx)
		if err != nil {
			return Dashboard{}, fmt.Errorf("loading currency: %w", err)
		}
		d.Currency = cur
	}
	d.TotalValueFormatted = domain.FormatMoney(d.TotalValue, d.Currency)

	if s.updates != nil {
		last, err := s.updates.LastGlobalUpdate(ctx)
		if err != nil {
			return Dashboard{}, fmt.Errorf("loading last price update: %w", err)
		}
		d.LastPriceUpdate = last
	}

	return d, nil
}
