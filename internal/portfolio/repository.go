package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/wizard/internal/database"
	"github.com/mtlprog/wizard/internal/domain"
)

var (
	// ErrNotFound indicates that the requested category or asset does not exist.
	ErrNotFound = fmt.Errorf("portfolio: %w", domain.ErrNotFound)
	// ErrDuplicate indicates a category slug or an asset ticker within a category already exists.
	ErrDuplicate = errors.New("portfolio: already exists")
)

// CategoryTotal is a category together with the summed value of its assets.
type CategoryTotal struct {
	Category   domain.Category
	TotalValue decimal.Decimal
	AssetCount int
}

// Repository defines persistent storage for categories and assets.
type Repository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id int64) (domain.Category, error)
	CreateCategory(ctx context.Context, in CategoryInput, slug string) (domain.Category, error)
	UpdateCategory(ctx context.Context, id int64, in CategoryInput, slug string) (domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	CategoryTotals(ctx context.Context) ([]CategoryTotal, error)

	ListAssets(ctx context.Context) ([]domain.Asset, error)
	ListAssetsByCategory(ctx context.Context, categoryID int64) ([]domain.Asset, error)
	GetAsset(ctx context.Context, id int64) (domain.Asset, error)
	CreateAsset(ctx context.Context, in AssetInput) (domain.Asset, error)
	UpdateAsset(ctx context.Context, id int64, in AssetInput) (domain.Asset, error)
	DeleteAsset(ctx context.Context, id int64) error
}

// PgRepository implements Repository with PostgreSQL.
// It also satisfies pricing.AssetStore.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL portfolio repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const categoryColumns = `id, name, slug, icon, target_allocation, sort_order, created_at, updated_at`

func scanCategory(row pgx.Row) (domain.Category, error) {
	var c domain.Category
	var targetPct decimal.Decimal
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Icon, &targetPct, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.Category{}, err
	}
	c.TargetAllocation = domain.PercentToFraction(targetPct)
	return c, nil
}

func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func (r *PgRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return categories, nil
}

func (r *PgRepository) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return domain.Category{}, notFoundOr(err, "getting category %d", id)
	}
	return c, nil
}

func (r *PgRepository) CreateCategory(ctx context.Context, in CategoryInput, slug string) (domain.Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx,
		`INSERT INTO categories (name, slug, icon, target_allocation, sort_order)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+categoryColumns,
		in.Name, slug, in.Icon, in.TargetAllocation, in.SortOrder))
	if err != nil {
		return domain.Category{}, notFoundOr(err, "creating category")
	}
	return c, nil
}

func (r *PgRepository) UpdateCategory(ctx context.Context, id int64, in CategoryInput, slug string) (domain.Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx,
		`UPDATE categories
		 SET name = $2, slug = $3, icon = $4, target_allocation = $5, sort_order = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+categoryColumns,
		id, in.Name, slug, in.Icon, in.TargetAllocation, in.SortOrder))
	if err != nil {
		return domain.Category{}, notFoundOr(err, "updating category %d", id)
	}
	return c, nil
}

func (r *PgRepository) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting category %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) CategoryTotals(ctx context.Context) ([]CategoryTotal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.name, c.slug, c.icon, c.target_allocation, c.sort_order, c.created_at, c.updated_at,
		        COALESCE(SUM(a.quantity * a.price), 0), COUNT(a.id)
		 FROM categories c
		 LEFT JOIN assets a ON a.category_id = c.id
		 GROUP BY c.id
		 ORDER BY c.sort_order, c.name`)
	if err != nil {
		return nil, fmt.Errorf("listing category totals: %w", err)
	}
	defer rows.Close()

	var totals []CategoryTotal
	for rows.Next() {
		var t CategoryTotal
		var targetPct decimal.Decimal
		c := &t.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Icon, &targetPct, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt,
			&t.TotalValue, &t.AssetCount); err != nil {
			return nil, fmt.Errorf("scanning category total: %w", err)
		}
		c.TargetAllocation = domain.PercentToFraction(targetPct)
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category totals: %w", err)
	}
	return totals, nil
}

const assetColumns = `id, category_id, ticker, name, quantity, price, target_allocation, notes,
	created_at, updated_at, last_price_update, price_source, asset_type`

func scanAsset(row pgx.Row) (domain.Asset, error) {
	var a domain.Asset
	var targetPct decimal.Decimal
	var assetType *string
	if err := row.Scan(&a.ID, &a.CategoryID, &a.Ticker, &a.Name, &a.Quantity, &a.Price, &targetPct, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt, &a.LastPriceUpdate, &a.PriceSource, &assetType); err != nil {
		return domain.Asset{}, err
	}
	a.TargetAllocation = domain.PercentToFraction(targetPct)
	if assetType != nil {
		a.AssetType = domain.AssetType(*assetType)
	}
	return a, nil
}

func (r *PgRepository) queryAssets(ctx context.Context, sql string, args ...any) ([]domain.Asset, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assets: %w", err)
	}
	return assets, nil
}

// ListAssets returns every asset ordered by ticker.
func (r *PgRepository) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	return r.queryAssets(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY ticker, id`)
}

func (r *PgRepository) ListAssetsByCategory(ctx context.Context, categoryID int64) ([]domain.Asset, error) {
	return r.queryAssets(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE category_id = $1 ORDER BY ticker`, categoryID)
}

func (r *PgRepository) GetAsset(ctx context.Context, id int64) (domain.Asset, error) {
	a, err := scanAsset(r.pool.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = $1`, id))
	if err != nil {
		return domain.Asset{}, notFoundOr(err, "getting asset %d", id)
	}
	return a, nil
}

func (r *PgRepository) CreateAsset(ctx context.Context, in AssetInput) (domain.Asset, error) {
	a, err := scanAsset(r.pool.QueryRow(ctx,
		`INSERT INTO assets (category_id, ticker, name, quantity, price, target_allocation, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+assetColumns,
		in.CategoryID, in.Ticker, in.Name, in.Quantity, in.Price, in.TargetAllocation, in.Notes))
	if err != nil {
		return domain.Asset{}, notFoundOr(err, "creating asset")
	}
	return a, nil
}

// UpdateAsset replaces the editable fields. The asset type and price metadata are kept.
func (r *PgRepository) UpdateAsset(ctx context.Context, id int64, in AssetInput) (domain.Asset, error) {
	a, err := scanAsset(r.pool.QueryRow(ctx,
		`UPDATE assets
		 SET category_id = $2, ticker = $3, name = $4, quantity = $5, price = $6,
		     target_allocation = $7, notes = $8, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+assetColumns,
		id, in.CategoryID, in.Ticker, in.Name, in.Quantity, in.Price, in.TargetAllocation, in.Notes))
	if err != nil {
		return domain.Asset{}, notFoundOr(err, "updating asset %d", id)
	}
	return a, nil
}

func (r *PgRepository) DeleteAsset(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting asset %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) UpdateAssetType(ctx context.Context, id int64, assetType domain.AssetType) error {
	_, err := r.pool.Exec(ctx, `UPDATE assets SET asset_type = $2 WHERE id = $1`, id, string(assetType))
	if err != nil {
		return fmt.Errorf("updating asset type for %d: %w", id, err)
	}
	return nil
}

// UpdatePrice sets price, timestamp and source in a single statement.
func (r *PgRepository) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal, at time.Time, source string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assets
		 SET price = $2, last_price_update = $3, price_source = $4, updated_at = NOW()
		 WHERE id = $1`, id, price, at, source)
	if err != nil {
		return fmt.Errorf("updating price for %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) ListStaleAssetIDs(ctx context.Context, before time.Time) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM assets
		 WHERE last_price_update IS NULL OR last_price_update < $1
		 ORDER BY id`, before)
	if err != nil {
		return nil, fmt.Errorf("listing stale assets: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scanning stale assets: %w", err)
	}
	return ids, nil
}

func (r *PgRepository) LastPriceUpdate(ctx context.Context) (*time.Time, error) {
	var last *time.Time
	if err := r.pool.QueryRow(ctx, `SELECT MAX(last_price_update) FROM assets`).Scan(&last); err != nil {
		return nil, fmt.Errorf("getting last price update: %w", err)
	}
	return last, nil
}
