package dca

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/wizard/internal/database"
	"github.com/mtlprog/wizard/internal/domain"
)

var (
	// ErrNotFound indicates that the requested plan or entry does not exist.
	ErrNotFound = fmt.Errorf("dca: %w", domain.ErrNotFound)
	// ErrUnknownAsset indicates the plan references an asset that does not exist.
	ErrUnknownAsset = errors.New("dca: asset does not exist")
)

// Repository defines persistent storage for plans and their entries.
type Repository interface {
	List(ctx context.Context) ([]PlanWithProgress, error)
	Get(ctx context.Context, id int64) (PlanWithProgress, error)
	Create(ctx context.Context, p Plan, entries []Entry) (int64, error)
	Entries(ctx context.Context, planID int64) ([]Entry, error)
	ToggleEntry(ctx context.Context, entryID int64, at time.Time) (Entry, error)
	Delete(ctx context.Context, id int64) error
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL DCA repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const planWithProgressQuery = `
	SELECT d.id, d.name, d.asset_id, d.frequency, d.amount, d.start_date, d.end_date,
	       d.notes, d.created_at, d.updated_at,
	       COUNT(e.id), COUNT(e.id) FILTER (WHERE e.completed), a.ticker
	FROM dca_plans d
	LEFT JOIN dca_entries e ON e.plan_id = d.id
	LEFT JOIN assets a ON a.id = d.asset_id`

const entryColumns = `id, plan_id, scheduled_date, amount, completed, completed_at, notes`

func scanPlan(row pgx.Row) (PlanWithProgress, error) {
	var p PlanWithProgress
	err := row.Scan(&p.ID, &p.Name, &p.AssetID, &p.Frequency, &p.Amount, &p.StartDate, &p.EndDate,
		&p.Notes, &p.CreatedAt, &p.UpdatedAt,
		&p.TotalEntries, &p.CompletedEntries, &p.AssetTicker)
	return p, err
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.PlanID, &e.ScheduledDate, &e.Amount, &e.Completed, &e.CompletedAt, &e.Notes)
	return e, err
}

func (r *PgRepository) List(ctx context.Context) ([]PlanWithProgress, error) {
	rows, err := r.pool.Query(ctx, planWithProgressQuery+`
		GROUP BY d.id, a.ticker
		ORDER BY d.created_at DESC, d.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing dca plans: %w", err)
	}
	defer rows.Close()

	var plans []PlanWithProgress
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning dca plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dca plans: %w", err)
	}
	return plans, nil
}

func (r *PgRepository) Get(ctx context.Context, id int64) (PlanWithProgress, error) {
	p, err := scanPlan(r.pool.QueryRow(ctx, planWithProgressQuery+`
		WHERE d.id = $1
		GROUP BY d.id, a.ticker`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PlanWithProgress{}, ErrNotFound
		}
		return PlanWithProgress{}, fmt.Errorf("getting dca plan %d: %w", id, err)
	}
	return p, nil
}

// Create inserts the plan and its entries in one transaction and returns the plan id.
func (r *PgRepository) Create(ctx context.Context, p Plan, entries []Entry) (int64, error) {
	var id int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO dca_plans (name, asset_id, frequency, amount, start_date, end_date, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			p.Name, p.AssetID, p.Frequency, p.Amount, p.StartDate, p.EndDate, p.Notes).Scan(&id)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return ErrUnknownAsset
			}
			return fmt.Errorf("inserting dca plan: %w", err)
		}

		batch := &pgx.Batch{}
		for _, e := range entries {
			batch.Queue(
				`INSERT INTO dca_entries (plan_id, scheduled_date, amount) VALUES ($1, $2, $3)`,
				id, e.ScheduledDate, e.Amount)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("inserting dca entries: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PgRepository) Entries(ctx context.Context, planID int64) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM dca_entries WHERE plan_id = $1 ORDER BY scheduled_date, id`, planID)
	if err != nil {
		return nil, fmt.Errorf("listing dca entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning dca entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dca entries: %w", err)
	}
	return entries, nil
}

// ToggleEntry flips the completed flag. SET expressions see the pre-update row.
func (r *PgRepository) ToggleEntry(ctx context.Context, entryID int64, at time.Time) (Entry, error) {
	e, err := scanEntry(r.pool.QueryRow(ctx,
		`UPDATE dca_entries
		 SET completed = NOT completed,
		     completed_at = CASE WHEN completed THEN NULL ELSE $2::timestamptz END
		 WHERE id = $1
		 RETURNING `+entryColumns, entryID, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("toggling dca entry %d: %w", entryID, err)
	}
	return e, nil
}

func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM dca_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting dca plan %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
