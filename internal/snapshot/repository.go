package snapshot

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
	// ErrNotFound indicates that the requested snapshot was not found.
	ErrNotFound = fmt.Errorf("snapshot: %w", domain.ErrNotFound)
	// ErrDuplicateDate indicates a snapshot already exists for the date.
	ErrDuplicateDate = errors.New("snapshot already exists for this date")
)

// Repository defines persistent storage for snapshots.
type Repository interface {
	Create(ctx context.Context, s domain.Snapshot) (domain.Snapshot, error)
	Get(ctx context.Context, id int64) (domain.Snapshot, error)
	GetLatest(ctx context.Context) (domain.Snapshot, error)
	List(ctx context.Context, limit int) ([]domain.Snapshot, error)
	Delete(ctx context.Context, id int64) error
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL snapshot repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const snapshotColumns = `id, date, total_value, total_invested, notes, created_at`

func scanSnapshot(row pgx.Row) (domain.Snapshot, error) {
	var s domain.Snapshot
	if err := row.Scan(&s.ID, &s.Date, &s.TotalValue, &s.TotalInvested, &s.Notes, &s.CreatedAt); err != nil {
		return domain.Snapshot{}, err
	}
	return s.WithEvolution(), nil
}

// Create stores the snapshot and its category rows in one transaction.
func (r *PgRepository) Create(ctx context.Context, s domain.Snapshot) (domain.Snapshot, error) {
	var created domain.Snapshot
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		created, err = scanSnapshot(tx.QueryRow(ctx,
			`INSERT INTO snapshots (date, total_value, total_invested, notes)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+snapshotColumns,
			s.Date, s.TotalValue, s.TotalInvested, s.Notes))
		if err != nil {
			if database.IsUniqueViolation(err) {
				return ErrDuplicateDate
			}
			return fmt.Errorf("inserting snapshot: %w", err)
		}

		batch := &pgx.Batch{}
		for _, c := range s.Categories {
			batch.Queue(
				`INSERT INTO snapshot_categories (snapshot_id, category_id, value, allocation_pct)
				 VALUES ($1, $2, $3, $4)`,
				created.ID, c.CategoryID, c.Value, c.AllocationPct)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("inserting snapshot categories: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	created.Categories = s.Categories
	return created, nil
}

func (r *PgRepository) Get(ctx context.Context, id int64) (domain.Snapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, ErrNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("getting snapshot %d: %w", id, err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT sc.category_id, COALESCE(c.name, ''), sc.value, sc.allocation_pct
		 FROM snapshot_categories sc
		 LEFT JOIN categories c ON c.id = sc.category_id
		 WHERE sc.snapshot_id = $1
		 ORDER BY sc.id`, id)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("listing snapshot categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.SnapshotCategory
		if err := rows.Scan(&c.CategoryID, &c.CategoryName, &c.Value, &c.AllocationPct); err != nil {
			return domain.Snapshot{}, fmt.Errorf("scanning snapshot category: %w", err)
		}
		s.Categories = append(s.Categories, c)
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("iterating snapshot categories: %w", err)
	}
	return s, nil
}

func (r *PgRepository) GetLatest(ctx context.Context) (domain.Snapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots ORDER BY date DESC LIMIT 1`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, ErrNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("getting latest snapshot: %w", err)
	}
	return s, nil
}

// List returns snapshots newest first.
func (r *PgRepository) List(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots ORDER BY date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return snapshots, nil
}

func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM snapshots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting snapshot %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// dateOnly truncates t to midnight UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
