package rule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/wizard/internal/domain"
)

// ErrNotFound indicates that the requested rule does not exist.
var ErrNotFound = fmt.Errorf("rule: %w", domain.ErrNotFound)

// Rule is a personal investing guideline shown alongside the portfolio.
type Rule struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Input holds the user-supplied rule fields.
type Input struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	SortOrder int    `json:"sortOrder"`
}

// Validate checks the rule input.
func (in Input) Validate() error {
	var v domain.Validator
	v.Length(in.Title, 1, 200, "title")
	v.Length(in.Content, 1, 2000, "content")
	return v.Err()
}

// Repository defines persistent storage for rules.
type Repository interface {
	List(ctx context.Context) ([]Rule, error)
	Get(ctx context.Context, id int64) (Rule, error)
	Create(ctx context.Context, in Input) (Rule, error)
	Update(ctx context.Context, id int64, in Input) (Rule, error)
	Delete(ctx context.Context, id int64) error
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL rule repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const columns = `id, title, content, sort_order, created_at, updated_at`

func scanRule(row pgx.Row) (Rule, error) {
	var r Rule
	err := row.Scan(&r.ID, &r.Title, &r.Content, &r.SortOrder, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func (r *PgRepository) List(ctx context.Context) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM rules ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	rules, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Rule, error) {
		return scanRule(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scanning rules: %w", err)
	}
	return rules, nil
}

func (r *PgRepository) Get(ctx context.Context, id int64) (Rule, error) {
	rule, err := scanRule(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM rules WHERE id = $1`, id))
	if err != nil {
		return Rule{}, notFoundOr(err, "getting rule %d", id)
	}
	return rule, nil
}

func (r *PgRepository) Create(ctx context.Context, in Input) (Rule, error) {
	rule, err := scanRule(r.pool.QueryRow(ctx,
		`INSERT INTO rules (title, content, sort_order) VALUES ($1, $2, $3) RETURNING `+columns,
		in.Title, in.Content, in.SortOrder))
	if err != nil {
		return Rule{}, fmt.Errorf("creating rule: %w", err)
	}
	return rule, nil
}

func (r *PgRepository) Update(ctx context.Context, id int64, in Input) (Rule, error) {
	rule, err := scanRule(r.pool.QueryRow(ctx,
		`UPDATE rules SET title = $2, content = $3, sort_order = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+columns,
		id, in.Title, in.Content, in.SortOrder))
	if err != nil {
		return Rule{}, notFoundOr(err, "updating rule %d", id)
	}
	return rule, nil
}

func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting rule %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Service validates input before it reaches the repository.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Rule, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Rule, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (Rule, error) {
	if err := in.Validate(); err != nil {
		return Rule{}, err
	}
	return s.repo.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (Rule, error) {
	if err := in.Validate(); err != nil {
		return Rule{}, err
	}
	return s.repo.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
