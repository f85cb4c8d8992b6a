package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/wizard/internal/domain"
)

// DefaultListLimit is used when List is called without a positive limit.
const DefaultListLimit = 50

// CategoryStatsProvider returns current per-category totals and allocations.
type CategoryStatsProvider interface {
	CategoriesWithStats(ctx context.Context) ([]domain.CategoryWithStats, error)
}

// CreateInput holds the user-supplied snapshot fields.
type CreateInput struct {
	Date          time.Time       `json:"date"`
	TotalInvested decimal.Decimal `json:"totalInvested"`
	Notes         *string         `json:"notes"`
}

// Validate checks the snapshot input.
func (in CreateInput) Validate() error {
	var v domain.Validator
	v.Check(!in.Date.IsZero(), "date", "is required")
	v.NonNegative(in.TotalInvested, "totalInvested")
	v.OptionalLength(in.Notes, 500, "notes")
	return v.Err()
}

// Service captures and retrieves portfolio snapshots.
type Service struct {
	stats CategoryStatsProvider
	repo  Repository
	now   func() time.Time
}

// NewService creates a new snapshot service.
func NewService(stats CategoryStatsProvider, repo Repository) *Service {
	return &Service{stats: stats, repo: repo, now: time.Now}
}

// Create records the current category values under the given date.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Snapshot, error) {
	if err := in.Validate(); err != nil {
		return domain.Snapshot{}, err
	}

	stats, err := s.stats.CategoriesWithStats(ctx)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("loading category stats: %w", err)
	}

	totalValue := lo.Reduce(stats, func(sum decimal.Decimal, c domain.CategoryWithStats, _ int) decimal.Decimal {
		return sum.Add(c.TotalValue)
	}, decimal.Zero)
	categories := lo.Map(stats, func(c domain.CategoryWithStats, _ int) domain.SnapshotCategory {
		return domain.SnapshotCategory{
			CategoryID:    c.ID,
			CategoryName:  c.Name,
			Value:         c.TotalValue,
			AllocationPct: c.CurrentAllocation,
		}
	})

	snap := domain.Snapshot{
		Date:          dateOnly(in.Date),
		TotalValue:    totalValue,
		TotalInvested: in.TotalInvested,
		Notes:         in.Notes,
		Categories:    categories,
	}

	created, err := s.repo.Create(ctx, snap)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return created.WithEvolution(), nil
}

// CaptureDaily records today's snapshot carrying forward the latest invested amount.
// It returns ErrDuplicateDate when today is already recorded.
func (s *Service) CaptureDaily(ctx context.Context) (domain.Snapshot, error) {
	invested := decimal.Zero
	latest, err := s.repo.GetLatest(ctx)
	switch {
	case err == nil:
		invested = latest.TotalInvested
	case errors.Is(err, ErrNotFound):
	default:
		return domain.Snapshot{}, fmt.Errorf("loading latest snapshot: %w", err)
	}

	snap, err := s.Create(ctx, CreateInput{Date: s.now(), TotalInvested: invested})
	if err != nil {
		return domain.Snapshot{}, err
	}
	slog.Info("captured daily snapshot", "date", snap.Date.Format(time.DateOnly), "total_value", snap.TotalValue)
	return snap, nil
}

// List returns up to limit snapshots, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.repo.List(ctx, limit)
}

// Recent is List under the name the dashboard uses.
func (s *Service) Recent(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	return s.List(ctx, limit)
}

// Get returns one snapshot with its category breakdown.
func (s *Service) Get(ctx context.Context, id int64) (domain.Snapshot, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
