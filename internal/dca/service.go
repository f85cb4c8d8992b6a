package dca

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service manages DCA plans.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new DCA service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]PlanWithProgress, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (PlanWithProgress, error) {
	return s.repo.Get(ctx, id)
}

// Create validates the input, schedules its entries and stores both.
func (s *Service) Create(ctx context.Context, in PlanInput) (PlanWithProgress, error) {
	if err := in.Validate(); err != nil {
		return PlanWithProgress{}, err
	}

	start, end := in.dates()
	plan := Plan{
		Name:      in.Name,
		AssetID:   in.AssetID,
		Frequency: in.Frequency,
		Amount:    in.Amount,
		StartDate: start,
		EndDate:   end,
		Notes:     in.Notes,
	}
	entries := GenerateEntries(start, end, in.Frequency, in.Amount)

	id, err := s.repo.Create(ctx, plan, entries)
	if err != nil {
		return PlanWithProgress{}, err
	}
	slog.Info("created dca plan", "id", id, "name", plan.Name, "entries", len(entries))

	created, err := s.repo.Get(ctx, id)
	if err != nil {
		return PlanWithProgress{}, fmt.Errorf("reloading dca plan: %w", err)
	}
	return created, nil
}

// Entries returns a plan's entries in schedule order.
func (s *Service) Entries(ctx context.Context, planID int64) ([]Entry, error) {
	if _, err := s.repo.Get(ctx, planID); err != nil {
		return nil, err
	}
	return s.repo.Entries(ctx, planID)
}

// ToggleEntry marks an entry completed now, or clears a completed one.
func (s *Service) ToggleEntry(ctx context.Context, entryID int64) (Entry, error) {
	return s.repo.ToggleEntry(ctx, entryID, s.now())
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
