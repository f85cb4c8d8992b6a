package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mtlprog/wizard/internal/pricing"
)

// StaleUpdater refreshes assets whose prices are past the staleness threshold.
type StaleUpdater interface {
	AutoUpdateEnabled(ctx context.Context) (bool, error)
	UpdateStale(ctx context.Context) (pricing.BulkUpdateOutcome, error)
}

// PriceWorker periodically refreshes stale prices while auto-update is enabled.
type PriceWorker struct {
	updater  StaleUpdater
	interval time.Duration
}

// NewPriceWorker creates a new PriceWorker.
func NewPriceWorker(updater StaleUpdater, interval time.Duration) *PriceWorker {
	return &PriceWorker{
		updater:  updater,
		interval: interval,
	}
}

func (w *PriceWorker) tick(ctx context.Context) {
	enabled, err := w.updater.AutoUpdateEnabled(ctx)
	if err != nil {
		slog.Error("PriceWorker: reading auto-update setting failed", "error", err)
		return
	}
	if !enabled {
		slog.Debug("PriceWorker: auto-update disabled, skipping")
		return
	}

	outcome, err := w.updater.UpdateStale(ctx)
	switch {
	case errors.Is(err, pricing.ErrUpdateInProgress):
		slog.Info("PriceWorker: update already running, skipping")
	case err != nil:
		slog.Error("PriceWorker: update failed", "error", err)
	default:
		slog.Info("PriceWorker: update completed", "summary", outcome.Message())
	}
}

// Run starts the price worker loop. It blocks until the context is cancelled.
func (w *PriceWorker) Run(ctx context.Context) {
	slog.Info("PriceWorker: starting", "interval", w.interval)

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("PriceWorker: shutting down")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}
