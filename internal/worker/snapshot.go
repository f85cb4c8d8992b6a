package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mtlprog/wizard/internal/domain"
	"github.com/mtlprog/wizard/internal/snapshot"
)

// SnapshotCapturer records today's portfolio snapshot.
type SnapshotCapturer interface {
	CaptureDaily(ctx context.Context) (domain.Snapshot, error)
}

// AfterSnapshotHook is called after each newly captured snapshot.
type AfterSnapshotHook interface {
	Export(ctx context.Context, s domain.Snapshot) error
}

// SnapshotWorker captures one snapshot per day. Ticks on a day that is
// already recorded are no-ops.
type SnapshotWorker struct {
	capturer SnapshotCapturer
	interval time.Duration
	hook     AfterSnapshotHook // optional
}

// NewSnapshotWorker creates a new SnapshotWorker with an optional post-capture hook.
func NewSnapshotWorker(capturer SnapshotCapturer, interval time.Duration, hook AfterSnapshotHook) *SnapshotWorker {
	return &SnapshotWorker{
		capturer: capturer,
		interval: interval,
		hook:     hook,
	}
}

func (w *SnapshotWorker) runHook(ctx context.Context, s domain.Snapshot) {
	if w.hook == nil {
		return
	}
	if err := w.hook.Export(ctx, s); err != nil {
		slog.Error("SnapshotWorker: export hook failed", "error", err)
	} else {
		slog.Info("SnapshotWorker: export hook completed")
	}
}

func (w *SnapshotWorker) capture(ctx context.Context) {
	s, err := w.capturer.CaptureDaily(ctx)
	switch {
	case errors.Is(err, snapshot.ErrDuplicateDate):
		slog.Debug("SnapshotWorker: today already captured")
	case err != nil:
		slog.Error("SnapshotWorker: capture failed", "error", err)
	default:
		slog.Info("SnapshotWorker: capture completed", "id", s.ID)
		w.runHook(ctx, s)
	}
}

// Run starts the snapshot worker loop. It blocks until the context is cancelled.
func (w *SnapshotWorker) Run(ctx context.Context) {
	slog.Info("SnapshotWorker: starting")

	// Capture immediately on startup
	w.capture(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("SnapshotWorker: shutting down")
			return
		case <-ticker.C:
			w.capture(ctx)
		}
	}
}
