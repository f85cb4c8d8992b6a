package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/wizard/internal/domain"
)

// Sheet names shared by the XLSX and Google Sheets outputs.
const (
	AllocationSheet = "Allocation"
	SnapshotsSheet  = "Snapshots"
	HistorySheet    = "History"
)

// snapshotLimit caps the snapshot rows exported per run.
const snapshotLimit = 1000

// Table is one named sheet of header plus data rows.
type Table struct {
	Name string
	Rows [][]any
}

// AllocationSource provides the current per-category breakdown.
type AllocationSource interface {
	CategoriesWithStats(ctx context.Context) ([]domain.CategoryWithStats, error)
}

// SnapshotSource lists recorded snapshots, newest first.
type SnapshotSource interface {
	List(ctx context.Context, limit int) ([]domain.Snapshot, error)
}

// SheetWriter writes tables to a spreadsheet destination.
type SheetWriter interface {
	Write(ctx context.Context, tables []Table) error
	AppendHistory(ctx context.Context, s domain.Snapshot) error
}

// Service builds export tables and delegates writing to a SheetWriter.
type Service struct {
	allocation AllocationSource
	snapshots  SnapshotSource
	writer     SheetWriter // optional
}

// NewService creates a new export Service. writer may be nil when no remote
// spreadsheet is configured; WriteXLSX works either way.
func NewService(allocation AllocationSource, snapshots SnapshotSource, writer SheetWriter) *Service {
	return &Service{
		allocation: allocation,
		snapshots:  snapshots,
		writer:     writer,
	}
}

// Tables returns the Allocation and Snapshots tables.
func (s *Service) Tables(ctx context.Context) ([]Table, error) {
	stats, err := s.allocation.CategoriesWithStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading allocation: %w", err)
	}
	snaps, err := s.snapshots.List(ctx, snapshotLimit)
	if err != nil {
		return nil, fmt.Errorf("loading snapshots: %w", err)
	}
	return []Table{
		{Name: AllocationSheet, Rows: buildAllocation(stats)},
		{Name: SnapshotsSheet, Rows: buildSnapshots(snaps)},
	}, nil
}

// Export rewrites the remote tables and appends the snapshot to the history sheet.
// Implements worker.AfterSnapshotHook.
func (s *Service) Export(ctx context.Context, snap domain.Snapshot) error {
	if s.writer == nil {
		return nil
	}
	tables, err := s.Tables(ctx)
	if err != nil {
		return err
	}
	if err := s.writer.Write(ctx, tables); err != nil {
		return fmt.Errorf("writing tables: %w", err)
	}
	if err := s.writer.AppendHistory(ctx, snap); err != nil {
		return fmt.Errorf("appending history: %w", err)
	}
	slog.Info("export: spreadsheet updated", "snapshot", snap.ID)
	return nil
}

// buildAllocation builds the Allocation sheet data plus a totals row.
// Columns: Category | Value | Current % | Target % | Diff % | Assets
func buildAllocation(stats []domain.CategoryWithStats) [][]any {
	data := make([][]any, 0, len(stats)+2)
	data = append(data, []any{"Category", "Value", "Current %", "Target %", "Diff %", "Assets"})

	for _, c := range stats {
		data = append(data, []any{
			c.Name,
			toFloat(c.TotalValue),
			toFloat(c.CurrentAllocation),
			toFloat(c.TargetAllocation),
			toFloat(c.AllocationDiff),
			c.AssetCount,
		})
	}

	total := sumBy(stats, func(c domain.CategoryWithStats) decimal.Decimal { return c.TotalValue })
	current := sumBy(stats, func(c domain.CategoryWithStats) decimal.Decimal { return c.CurrentAllocation })
	target := sumBy(stats, func(c domain.CategoryWithStats) decimal.Decimal { return c.TargetAllocation })
	assets := lo.SumBy(stats, func(c domain.CategoryWithStats) int { return c.AssetCount })
	data = append(data, []any{"Total", toFloat(total), toFloat(current), toFloat(target), nil, assets})

	return data
}

func sumBy[T any](items []T, value func(T) decimal.Decimal) decimal.Decimal {
	return lo.Reduce(items, func(sum decimal.Decimal, item T, _ int) decimal.Decimal {
		return sum.Add(value(item))
	}, decimal.Zero)
}

// buildSnapshots builds the Snapshots sheet data.
// Columns: Date | Total Value | Total Invested | Evolution | Evolution % | Notes
func buildSnapshots(snaps []domain.Snapshot) [][]any {
	data := make([][]any, 0, len(snaps)+1)
	data = append(data, snapshotHeader())
	for _, s := range snaps {
		data = append(data, snapshotRow(s))
	}
	return data
}

func snapshotHeader() []any {
	return []any{"Date", "Total Value", "Total Invested", "Evolution", "Evolution %", "Notes"}
}

func snapshotRow(s domain.Snapshot) []any {
	s = s.WithEvolution()
	return []any{
		s.Date.UTC().Format(time.DateOnly),
		toFloat(s.TotalValue),
		toFloat(s.TotalInvested),
		toFloat(s.EvolutionValue),
		toFloat(s.EvolutionPct),
		lo.FromPtr(s.Notes),
	}
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
