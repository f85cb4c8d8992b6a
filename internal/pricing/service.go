package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/wizard/internal/domain"
)

// DefaultBulkDelay is the pause between consecutive assets in a bulk run.
const DefaultBulkDelay = 500 * time.Millisecond

// ErrUpdateInProgress is returned when a bulk update is requested while another one runs.
var ErrUpdateInProgress = errors.New("price update already in progress")

// PriceUpdateResult is the outcome of updating one asset.
type PriceUpdateResult struct {
	AssetID  int64            `json:"assetId"`
	Success  bool             `json:"success"`
	Ticker   string           `json:"ticker"`
	OldPrice *decimal.Decimal `json:"oldPrice,omitempty"`
	NewPrice *decimal.Decimal `json:"newPrice,omitempty"`
	Source   string           `json:"source,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// BulkUpdateOutcome summarizes a sequential run over many assets.
// Results are in processing order.
type BulkUpdateOutcome struct {
	RunID      string              `json:"runId"`
	StartedAt  time.Time           `json:"startedAt"`
	FinishedAt time.Time           `json:"finishedAt"`
	Total      int                 `json:"total"`
	Successful int                 `json:"successful"`
	Failed     int                 `json:"failed"`
	Results    []PriceUpdateResult `json:"results"`
}

// Message renders the run counts for display.
func (o BulkUpdateOutcome) Message() string {
	return fmt.Sprintf("updated %d of %d; %d failed", o.Successful, o.Total, o.Failed)
}

// Option configures a Service.
type Option func(*Service)

// WithDelay sets the pause between consecutive assets in a bulk run.
func WithDelay(d time.Duration) Option {
	return func(s *Service) { s.delay = d }
}

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSleep overrides how the service pauses between assets.
func WithSleep(sleep func(d time.Duration)) Option {
	return func(s *Service) { s.sleep = sleep }
}

// Service classifies assets, fetches their prices and persists the results.
type Service struct {
	store    AssetStore
	settings SettingsReader
	fetcher  PriceFetcher

	delay time.Duration
	now   func() time.Time
	sleep func(d time.Duration)

	running atomic.Bool

	mu   sync.RWMutex
	last *BulkUpdateOutcome
}

// NewService creates a price update service.
func NewService(store AssetStore, settings SettingsReader, fetcher PriceFetcher, opts ...Option) *Service {
	s := &Service{
		store:    store,
		settings: settings,
		fetcher:  fetcher,
		delay:    DefaultBulkDelay,
		now:      time.Now,
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClassifyIfAbsent returns the asset's type, detecting and persisting it when unset.
// persisted is true only when a detected type was written. On a write error the
// detected type is still returned alongside the error.
func (s *Service) ClassifyIfAbsent(ctx context.Context, asset domain.Asset) (domain.AssetType, bool, error) {
	if asset.Classified() {
		return asset.AssetType, false, nil
	}

	detected := domain.DetectAssetType(asset.Ticker)
	if err := s.store.UpdateAssetType(ctx, asset.ID, detected); err != nil {
		return detected, false, fmt.Errorf("saving asset type for %s: %w", asset.Ticker, err)
	}
	return detected, true, nil
}

// UpdateOne fetches and stores the current price of one asset.
// It never returns an error; failures are reported in the result and leave the stored price untouched.
func (s *Service) UpdateOne(ctx context.Context, assetID int64) PriceUpdateResult {
	asset, err := s.store.GetAsset(ctx, assetID)
	if err != nil {
		msg := "Asset not found"
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Error("failed to load asset for price update", "asset_id", assetID, "error", err)
			msg = fmt.Sprintf("loading asset: %v", err)
		}
		return PriceUpdateResult{AssetID: assetID, Success: false, Ticker: "unknown", Error: msg}
	}

	assetType, persisted, err := s.ClassifyIfAbsent(ctx, asset)
	if err != nil {
		slog.Warn("failed to persist detected asset type", "ticker", asset.Ticker, "asset_type", assetType, "error", err)
	} else if persisted {
		slog.Info("classified asset", "ticker", asset.Ticker, "asset_type", assetType)
	}

	var apiKey string
	if assetType == domain.AssetTypeUSStock {
		apiKey, err = s.settings.AlphaVantageAPIKey(ctx)
		if err != nil {
			slog.Warn("failed to read Alpha Vantage API key", "error", err)
		}
	}

	res := s.fetcher.FetchPrice(ctx, asset.Ticker, assetType, apiKey)
	if !res.Success || res.Quote == nil {
		slog.Warn("price fetch failed", "ticker", asset.Ticker, "asset_type", assetType, "error", res.Error)
		return PriceUpdateResult{AssetID: asset.ID, Success: false, Ticker: asset.Ticker, Error: res.Error}
	}

	q := res.Quote
	if err := s.store.UpdatePrice(ctx, asset.ID, q.Price, q.Timestamp, q.Source); err != nil {
		slog.Error("failed to save price", "ticker", asset.Ticker, "error", err)
		return PriceUpdateResult{
			AssetID: asset.ID,
			Success: false,
			Ticker:  asset.Ticker,
			Error:   fmt.Sprintf("saving price: %v", err),
		}
	}

	oldPrice := asset.Price
	newPrice := q.Price
	return PriceUpdateResult{
		AssetID:  asset.ID,
		Success:  true,
		Ticker:   asset.Ticker,
		OldPrice: &oldPrice,
		NewPrice: &newPrice,
		Source:   q.Source,
	}
}

// UpdateAll refreshes every asset in ticker order, one at a time.
// Once started the run is not cancellable: ctx values are kept but its
// cancellation is ignored, and every listed asset is attempted exactly once.
func (s *Service) UpdateAll(ctx context.Context) (BulkUpdateOutcome, error) {
	ctx = context.WithoutCancel(ctx)
	if !s.running.CompareAndSwap(false, true) {
		return BulkUpdateOutcome{}, ErrUpdateInProgress
	}
	defer s.running.Store(false)

	assets, err := s.store.ListAssets(ctx)
	if err != nil {
		return BulkUpdateOutcome{}, fmt.Errorf("listing assets: %w", err)
	}

	ids := lo.Map(assets, func(a domain.Asset, _ int) int64 { return a.ID })
	return s.run(ctx, "all", ids), nil
}

// UpdateStale refreshes only assets whose price is stale, with the same
// guarantees as UpdateAll.
func (s *Service) UpdateStale(ctx context.Context) (BulkUpdateOutcome, error) {
	ctx = context.WithoutCancel(ctx)
	if !s.running.CompareAndSwap(false, true) {
		return BulkUpdateOutcome{}, ErrUpdateInProgress
	}
	defer s.running.Store(false)

	ids, err := s.StaleAssetIDs(ctx)
	if err != nil {
		return BulkUpdateOutcome{}, err
	}
	return s.run(ctx, "stale", ids), nil
}

func (s *Service) run(ctx context.Context, scope string, ids []int64) BulkUpdateOutcome {
	outcome := BulkUpdateOutcome{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
		Total:     len(ids),
		Results:   make([]PriceUpdateResult, 0, len(ids)),
	}
	slog.Info("PriceUpdate: starting", "run_id", outcome.RunID, "scope", scope, "assets", len(ids))

	for i, id := range ids {
		outcome.Results = append(outcome.Results, s.UpdateOne(ctx, id))
		if i < len(ids)-1 && s.delay > 0 {
			s.sleep(s.delay)
		}
	}

	outcome.Successful = lo.CountBy(outcome.Results, func(r PriceUpdateResult) bool { return r.Success })
	outcome.Failed = len(outcome.Results) - outcome.Successful
	outcome.FinishedAt = s.now()

	s.mu.Lock()
	s.last = &outcome
	s.mu.Unlock()

	slog.Info("PriceUpdate: finished",
		"run_id", outcome.RunID,
		"successful", outcome.Successful,
		"failed", outcome.Failed,
		"duration", outcome.FinishedAt.Sub(outcome.StartedAt))

	return outcome
}

// LastOutcome returns the most recent completed bulk run, if any.
func (s *Service) LastOutcome() (BulkUpdateOutcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return BulkUpdateOutcome{}, false
	}
	return *s.last, true
}

// Running reports whether a bulk run is in progress.
func (s *Service) Running() bool {
	return s.running.Load()
}

// AutoUpdateEnabled reports the auto_update_enabled setting.
func (s *Service) AutoUpdateEnabled(ctx context.Context) (bool, error) {
	return s.settings.AutoUpdateEnabled(ctx)
}
