package pricing

import (
	"context"
	"fmt"
	"time"
)

// IsStale reports whether a price last updated at last is due for refresh.
// A nil last is always stale; the boundary (exactly threshold old) is stale.
func IsStale(last *time.Time, threshold time.Duration, now time.Time) bool {
	if last == nil {
		return true
	}
	return now.Sub(*last) >= threshold
}

// PriceStatus describes how fresh one asset's price is.
type PriceStatus struct {
	NeedsUpdate        bool       `json:"needsUpdate"`
	LastUpdate         *time.Time `json:"lastUpdate"`
	MinutesSinceUpdate *int64     `json:"minutesSinceUpdate"`
	ThresholdMinutes   int64      `json:"threshold"`
}

// Threshold returns the configured staleness threshold.
func (s *Service) Threshold(ctx context.Context) (time.Duration, error) {
	d, err := s.settings.PriceUpdateInterval(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading price update interval: %w", err)
	}
	return d, nil
}

// StaleAssetIDs returns ids of assets never priced or priced before now minus the threshold.
func (s *Service) StaleAssetIDs(ctx context.Context) ([]int64, error) {
	threshold, err := s.Threshold(ctx)
	if err != nil {
		return nil, err
	}

	ids, err := s.store.ListStaleAssetIDs(ctx, s.now().Add(-threshold))
	if err != nil {
		return nil, fmt.Errorf("listing stale assets: %w", err)
	}
	return ids, nil
}

// PriceStatus reports the freshness of a single asset's price.
func (s *Service) PriceStatus(ctx context.Context, assetID int64) (PriceStatus, error) {
	asset, err := s.store.GetAsset(ctx, assetID)
	if err != nil {
		return PriceStatus{}, fmt.Errorf("loading asset %d: %w", assetID, err)
	}

	threshold, err := s.Threshold(ctx)
	if err != nil {
		return PriceStatus{}, err
	}

	now := s.now()
	status := PriceStatus{
		NeedsUpdate:      IsStale(asset.LastPriceUpdate, threshold, now),
		LastUpdate:       asset.LastPriceUpdate,
		ThresholdMinutes: int64(threshold / time.Minute),
	}
	if asset.LastPriceUpdate != nil {
		minutes := int64(now.Sub(*asset.LastPriceUpdate) / time.Minute)
		status.MinutesSinceUpdate = &minutes
	}
	return status, nil
}

// LastGlobalUpdate returns the most recent price update across all assets, nil when none.
func (s *Service) LastGlobalUpdate(ctx context.Context) (*time.Time, error) {
	last, err := s.store.LastPriceUpdate(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading last price update: %w", err)
	}
	return last, nil
}

// GlobalUpdateDue reports whether the portfolio's most recent price update is stale.
func (s *Service) GlobalUpdateDue(ctx context.Context) (bool, error) {
	last, err := s.LastGlobalUpdate(ctx)
	if err != nil {
		return false, err
	}
	threshold, err := s.Threshold(ctx)
	if err != nil {
		return false, err
	}
	return IsStale(last, threshold, s.now()), nil
}
