package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mtlprog/wizard/internal/pricing"
)

type bulkResponse struct {
	pricing.BulkUpdateOutcome
	Message string `json:"message"`
}

// UpdateAssetPrice handles POST /api/v1/assets/{id}/price.
// Provider failures are reported in the body with success=false.
func (h *Handler) UpdateAssetPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.Portfolio.GetAsset(r.Context(), id); err != nil {
		writeServiceError(w, err, "asset")
		return
	}
	writeJSON(w, http.StatusOK, h.Prices.UpdateOne(r.Context(), id))
}

// GetPriceStatus handles GET /api/v1/assets/{id}/price-status.
func (h *Handler) GetPriceStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	status, err := h.Prices.PriceStatus(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "asset")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// UpdateAllPrices handles POST /api/v1/prices/update.
func (h *Handler) UpdateAllPrices(w http.ResponseWriter, r *http.Request) {
	h.runBulk(w, r, "all", h.Prices.UpdateAll)
}

// UpdateStalePrices handles POST /api/v1/prices/update-stale.
func (h *Handler) UpdateStalePrices(w http.ResponseWriter, r *http.Request) {
	h.runBulk(w, r, "stale", h.Prices.UpdateStale)
}

// runBulk starts a bulk update in the background and answers 202, or with
// ?wait=true runs it inline and returns the outcome. Either way the run is
// detached from the request, so a client disconnect does not cut it short.
func (h *Handler) runBulk(w http.ResponseWriter, r *http.Request, scope string, run func(context.Context) (pricing.BulkUpdateOutcome, error)) {
	if h.Prices.Running() {
		writeError(w, http.StatusConflict, pricing.ErrUpdateInProgress.Error())
		return
	}

	ctx := context.WithoutCancel(r.Context())
	if r.URL.Query().Get("wait") == "true" {
		outcome, err := run(ctx)
		if err != nil {
			writeServiceError(w, err, "price update")
			return
		}
		writeJSON(w, http.StatusOK, bulkResponse{BulkUpdateOutcome: outcome, Message: outcome.Message()})
		return
	}

	go func() {
		outcome, err := run(ctx)
		switch {
		case errors.Is(err, pricing.ErrUpdateInProgress):
			slog.Info("background price update skipped, another run is active", "scope", scope)
		case err != nil:
			slog.Error("background price update failed", "scope", scope, "error", err)
		default:
			slog.Info("background price update finished", "scope", scope, "summary", outcome.Message())
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "scope": scope})
}

// GetLastRun handles GET /api/v1/prices/last-run.
func (h *Handler) GetLastRun(w http.ResponseWriter, r *http.Request) {
	outcome, ok := h.Prices.LastOutcome()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"running": h.Prices.Running(), "lastRun": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"running": h.Prices.Running(),
		"lastRun": bulkResponse{BulkUpdateOutcome: outcome, Message: outcome.Message()},
	})
}

// ListStaleAssets handles GET /api/v1/prices/stale.
func (h *Handler) ListStaleAssets(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Prices.StaleAssetIDs(r.Context())
	if err != nil {
		writeServiceError(w, err, "stale assets")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assetIds": nonNil(ids), "count": len(ids)})
}
