package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mtlprog/wizard/internal/domain"
	"github.com/mtlprog/wizard/internal/portfolio"
)

// SessionHeader carries the dashboard session used for the one-shot auto-update.
const SessionHeader = "X-Session-ID"

type dashboardResponse struct {
	portfolio.Dashboard
	SessionID           string `json:"sessionId"`
	AutoUpdateTriggered bool   `json:"autoUpdateTriggered"`
}

// GetDashboard handles GET /api/v1/dashboard.
// The first load of a session with stale prices starts a background refresh.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	w.Header().Set(SessionHeader, sessionID)

	triggered := false
	if h.Sessions != nil {
		triggered = h.Sessions.Trigger(sessionID).MaybeFire(r.Context())
	}

	d, err := h.Portfolio.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, err, "dashboard")
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{Dashboard: d, SessionID: sessionID, AutoUpdateTriggered: triggered})
}

// ListCategories handles GET /api/v1/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Portfolio.CategoriesWithStats(r.Context())
	if err != nil {
		writeServiceError(w, err, "categories")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(categories))
}

// GetCategory handles GET /api/v1/categories/{id}.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.Portfolio.GetCategory(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "category")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateCategory handles POST /api/v1/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in portfolio.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.Portfolio.CreateCategory(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, "category")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCategory handles PUT /api/v1/categories/{id}.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in portfolio.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.Portfolio.UpdateCategory(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err, "category")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCategory handles DELETE /api/v1/categories/{id}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Portfolio.DeleteCategory(r.Context(), id); err != nil {
		writeServiceError(w, err, "category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCategoryAssets handles GET /api/v1/categories/{id}/assets.
func (h *Handler) ListCategoryAssets(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.Portfolio.GetCategory(r.Context(), id); err != nil {
		writeServiceError(w, err, "category")
		return
	}
	assets, err := h.Portfolio.AssetsByCategory(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "assets")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(assets))
}

// ListAssets handles GET /api/v1/assets.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.Portfolio.ListAssets(r.Context())
	if err != nil {
		writeServiceError(w, err, "assets")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(assets))
}

// GetAsset handles GET /api/v1/assets/{id}.
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	a, err := h.Portfolio.GetAsset(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "asset")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// CreateAsset handles POST /api/v1/assets.
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var in portfolio.AssetInput
	if !decodeJSON(w, r, &in) {
		return
	}
	a, err := h.Portfolio.CreateAsset(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, "asset")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// UpdateAsset handles PUT /api/v1/assets/{id}.
func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in portfolio.AssetInput
	if !decodeJSON(w, r, &in) {
		return
	}
	a, err := h.Portfolio.UpdateAsset(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err, "asset")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeleteAsset handles DELETE /api/v1/assets/{id}.
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Portfolio.DeleteAsset(r.Context(), id); err != nil {
		writeServiceError(w, err, "asset")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DetectAssetType handles GET /api/v1/detect?ticker=X.
func (h *Handler) DetectAssetType(w http.ResponseWriter, r *http.Request) {
	ticker := domain.NormalizeTicker(r.URL.Query().Get("ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"ticker":    ticker,
		"assetType": string(domain.DetectAssetType(ticker)),
	})
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
