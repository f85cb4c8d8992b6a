package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// NewServer creates an HTTP server with all routes configured.
// When adminAPIKey is set, every mutating route requires it as a bearer token.
func NewServer(port string, svcs Services, adminAPIKey string) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewMux(NewHandler(svcs), adminAPIKey),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}

// NewMux registers the API routes on a new ServeMux.
func NewMux(h *Handler, adminAPIKey string) *http.ServeMux {
	mux := http.NewServeMux()

	read := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, fn)
	}
	write := func(pattern string, fn http.HandlerFunc) {
		if adminAPIKey != "" {
			mux.Handle(pattern, requireAuth(adminAPIKey, fn))
			return
		}
		mux.Handle(pattern, fn)
	}

	read("GET /api/v1/dashboard", h.GetDashboard)
	read("GET /api/v1/detect", h.DetectAssetType)

	read("GET /api/v1/categories", h.ListCategories)
	write("POST /api/v1/categories", h.CreateCategory)
	read("GET /api/v1/categories/{id}", h.GetCategory)
	write("PUT /api/v1/categories/{id}", h.UpdateCategory)
	write("DELETE /api/v1/categories/{id}", h.DeleteCategory)
	read("GET /api/v1/categories/{id}/assets", h.ListCategoryAssets)

	read("GET /api/v1/assets", h.ListAssets)
	write("POST /api/v1/assets", h.CreateAsset)
	read("GET /api/v1/assets/{id}", h.GetAsset)
	write("PUT /api/v1/assets/{id}", h.UpdateAsset)
	write("DELETE /api/v1/assets/{id}", h.DeleteAsset)
	write("POST /api/v1/assets/{id}/price", h.UpdateAssetPrice)
	read("GET /api/v1/assets/{id}/price-status", h.GetPriceStatus)

	write("POST /api/v1/prices/update", h.UpdateAllPrices)
	write("POST /api/v1/prices/update-stale", h.UpdateStalePrices)
	read("GET /api/v1/prices/last-run", h.GetLastRun)
	read("GET /api/v1/prices/stale", h.ListStaleAssets)

	read("GET /api/v1/snapshots", h.ListSnapshots)
	write("POST /api/v1/snapshots", h.CreateSnapshot)
	read("GET /api/v1/snapshots/{id}", h.GetSnapshot)
	write("DELETE /api/v1/snapshots/{id}", h.DeleteSnapshot)

	read("GET /api/v1/dca", h.ListPlans)
	write("POST /api/v1/dca", h.CreatePlan)
	read("GET /api/v1/dca/{id}", h.GetPlan)
	write("DELETE /api/v1/dca/{id}", h.DeletePlan)
	read("GET /api/v1/dca/{id}/entries", h.ListPlanEntries)
	write("POST /api/v1/dca/entries/{id}/toggle", h.ToggleEntry)

	read("GET /api/v1/rules", h.ListRules)
	write("POST /api/v1/rules", h.CreateRule)
	read("GET /api/v1/rules/{id}", h.GetRule)
	write("PUT /api/v1/rules/{id}", h.UpdateRule)
	write("DELETE /api/v1/rules/{id}", h.DeleteRule)

	read("GET /api/v1/settings", h.GetSettings)
	write("PUT /api/v1/settings", h.UpdateSettings)

	read("GET /api/v1/export.xlsx", h.ExportXLSX)

	return mux
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
