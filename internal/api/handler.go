package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mtlprog/wizard/internal/dca"
	"github.com/mtlprog/wizard/internal/domain"
	"github.com/mtlprog/wizard/internal/portfolio"
	"github.com/mtlprog/wizard/internal/pricing"
	"github.com/mtlprog/wizard/internal/rule"
	"github.com/mtlprog/wizard/internal/settings"
	"github.com/mtlprog/wizard/internal/snapshot"
	"github.com/mtlprog/wizard/internal/worker"
)

const maxBodyBytes = 1 << 20

// PortfolioService manages categories, assets and the dashboard.
type PortfolioService interface {
	CategoriesWithStats(ctx context.Context) ([]domain.CategoryWithStats, error)
	GetCategory(ctx context.Context, id int64) (domain.Category, error)
	CreateCategory(ctx context.Context, in portfolio.CategoryInput) (domain.Category, error)
	UpdateCategory(ctx context.Context, id int64, in portfolio.CategoryInput) (domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	AssetsByCategory(ctx context.Context, categoryID int64) ([]domain.AssetWithStats, error)

	ListAssets(ctx context.Context) ([]domain.Asset, error)
	GetAsset(ctx context.Context, id int64) (domain.Asset, error)
	CreateAsset(ctx context.Context, in portfolio.AssetInput) (domain.Asset, error)
	UpdateAsset(ctx context.Context, id int64, in portfolio.AssetInput) (domain.Asset, error)
	DeleteAsset(ctx context.Context, id int64) error

	Dashboard(ctx context.Context) (portfolio.Dashboard, error)
}

// PriceService updates prices and reports their staleness.
type PriceService interface {
	UpdateOne(ctx context.Context, assetID int64) pricing.PriceUpdateResult
	UpdateAll(ctx context.Context) (pricing.BulkUpdateOutcome, error)
	UpdateStale(ctx context.Context) (pricing.BulkUpdateOutcome, error)
	LastOutcome() (pricing.BulkUpdateOutcome, bool)
	Running() bool
	PriceStatus(ctx context.Context, assetID int64) (pricing.PriceStatus, error)
	StaleAssetIDs(ctx context.Context) ([]int64, error)
}

// SnapshotService records and lists portfolio snapshots.
type SnapshotService interface {
	Create(ctx context.Context, in snapshot.CreateInput) (domain.Snapshot, error)
	List(ctx context.Context, limit int) ([]domain.Snapshot, error)
	Get(ctx context.Context, id int64) (domain.Snapshot, error)
	Delete(ctx context.Context, id int64) error
}

// DCAService manages contribution plans.
type DCAService interface {
	List(ctx context.Context) ([]dca.PlanWithProgress, error)
	Get(ctx context.Context, id int64) (dca.PlanWithProgress, error)
	Create(ctx context.Context, in dca.PlanInput) (dca.PlanWithProgress, error)
	Entries(ctx context.Context, planID int64) ([]dca.Entry, error)
	ToggleEntry(ctx context.Context, entryID int64) (dca.Entry, error)
	Delete(ctx context.Context, id int64) error
}

// RuleService manages investment rules.
type RuleService interface {
	List(ctx context.Context) ([]rule.Rule, error)
	Get(ctx context.Context, id int64) (rule.Rule, error)
	Create(ctx context.Context, in rule.Input) (rule.Rule, error)
	Update(ctx context.Context, id int64, in rule.Input) (rule.Rule, error)
	Delete(ctx context.Context, id int64) error
}

// SettingsService reads and writes user settings.
type SettingsService interface {
	Get(ctx context.Context) (settings.Settings, error)
	Update(ctx context.Context, u settings.Update) error
}

// Exporter renders the portfolio as a spreadsheet.
type Exporter interface {
	WriteXLSX(ctx context.Context, w io.Writer) error
}

// Services bundles the handler dependencies.
type Services struct {
	Portfolio PortfolioService
	Prices    PriceService
	Snapshots SnapshotService
	DCA       DCAService
	Rules     RuleService
	Settings  SettingsService
	Export    Exporter
	Sessions  *worker.Sessions
}

// Handler provides HTTP endpoints for the wizard API.
type Handler struct {
	Services
}

// NewHandler creates a new API handler.
func NewHandler(svcs Services) *Handler {
	return &Handler{Services: svcs}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeServiceError maps domain errors to HTTP statuses and logs the rest.
func writeServiceError(w http.ResponseWriter, err error, what string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid input", "fields": ve.Fields})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, portfolio.ErrDuplicate), errors.Is(err, snapshot.ErrDuplicateDate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, dca.ErrUnknownAsset):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid input",
			"fields": map[string][]string{"assetId": {"does not exist"}},
		})
	case errors.Is(err, pricing.ErrUpdateInProgress):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed", "resource", what, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
