package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/wizard/internal/dca"
	"github.com/mtlprog/wizard/internal/rule"
	"github.com/mtlprog/wizard/internal/settings"
	"github.com/mtlprog/wizard/internal/snapshot"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ListSnapshots handles GET /api/v1/snapshots.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	const maxLimit = 1000
	limit := snapshot.DefaultListLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}

	snapshots, err := h.Snapshots.List(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err, "snapshots")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(snapshots))
}

// GetSnapshot handles GET /api/v1/snapshots/{id}.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s, err := h.Snapshots.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "snapshot")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type createSnapshotRequest struct {
	Date          string          `json:"date"`
	TotalInvested decimal.Decimal `json:"totalInvested"`
	Notes         *string         `json:"notes"`
}

// CreateSnapshot handles POST /api/v1/snapshots. Date is YYYY-MM-DD.
func (h *Handler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req createSnapshotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in := snapshot.CreateInput{TotalInvested: req.TotalInvested, Notes: req.Notes}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
			return
		}
		in.Date = date
	}

	s, err := h.Snapshots.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, "snapshot")
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// DeleteSnapshot handles DELETE /api/v1/snapshots/{id}.
func (h *Handler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Snapshots.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "snapshot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPlans handles GET /api/v1/dca.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.DCA.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "dca plans")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(plans))
}

// GetPlan handles GET /api/v1/dca/{id}.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.DCA.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "dca plan")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreatePlan handles POST /api/v1/dca.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var in dca.PlanInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.DCA.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, "dca plan")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// DeletePlan handles DELETE /api/v1/dca/{id}.
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.DCA.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "dca plan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPlanEntries handles GET /api/v1/dca/{id}/entries.
func (h *Handler) ListPlanEntries(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.DCA.Entries(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "dca plan")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

// ToggleEntry handles POST /api/v1/dca/entries/{id}/toggle.
func (h *Handler) ToggleEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	e, err := h.DCA.ToggleEntry(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "dca entry")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// ListRules handles GET /api/v1/rules.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Rules.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "rules")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rules))
}

// GetRule handles GET /api/v1/rules/{id}.
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rl, err := h.Rules.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "rule")
		return
	}
	writeJSON(w, http.StatusOK, rl)
}

// CreateRule handles POST /api/v1/rules.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var in rule.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	rl, err := h.Rules.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, "rule")
		return
	}
	writeJSON(w, http.StatusCreated, rl)
}

// UpdateRule handles PUT /api/v1/rules/{id}.
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in rule.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	rl, err := h.Rules.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err, "rule")
		return
	}
	writeJSON(w, http.StatusOK, rl)
}

// DeleteRule handles DELETE /api/v1/rules/{id}.
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Rules.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "rule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSettings handles GET /api/v1/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Settings.Get(r.Context())
	if err != nil {
		writeServiceError(w, err, "settings")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// UpdateSettings handles PUT /api/v1/settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var u settings.Update
	if !decodeJSON(w, r, &u) {
		return
	}
	if err := h.Settings.Update(r.Context(), u); err != nil {
		writeServiceError(w, err, "settings")
		return
	}
	h.GetSettings(w, r)
}

// ExportXLSX handles GET /api/v1/export.xlsx.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.Export.WriteXLSX(r.Context(), &buf); err != nil {
		writeServiceError(w, err, "export")
		return
	}
	filename := fmt.Sprintf("wizard-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
