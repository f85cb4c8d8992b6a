package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/wizard/internal/dca"
	"github.com/mtlprog/wizard/internal/domain"
	"github.com/mtlprog/wizard/internal/portfolio"
	"github.com/mtlprog/wizard/internal/pricing"
	"github.com/mtlprog/wizard/internal/rule"
	"github.com/mtlprog/wizard/internal/snapshot"
	"github.com/mtlprog/wizard/internal/worker"
)

type mockPortfolio struct {
	PortfolioService
	assets    map[int64]domain.Asset
	createErr error
	created   []portfolio.AssetInput
}

func (m *mockPortfolio) Dashboard(_ context.Context) (portfolio.Dashboard, error) {
	return portfolio.Dashboard{TotalValue: decimal.NewFromInt(1000), Currency: "BRL"}, nil
}

func (m *mockPortfolio) GetAsset(_ context.Context, id int64) (domain.Asset, error) {
	a, ok := m.assets[id]
	if !ok {
		return domain.Asset{}, portfolio.ErrNotFound
	}
	return a, nil
}

func (m *mockPortfolio) ListAssets(_ context.Context) ([]domain.Asset, error) {
	return nil, nil
}

func (m *mockPortfolio) CreateAsset(_ context.Context, in portfolio.AssetInput) (domain.Asset, error) {
	if m.createErr != nil {
		return domain.Asset{}, m.createErr
	}
	if err := in.Validate(); err != nil {
		return domain.Asset{}, err
	}
	m.created = append(m.created, in)
	return domain.Asset{ID: 9, CategoryID: in.CategoryID, Ticker: in.Ticker}, nil
}

type mockPrices struct {
	mu       sync.Mutex
	running  bool
	calls    int
	last     *pricing.BulkUpdateOutcome
	done     chan struct{}
	updateOK pricing.PriceUpdateResult
	ctxErr   error
}

func (m *mockPrices) UpdateOne(_ context.Context, id int64) pricing.PriceUpdateResult {
	r := m.updateOK
	r.AssetID = id
	return r
}

func (m *mockPrices) outcome(ctx context.Context) (pricing.BulkUpdateOutcome, error) {
	m.mu.Lock()
	m.calls++
	m.ctxErr = ctx.Err()
	m.mu.Unlock()
	if m.done != nil {
		defer close(m.done)
	}
	return pricing.BulkUpdateOutcome{Total: 3, Successful: 2, Failed: 1}, nil
}

func (m *mockPrices) UpdateAll(ctx context.Context) (pricing.BulkUpdateOutcome, error) {
	return m.outcome(ctx)
}

func (m *mockPrices) UpdateStale(ctx context.Context) (pricing.BulkUpdateOutcome, error) {
	return m.outcome(ctx)
}

func (m *mockPrices) LastOutcome() (pricing.BulkUpdateOutcome, bool) {
	if m.last == nil {
		return pricing.BulkUpdateOutcome{}, false
	}
	return *m.last, true
}

func (m *mockPrices) Running() bool { return m.running }

func (m *mockPrices) PriceStatus(_ context.Context, id int64) (pricing.PriceStatus, error) {
	if id != 1 {
		return pricing.PriceStatus{}, portfolio.ErrNotFound
	}
	return pricing.PriceStatus{NeedsUpdate: true, ThresholdMinutes: 15}, nil
}

func (m *mockPrices) StaleAssetIDs(_ context.Context) ([]int64, error) {
	return []int64{1, 4}, nil
}

type mockSnapshots struct {
	SnapshotService
	createErr error
	lastInput snapshot.CreateInput
	lastLimit int
}

func (m *mockSnapshots) Create(_ context.Context, in snapshot.CreateInput) (domain.Snapshot, error) {
	m.lastInput = in
	if m.createErr != nil {
		return domain.Snapshot{}, m.createErr
	}
	return domain.Snapshot{ID: 1, Date: in.Date, TotalInvested: in.TotalInvested}, nil
}

func (m *mockSnapshots) List(_ context.Context, limit int) ([]domain.Snapshot, error) {
	m.lastLimit = limit
	return nil, nil
}

type mockDCA struct {
	DCAService
	err error
}

func (m *mockDCA) Create(_ context.Context, in dca.PlanInput) (dca.PlanWithProgress, error) {
	if m.err != nil {
		return dca.PlanWithProgress{}, m.err
	}
	return dca.PlanWithProgress{Plan: dca.Plan{ID: 1, Name: in.Name}}, nil
}

func (m *mockDCA) ToggleEntry(_ context.Context, id int64) (dca.Entry, error) {
	return dca.Entry{ID: id, Completed: true}, nil
}

type mockRules struct {
	RuleService
}

func (m *mockRules) Get(_ context.Context, _ int64) (rule.Rule, error) {
	return rule.Rule{}, rule.ErrNotFound
}

type mockExporter struct {
	err error
}

func (m *mockExporter) WriteXLSX(_ context.Context, w io.Writer) error {
	if m.err != nil {
		return m.err
	}
	_, err := w.Write([]byte("PK-fake-xlsx"))
	return err
}

type mockPolicy struct {
	due bool
}

func (m *mockPolicy) AutoUpdateEnabled(_ context.Context) (bool, error) { return true, nil }
func (m *mockPolicy) GlobalUpdateDue(_ context.Context) (bool, error) { return m.due, nil }

type testEnv struct {
	portfolio *mockPortfolio
	prices    *mockPrices
	snapshots *mockSnapshots
	dca       *mockDCA
	export    *mockExporter
	mux       *http.ServeMux
}

func newTestEnv(due bool) *testEnv {
	env := &testEnv{
		portfolio: &mockPortfolio{assets: map[int64]domain.Asset{1: {ID: 1, Ticker: "VALE3"}}},
		prices:    &mockPrices{updateOK: pricing.PriceUpdateResult{Success: true, Ticker: "VALE3", Source: "Brapi"}},
		snapshots: &mockSnapshots{},
		dca:       &mockDCA{},
		export:    &mockExporter{},
	}
	sessions := worker.NewSessions(&mockPolicy{due: due}, env.prices, time.Hour)
	env.mux = NewMux(NewHandler(Services{
		Portfolio: env.portfolio,
		Prices:    env.prices,
		Snapshots: env.snapshots,
		DCA:       env.dca,
		Rules:     &mockRules{},
		Export:    env.export,
		Sessions:  sessions,
	}), "")
	return env
}

func (env *testEnv) do(method, target, body string, header ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v (%s)", err, w.Body.String())
	}
	return body
}

func TestDashboardMintsSession(t *testing.T) {
	env := newTestEnv(false)

	w := env.do(http.MethodGet, "/api/v1/dashboard", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	sid := w.Header().Get(SessionHeader)
	if sid == "" {
		t.Fatal("expected a minted session id header")
	}
	body := decodeBody(t, w)
	if body["sessionId"] != sid {
		t.Errorf("sessionId = %v, want %s", body["sessionId"], sid)
	}
	if body["autoUpdateTriggered"] != false {
		t.Errorf("autoUpdateTriggered = %v, want false while fresh", body["autoUpdateTriggered"])
	}
	if body["currency"] != "BRL" {
		t.Errorf("currency = %v, want BRL", body["currency"])
	}
}

func TestDashboardFiresOncePerSession(t *testing.T) {
	env := newTestEnv(true)
	env.prices.done = make(chan struct{})

	first := decodeBody(t, env.do(http.MethodGet, "/api/v1/dashboard", "", SessionHeader, "tab-1"))
	if first["autoUpdateTriggered"] != true {
		t.Fatalf("first load autoUpdateTriggered = %v, want true", first["autoUpdateTriggered"])
	}

	select {
	case <-env.prices.done:
	case <-time.After(2 * time.Second):
		t.Fatal("background update did not run")
	}

	second := decodeBody(t, env.do(http.MethodGet, "/api/v1/dashboard", "", SessionHeader, "tab-1"))
	if second["autoUpdateTriggered"] != false {
		t.Errorf("second load autoUpdateTriggered = %v, want false", second["autoUpdateTriggered"])
	}

	env.prices.mu.Lock()
	defer env.prices.mu.Unlock()
	if env.prices.calls != 1 {
		t.Errorf("UpdateAll calls = %d, want 1", env.prices.calls)
	}
}

func TestCreateAssetValidation(t *testing.T) {
	env := newTestEnv(false)

	w := env.do(http.MethodPost, "/api/v1/assets", `{"categoryId":1,"ticker":"","quantity":"-1"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	fields, ok := decodeBody(t, w)["fields"].(map[string]any)
	if !ok {
		t.Fatalf("expected fields in body: %s", w.Body.String())
	}
	for _, f := range []string{"ticker", "quantity"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("expected error for %s, got %v", f, fields)
		}
	}
}

func TestCreateAssetDuplicate(t *testing.T) {
	env := newTestEnv(false)
	env.portfolio.createErr = portfolio.ErrDuplicate

	w := env.do(http.MethodPost, "/api/v1/assets", `{"categoryId":1,"ticker":"petr4"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestCreateAssetSuccess(t *testing.T) {
	env := newTestEnv(false)

	w := env.do(http.MethodPost, "/api/v1/assets", `{"categoryId":1,"ticker":" petr4 ","quantity":"10","price":"30.5"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", w.Code, w.Body.String())
	}
	if got := env.portfolio.created[0].Ticker; got != "PETR4" {
		t.Errorf("ticker = %q, want PETR4", got)
	}
}

func TestInvalidJSONAndID(t *testing.T) {
	env := newTestEnv(false)

	if w := env.do(http.MethodPost, "/api/v1/assets", `{not json`); w.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON status = %d, want 400", w.Code)
	}
	if w := env.do(http.MethodGet, "/api/v1/assets/abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("invalid id status = %d, want 400", w.Code)
	}
}

func TestListAssetsEncodesEmptyArray(t *testing.T) {
	env := newTestEnv(false)

	w := env.do(http.MethodGet, "/api/v1/assets", "")
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestUpdateAssetPrice(t *testing.T) {
	env := newTestEnv(false)

	w := env.do(http.MethodPost, "/api/v1/assets/1/price", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	if body["success"] != true || body["source"] != "Brapi" {
		t.Errorf("unexpected body: %v", body)
	}

	if w := env.do(http.MethodPost, "/api/v1/assets/2/price", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing asset status = %d, want 404", w.Code)
	}
}

func TestPriceStatus(t *testing.T) {
	env := newTestEnv(false)

	body := decodeBody(t, env.do(http.MethodGet, "/api/v1/assets/1/price-status", ""))
	if body["needsUpdate"] != true || body["threshold"] != 15.0 {
		t.Errorf("unexpected body: %v", body)
	}

	if w := env.do(http.MethodGet, "/api/v1/assets/3/price-status", ""); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestBulkUpdateWait(t *testing.T) {
	env := newTestEnv(false)

	w := env.do(http.MethodPost, "/api/v1/prices/update?wait=true", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := decodeBody(t, w)["message"]; got != "updated 2 of 3; 1 failed" {
		t.Errorf("message = %v", got)
	}
}

func TestBulkUpdateWaitDetachesFromRequest(t *testing.T) {
	env := newTestEnv(false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/prices/update?wait=true", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if env.prices.ctxErr != nil {
		t.Errorf("bulk run saw a cancelled context: %v", env.prices.ctxErr)
	}
	if got := decodeBody(t, w)["successful"]; got != 2.0 {
		t.Errorf("successful = %v, want 2", got)
	}
}

func TestBulkUpdateAsync(t *testing.T) {
	env := newTestEnv(false)
	env.prices.done = make(chan struct{})

	w := env.do(http.MethodPost, "/api/v1/prices/update-stale", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}

	select {
	case <-env.prices.done:
	case <-time.After(2 * time.Second):
		t.Fatal("background update did not run")
	}
}

func TestBulkUpdateConflict(t *testing.T) {
	env := newTestEnv(false)
	env.prices.running = true

	w := env.do(http.MethodPost, "/api/v1/prices/update", "")
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
	if env.prices.calls != 0 {
		t.Errorf("calls = %d, want 0", env.prices.calls)
	}
}

func TestLastRunAndStale(t *testing.T) {
	env := newTestEnv(false)

	body := decodeBody(t, env.do(http.MethodGet, "/api/v1/prices/last-run", ""))
	if body["lastRun"] != nil {
		t.Errorf("lastRun = %v, want null before any run", body["lastRun"])
	}

	env.prices.last = &pricing.BulkUpdateOutcome{Total: 1, Successful: 1}
	body = decodeBody(t, env.do(http.MethodGet, "/api/v1/prices/last-run", ""))
	last, ok := body["lastRun"].(map[string]any)
	if !ok || last["message"] != "updated 1 of 1; 0 failed" {
		t.Errorf("unexpected lastRun: %v", body["lastRun"])
	}

	body = decodeBody(t, env.do(http.MethodGet, "/api/v1/prices/stale", ""))
	if body["count"] != 2.0 {
		t.Errorf("count = %v, want 2", body["count"])
	}
}

func TestCreateSnapshot(t *testing.T) {
	env := newTestEnv(false)

	w := env.do(http.MethodPost, "/api/v1/snapshots", `{"date":"2026-03-01","totalInvested":"5000"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if !env.snapshots.lastInput.Date.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", env.snapshots.lastInput.Date)
	}

	if w := env.do(http.MethodPost, "/api/v1/snapshots", `{"date":"01/03/2026"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", w.Code)
	}

	env.snapshots.createErr = snapshot.ErrDuplicateDate
	if w := env.do(http.MethodPost, "/api/v1/snapshots", `{"date":"2026-03-01"}`); w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", w.Code)
	}
}

func TestListSnapshotsLimit(t *testing.T) {
	env := newTestEnv(false)

	env.do(http.MethodGet, "/api/v1/snapshots", "")
	if env.snapshots.lastLimit != snapshot.DefaultListLimit {
		t.Errorf("limit = %d, want %d", env.snapshots.lastLimit, snapshot.DefaultListLimit)
	}
	env.do(http.MethodGet, "/api/v1/snapshots?limit=5000", "")
	if env.snapshots.lastLimit != 1000 {
		t.Errorf("limit = %d, want capped 1000", env.snapshots.lastLimit)
	}
}

func TestCreatePlanUnknownAsset(t *testing.T) {
	env := newTestEnv(false)
	env.dca.err = dca.ErrUnknownAsset

	w := env.do(http.MethodPost, "/api/v1/dca", `{"name":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestToggleEntry(t *testing.T) {
	env := newTestEnv(false)

	body := decodeBody(t, env.do(http.MethodPost, "/api/v1/dca/entries/12/toggle", ""))
	if body["id"] != 12.0 || body["completed"] != true {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestRuleNotFound(t *testing.T) {
	env := newTestEnv(false)

	w := env.do(http.MethodGet, "/api/v1/rules/7", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDetectAssetType(t *testing.T) {
	env := newTestEnv(false)

	body := decodeBody(t, env.do(http.MethodGet, "/api/v1/detect?ticker=hglg11", ""))
	if body["assetType"] != "B3_FII" || body["ticker"] != "HGLG11" {
		t.Errorf("unexpected body: %v", body)
	}
	if w := env.do(http.MethodGet, "/api/v1/detect", ""); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestExportXLSX(t *testing.T) {
	env := newTestEnv(false)

	w := env.do(http.MethodGet, "/api/v1/export.xlsx", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != xlsxContentType {
		t.Errorf("Content-Type = %q", got)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment;") {
		t.Errorf("Content-Disposition = %q", w.Header().Get("Content-Disposition"))
	}

	env.export.err = errors.New("disk full")
	if w := env.do(http.MethodGet, "/api/v1/export.xlsx", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
