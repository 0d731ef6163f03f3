package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ust-lookup/internal/dataset"
	"github.com/ust-lookup/internal/lookup"
	"github.com/ust-lookup/internal/metrics"
	"github.com/ust-lookup/internal/render"
	"github.com/ust-lookup/internal/table"
	"github.com/ust-lookup/internal/web/middleware"
)

func strTable(name string, cols []string, rows ...[]string) *table.Table {
	cells := make([][]table.Value, len(rows))
	for i, r := range rows {
		cells[i] = make([]table.Value, len(r))
		for j, v := range r {
			cells[i][j] = table.Str(v)
		}
	}
	return table.New(name, cols, cells)
}

func testDataset() *dataset.Dataset {
	tanks := strTable(dataset.Tanks,
		[]string{"facility id", "facility name", "tank number", "tank status", "contents", "capacity"},
		[]string{"1001", "Quick Stop #4", "1", "CURR IN USE", "Gasoline", "12000"},
		[]string{"3003", "", "1", "CURR IN USE", "Diesel", "550"},
	)
	owners := strTable(dataset.Owners,
		[]string{"facility id", "owner id", "name", "owner name"},
		[]string{"1001", "77", "Quick Stop", "Valley Petroleum LLC"},
		[]string{"3003", "78", "Valley Mart", "Valley Petroleum LLC"},
	)
	return dataset.New(tanks, owners, nil, nil, nil, nil)
}

func newTestServer(t *testing.T, cfg *Config, deps Deps) http.Handler {
	t.Helper()
	if deps.Service == nil {
		deps.Service = lookup.NewStaticService(testDataset(), lookup.Options{})
	}
	srv, err := NewServer(cfg, deps)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return srv.Handler()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLookupEndpoint(t *testing.T) {
	h := newTestServer(t, DefaultConfig(), Deps{})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantState  string
	}{
		{"resolved", "/api/lookup?q=1001", http.StatusOK, "resolved"},
		{"ambiguous", "/api/lookup?q=valley+petroleum", http.StatusMultipleChoices, "ambiguous"},
		{"not found", "/api/lookup?q=nowhere", http.StatusNotFound, "not-found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.path)
			if rec.Code != tt.wantStatus {
				t.Fatalf("GET %s status = %d, want %d", tt.path, rec.Code, tt.wantStatus)
			}
			var v render.FacilityView
			if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if v.Status != tt.wantState {
				t.Errorf("status field = %q, want %q", v.Status, tt.wantState)
			}
		})
	}

	if rec := get(t, h, "/api/lookup"); rec.Code != http.StatusBadRequest {
		t.Errorf("GET /api/lookup without q status = %d, want 400", rec.Code)
	}
}

func TestLookupEndpointBody(t *testing.T) {
	h := newTestServer(t, DefaultConfig(), Deps{})

	rec := get(t, h, "/api/lookup?q=1001")
	var v render.FacilityView
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Summary == nil || v.Summary.Owner != "Valley Petroleum LLC" {
		t.Errorf("summary = %+v", v.Summary)
	}
	if len(v.Tanks) != 1 || v.Tanks[0].Capacity != "12,000" {
		t.Errorf("tanks = %+v", v.Tanks)
	}

	rec = get(t, h, "/api/lookup?q=valley+petroleum")
	v = render.FacilityView{}
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(v.Candidates) != 2 || v.Candidates[0].FacilityID != "1001" {
		t.Errorf("candidates = %+v", v.Candidates)
	}
}

func TestFacilityEndpoints(t *testing.T) {
	h := newTestServer(t, DefaultConfig(), Deps{})

	if rec := get(t, h, "/api/facilities/3003"); rec.Code != http.StatusOK {
		t.Errorf("GET /api/facilities/3003 status = %d, want 200", rec.Code)
	}
	if rec := get(t, h, "/api/facilities/9999"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /api/facilities/9999 status = %d, want 404", rec.Code)
	}

	rec := get(t, h, "/facilities/1001")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /facilities/1001 status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Tank #1: Gasoline") {
		t.Errorf("page body missing tank:\n%s", rec.Body.String())
	}

	if rec := get(t, h, "/search?q=valley+petroleum"); rec.Code != http.StatusMultipleChoices {
		t.Errorf("GET /search status = %d, want 300", rec.Code)
	}
}

func TestColumnsStatsHealth(t *testing.T) {
	h := newTestServer(t, DefaultConfig(), Deps{})

	var reports []render.TableReport
	rec := get(t, h, "/api/columns")
	if err := json.NewDecoder(rec.Body).Decode(&reports); err != nil {
		t.Fatalf("decode columns: %v", err)
	}
	if len(reports) == 0 || reports[0].Name != dataset.Tanks {
		t.Errorf("columns = %+v", reports)
	}

	rec = get(t, h, "/api/stats")
	if !strings.Contains(rec.Body.String(), `"tanks":2`) {
		t.Errorf("stats = %s", rec.Body.String())
	}

	rec = get(t, h, "/healthz")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestReloadEndpoint(t *testing.T) {
	calls := 0
	h := newTestServer(t, DefaultConfig(), Deps{Reload: func(context.Context) (*dataset.Dataset, error) {
		calls++
		return testDataset(), nil
	}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	if rec.Code != http.StatusOK || calls != 1 {
		t.Errorf("POST /api/reload = %d with %d calls", rec.Code, calls)
	}

	noReload := newTestServer(t, DefaultConfig(), Deps{})
	rec = httptest.NewRecorder()
	noReload.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	if rec.Code == http.StatusOK {
		t.Error("reload should not be mounted without a reload hook")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	svc := lookup.NewStaticService(testDataset(), lookup.Options{}).WithRecorder(m)
	h := newTestServer(t, DefaultConfig(), Deps{Service: svc, Metrics: m.Handler()})

	get(t, h, "/api/lookup?q=1001")
	rec := get(t, h, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `ustlookup_lookups_total{outcome="resolved"} 1`) {
		t.Errorf("metrics missing lookup count")
	}
}

func TestAuthentication(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth = AuthConfig{Enabled: true, APIKey: "secret"}
	h := newTestServer(t, cfg, Deps{})

	if rec := get(t, h, "/api/lookup?q=1001"); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/lookup?q=1001", nil)
	req.Header.Set(middleware.APIKeyHeader, "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", rec.Code)
	}

	if rec := get(t, h, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz should stay open, got %d", rec.Code)
	}
}

func TestMiddleware(t *testing.T) {
	h := newTestServer(t, DefaultConfig(), Deps{})

	rec := get(t, h, "/healthz")
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("response missing request id")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("response missing CORS header")
	}

	pre := httptest.NewRecorder()
	h.ServeHTTP(pre, httptest.NewRequest(http.MethodOptions, "/api/lookup", nil))
	if pre.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", pre.Code)
	}
}

func TestNewServerNeedsService(t *testing.T) {
	if _, err := NewServer(DefaultConfig(), Deps{}); err == nil {
		t.Error("NewServer() without service error = nil")
	}
}

func TestHealthDegraded(t *testing.T) {
	withWarnings := testDataset()
	withWarnings.Warnings = []string{"owners (owner.csv): no such file"}

	tests := []struct {
		name string
		ds   *dataset.Dataset
		want string
	}{
		{"loaded cleanly", testDataset(), `"ok"`},
		{"load warnings", withWarnings, `"degraded"`},
		{"no tanks", dataset.New(nil, nil, nil, nil, nil, nil), `"degraded"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, DefaultConfig(), Deps{Service: lookup.NewStaticService(tt.ds, lookup.Options{})})
			rec := get(t, h, "/healthz")
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("healthz = %s, want %s", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestTraceRequiresDebugFeature(t *testing.T) {
	svc := lookup.NewStaticService(testDataset(), lookup.Options{Debug: true})

	tests := []struct {
		name      string
		debug     bool
		wantTrace bool
	}{
		{"debug disabled", false, false},
		{"debug enabled", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Features.DebugEnabled = tt.debug
			h := newTestServer(t, cfg, Deps{Service: svc})

			for _, path := range []string{"/api/lookup?q=1001", "/api/facilities/1001"} {
				var view render.FacilityView
				if err := json.NewDecoder(get(t, h, path).Body).Decode(&view); err != nil {
					t.Fatalf("decode %s: %v", path, err)
				}
				if got := len(view.Trace) > 0; got != tt.wantTrace {
					t.Errorf("GET %s trace present = %v, want %v", path, got, tt.wantTrace)
				}
			}
		})
	}
}
