package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ust-lookup/internal/join"
)

func TestObserveLookup(t *testing.T) {
	m := New()
	m.ObserveLookup("resolved", 2*time.Millisecond)
	m.ObserveLookup("resolved", 3*time.Millisecond)
	m.ObserveLookup("ambiguous", time.Millisecond)

	if got := testutil.ToFloat64(m.Lookups.WithLabelValues("resolved")); got != 2 {
		t.Errorf("lookups{resolved} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Lookups.WithLabelValues("ambiguous")); got != 1 {
		t.Errorf("lookups{ambiguous} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.LookupDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestJoinStage(t *testing.T) {
	m := New()
	m.JoinStage("pipe materials", join.StageOwnerID)
	m.JoinStage("pipe materials", join.StageOwnerID)
	m.JoinStage("owners", join.StageFacilityID)

	if got := testutil.ToFloat64(m.JoinStages.WithLabelValues("pipe materials", "owner-id")); got != 2 {
		t.Errorf("join_stage{pipe materials,owner-id} = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.JoinStages); got != 2 {
		t.Errorf("join_stage series = %d, want 2", got)
	}
}

func TestReloadAndRows(t *testing.T) {
	m := New()
	m.ObserveReload(nil)
	m.ObserveReload(errors.New("boom"))
	m.SetTableRows("tanks", 12)

	if got := testutil.ToFloat64(m.DatasetReloads.WithLabelValues("error")); got != 1 {
		t.Errorf("reloads{error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.DatasetRows.WithLabelValues("tanks")); got != 12 {
		t.Errorf("dataset_rows{tanks} = %v, want 12", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveLookup("not-found", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `ustlookup_lookups_total{outcome="not-found"} 1`) {
		t.Errorf("exposition missing lookup counter:\n%s", rec.Body.String())
	}
}
