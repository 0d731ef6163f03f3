package lookup

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ust-lookup/internal/dataset"
	"github.com/ust-lookup/internal/facility"
	"github.com/ust-lookup/internal/join"
	"github.com/ust-lookup/internal/table"
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

type fakeRecorder struct {
	outcomes []string
	stages   map[string]join.Stage
}

func (f *fakeRecorder) JoinStage(name string, stage join.Stage) { f.stages[name] = stage }
func (f *fakeRecorder) ObserveLookup(outcome string, _ time.Duration) {
	f.outcomes = append(f.outcomes, outcome)
}

func scenarioDataset(tankFacilityID string) *dataset.Dataset {
	tanks := strTable(dataset.Tanks,
		[]string{"facility id", "facility name", "tank number", "tank status", "contents", "capacity", "install date"},
		[]string{tankFacilityID, "Quick Stop", "1", "CURR IN USE", "Gasoline", "12000", "2001-04-01"},
	)
	owners := strTable(dataset.Owners,
		[]string{"facility id", "owner id", "name", "owner name", "owner address 1", "owner city", "owner state", "owner zip"},
		[]string{"1001", "500", "Quick Stop", "Valley Petroleum", "1 Main St", "Springfield", "VT", "5001"},
		[]string{"1001", "512", "Quick Stop", "Valley Petroleum", "1 Main St", "Springfield", "VT", "5001.0"},
	)
	pipe := strTable(dataset.PipeMaterials,
		[]string{"owner id", "tank number", "pipe material steel", "pipe material fiberglass"},
		[]string{"512", "1", "Y", "N"},
	)
	materials := strTable(dataset.TankMaterials,
		[]string{"facility id", "tank number", "tank material double walled", "tank material steel"},
		[]string{"1001", "1", "N", "Y"},
	)
	release := strTable(dataset.ReleaseDetection,
		[]string{"facility id", "tank number", "tank rd automatic tank gauging", "pipe rd line leak detector"},
		[]string{"1001", "1", "Y", "N"},
	)
	return dataset.New(tanks, owners, pipe, materials, release, nil)
}

func TestLookupScenarioA(t *testing.T) {
	rec := &fakeRecorder{stages: map[string]join.Stage{}}
	svc := NewStaticService(scenarioDataset("1001"), Options{}).WithRecorder(rec)

	got, err := svc.Lookup(context.Background(), "1001", nil)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Status != facility.Resolved {
		t.Fatalf("Lookup() status = %s, want %s", got.Status, facility.Resolved)
	}
	if got.Summary.FacilityID != "1001" {
		t.Errorf("Summary.FacilityID = %q, want %q", got.Summary.FacilityID, "1001")
	}
	if len(got.Tanks) != 1 {
		t.Fatalf("Lookup() tanks = %d, want 1", len(got.Tanks))
	}
	tank := got.Tanks[0]
	if tank.Capacity != "12,000" {
		t.Errorf("Capacity = %q, want %q", tank.Capacity, "12,000")
	}
	if !reflect.DeepEqual(tank.Piping, []string{"Steel"}) {
		t.Errorf("Piping = %v, want [Steel]", tank.Piping)
	}
	if !reflect.DeepEqual(tank.TankRD, []string{"Automatic Tank Gauging (ATG)"}) {
		t.Errorf("TankRD = %v", tank.TankRD)
	}
	if len(tank.PipeRD) != 0 {
		t.Errorf("PipeRD = %v, want empty", tank.PipeRD)
	}
	if tank.TankMaterial() != "Steel" {
		t.Errorf("TankMaterial() = %q, want %q", tank.TankMaterial(), "Steel")
	}

	wantSummary := Summary{
		Owner:        "Valley Petroleum",
		SiteName:     "Quick Stop",
		OwnerAddress: "1 Main St, Springfield, VT 05001",
		SiteAddress:  "N/A",
		FacilityID:   "1001",
		DealerID:     "512",
	}
	if got.Summary != wantSummary {
		t.Errorf("Summary = %+v, want %+v", got.Summary, wantSummary)
	}

	// pipe materials carry no facility column and join through the owner id
	if got.Stages[dataset.PipeMaterials] != join.StageOwnerID {
		t.Errorf("pipe stage = %s, want %s", got.Stages[dataset.PipeMaterials], join.StageOwnerID)
	}
	if rec.stages[dataset.PipeMaterials] != join.StageOwnerID {
		t.Errorf("recorded pipe stage = %s, want %s", rec.stages[dataset.PipeMaterials], join.StageOwnerID)
	}
	if !reflect.DeepEqual(rec.outcomes, []string{"resolved"}) {
		t.Errorf("recorded outcomes = %v", rec.outcomes)
	}
}

func TestLookupScenarioB(t *testing.T) {
	svc := NewStaticService(scenarioDataset("1001.0"), Options{})
	got, err := svc.Lookup(context.Background(), "1001", nil)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Status != facility.Resolved || got.Summary.FacilityID != "1001" {
		t.Fatalf("Lookup() = %s %q, want resolved 1001", got.Status, got.Summary.FacilityID)
	}
	if len(got.Tanks) != 1 {
		t.Errorf("Lookup() tanks = %d, want 1", len(got.Tanks))
	}
}

func ambiguousDataset() *dataset.Dataset {
	tanks := strTable(dataset.Tanks,
		[]string{"facility id", "tank number", "tank status"},
		[]string{"1001", "1", "CURR IN USE"},
		[]string{"2002", "1", "CURR IN USE"},
		[]string{"2002", "2", "CURR IN USE"},
	)
	owners := strTable(dataset.Owners,
		[]string{"facility id", "owner id", "name", "owner name"},
		[]string{"1001", "1", "North Station", "Maple Fuels"},
		[]string{"2002", "2", "South Station", "Maple Fuels Inc"},
	)
	return dataset.New(tanks, owners, nil, nil, nil, nil)
}

func TestLookupScenarioC(t *testing.T) {
	svc := NewStaticService(ambiguousDataset(), Options{})

	got, err := svc.Lookup(context.Background(), "maple fuels", nil)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Status != facility.Ambiguous {
		t.Fatalf("Lookup() status = %s, want %s", got.Status, facility.Ambiguous)
	}
	if len(got.Candidates) != 2 {
		t.Fatalf("Lookup() candidates = %d, want 2", len(got.Candidates))
	}
	if len(got.Tanks) != 0 {
		t.Errorf("Lookup() auto-picked %d tanks", len(got.Tanks))
	}

	var offered []string
	pick := ChooserFunc(func(_ context.Context, c []facility.Candidate) (table.Value, error) {
		for _, cand := range c {
			offered = append(offered, cand.Label())
		}
		return c[1].ID, nil
	})
	chosen, err := svc.Lookup(context.Background(), "maple fuels", pick)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	wantOffered := []string{"1001 — North Station — N/A", "2002 — South Station — N/A"}
	if !reflect.DeepEqual(offered, wantOffered) {
		t.Errorf("offered = %v, want %v", offered, wantOffered)
	}
	if chosen.Status != facility.Resolved || chosen.Summary.FacilityID != "2002" || len(chosen.Tanks) != 2 {
		t.Errorf("Lookup() with chooser = %s %q tanks=%d, want resolved 2002 with 2 tanks",
			chosen.Status, chosen.Summary.FacilityID, len(chosen.Tanks))
	}
}

func TestLookupChooserErrors(t *testing.T) {
	svc := NewStaticService(ambiguousDataset(), Options{})
	boom := errors.New("boom")

	_, err := svc.Lookup(context.Background(), "maple", ChooserFunc(func(context.Context, []facility.Candidate) (table.Value, error) {
		return table.Value{}, boom
	}))
	if !errors.Is(err, boom) {
		t.Errorf("Lookup() error = %v, want wrapped boom", err)
	}

	_, err = svc.Lookup(context.Background(), "maple", ChooserFunc(func(context.Context, []facility.Candidate) (table.Value, error) {
		return table.Null(), nil
	}))
	if !errors.Is(err, ErrNoSelection) {
		t.Errorf("Lookup() error = %v, want ErrNoSelection", err)
	}
}

func TestLookupScenarioE(t *testing.T) {
	tanks := strTable(dataset.Tanks,
		[]string{"facility id", "tank number", "tank status"},
		[]string{"1001", "1", "PERM OUT OF USE"},
		[]string{"1001", "2", "TEMP OUT OF USE"},
	)
	svc := NewStaticService(dataset.New(tanks, nil, nil, nil, nil, nil), Options{})
	got, err := svc.Lookup(context.Background(), "1001", nil)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Status != facility.Resolved {
		t.Fatalf("Lookup() status = %s, want %s", got.Status, facility.Resolved)
	}
	if got.Tanks == nil || len(got.Tanks) != 0 {
		t.Errorf("Lookup() tanks = %v, want empty", got.Tanks)
	}
	if got.Summary.Owner != "N/A" || got.Summary.DealerID != "N/A" {
		t.Errorf("Summary = %+v, want N/A owner fields", got.Summary)
	}
}

func TestLookupNotFound(t *testing.T) {
	svc := NewStaticService(scenarioDataset("1001"), Options{})
	got, err := svc.Lookup(context.Background(), "no such place", nil)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Status != facility.NotFound {
		t.Errorf("Lookup() status = %s, want %s", got.Status, facility.NotFound)
	}
}

func TestLookupCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewStaticService(scenarioDataset("1001"), Options{}).Lookup(ctx, "1001", nil); err == nil {
		t.Error("Lookup() on cancelled context returned no error")
	}
}

func TestFacilityByID(t *testing.T) {
	svc := NewStaticService(scenarioDataset("1001"), Options{Debug: true})

	got, err := svc.Facility(context.Background(), "1001")
	if err != nil {
		t.Fatalf("Facility() error = %v", err)
	}
	if got.Status != facility.Resolved || len(got.Tanks) != 1 {
		t.Errorf("Facility() = %s tanks=%d, want resolved with 1 tank", got.Status, len(got.Tanks))
	}
	if len(got.Trace) == 0 {
		t.Error("Facility() with debug recorded no trace")
	}

	missing, err := svc.Facility(context.Background(), "7777")
	if err != nil {
		t.Fatalf("Facility() error = %v", err)
	}
	if missing.Status != facility.NotFound {
		t.Errorf("Facility() status = %s, want %s", missing.Status, facility.NotFound)
	}
}

func TestMaxIdentifier(t *testing.T) {
	tests := []struct {
		name   string
		values []table.Value
		want   string
		ok     bool
	}{
		{"numeric max", []table.Value{table.Str("9"), table.Str("120"), table.FloatValue(33)}, "120", true},
		{"numeric beats text", []table.Value{table.Str("zzz"), table.Str("5")}, "5", true},
		{"text only", []table.Value{table.Str("A7"), table.Str("B2")}, "B2", true},
		{"empty", []table.Value{table.Null()}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := maxIdentifier(tt.values)
			if ok != tt.ok || (ok && got.String() != tt.want) {
				t.Errorf("maxIdentifier() = %q, %v, want %q, %v", got.String(), ok, tt.want, tt.ok)
			}
		})
	}
}
