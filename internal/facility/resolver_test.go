package facility

import (
	"reflect"
	"testing"

	"github.com/ust-lookup/internal/dataset"
	"github.com/ust-lookup/internal/debug"
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

func testDataset() *dataset.Dataset {
	tanks := strTable(dataset.Tanks,
		[]string{"facility id", "facility name", "tank number", "tank status"},
		[]string{"1001", "Quick Stop #4", "1", "CURR IN USE"},
		[]string{"1001", "Quick Stop #4", "2", "CURR IN USE"},
		[]string{"2002.0", "Harbor Fuel", "1", "CURR IN USE"},
		[]string{"3003", "", "1", "CURR IN USE"},
	)
	owners := strTable(dataset.Owners,
		[]string{"facility id", "owner id", "name", "owner name", "owner address 1", "owner city", "owner state", "owner zip"},
		[]string{"1001", "77", "Quick Stop", "Valley Petroleum LLC", "1 Main St", "Springfield", "VT", "5001"},
		[]string{"3003", "78", "Valley Mart", "Valley Petroleum LLC", "9 Elm St", "Shelburne", "VT", "5482"},
		[]string{"3003", "79", "Valley Mart II", "Valley Petroleum LLC", "9 Elm St", "Shelburne", "VT", "5482"},
	)
	site := strTable(dataset.SiteInfo,
		[]string{"facility id", "name", "site address", "site city", "site state", "zip 5"},
		[]string{"1001", "Quick Stop Site", "12 River Rd", "Springfield", "VT", "5156.0"},
		[]string{"4004", "Lakeside Marina", "3 Shore Dr", "Burlington", "VT", "05401"},
	)
	return dataset.New(tanks, owners, nil, nil, nil, site)
}

func TestResolve(t *testing.T) {
	ds := testDataset()

	tests := []struct {
		name       string
		query      string
		wantStatus Status
		wantID     string
		wantPath   []string
	}{
		{
			name:       "integer identifier",
			query:      "1001",
			wantStatus: Resolved,
			wantID:     "1001",
			wantPath:   []string{StepIdentifier},
		},
		{
			name:       "float string identifier",
			query:      "2002",
			wantStatus: Resolved,
			wantID:     "2002.0",
			wantPath:   []string{StepIdentifier},
		},
		{
			name:       "leading zeros in query",
			query:      " 01001 ",
			wantStatus: Resolved,
			wantID:     "1001",
			wantPath:   []string{StepIdentifier},
		},
		{
			name:       "facility name substring",
			query:      "harbor",
			wantStatus: Resolved,
			wantID:     "2002.0",
			wantPath:   []string{StepFacilityName},
		},
		{
			name:       "owner address",
			query:      "1 main st, springfield",
			wantStatus: Resolved,
			wantID:     "1001",
			wantPath:   []string{StepFacilityName, StepOwners},
		},
		{
			name:       "site info name",
			query:      "lakeside",
			wantStatus: Resolved,
			wantID:     "4004",
			wantPath:   []string{StepFacilityName, StepOwners, StepSiteInfo},
		},
		{
			name:       "unknown integer falls through to text search",
			query:      "9999",
			wantStatus: NotFound,
			wantPath:   []string{StepIdentifier, StepFacilityName, StepOwners, StepSiteInfo},
		},
		{
			name:       "empty query",
			query:      "   ",
			wantStatus: NotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewResolver(ds, nil).Resolve(tt.query)
			if got.Status != tt.wantStatus {
				t.Fatalf("Resolve(%q) status = %s, want %s", tt.query, got.Status, tt.wantStatus)
			}
			if got.Status == Resolved && got.FacilityID.String() != tt.wantID {
				t.Errorf("Resolve(%q) id = %s, want %s", tt.query, got.FacilityID, tt.wantID)
			}
			if !reflect.DeepEqual(got.Path, tt.wantPath) {
				t.Errorf("Resolve(%q) path = %v, want %v", tt.query, got.Path, tt.wantPath)
			}
		})
	}
}

// Two owners matching a name substring that point at different facilities
// must be offered as a choice.
func TestResolveAmbiguousOwners(t *testing.T) {
	got := NewResolver(testDataset(), debug.NewTrace(true)).Resolve("valley petroleum")
	if got.Status != Ambiguous {
		t.Fatalf("Resolve() status = %s, want %s", got.Status, Ambiguous)
	}
	if len(got.Candidates) != 2 {
		t.Fatalf("Resolve() candidates = %d, want 2", len(got.Candidates))
	}

	want := []string{
		"1001 — Quick Stop — 12 River Rd, Springfield, VT 05156",
		"3003 — Valley Mart II — N/A",
	}
	for i, c := range got.Candidates {
		if c.Label() != want[i] {
			t.Errorf("candidate %d label = %q, want %q", i, c.Label(), want[i])
		}
	}
}

func TestResolveDedupesByDigits(t *testing.T) {
	owners := strTable(dataset.Owners,
		[]string{"facility id", "name"},
		[]string{"0042", "Corner Gas"},
		[]string{"42.0", "Corner Gas East"},
	)
	ds := dataset.New(nil, owners, nil, nil, nil, nil)
	got := NewResolver(ds, nil).Resolve("corner gas")
	if got.Status != Resolved {
		t.Fatalf("Resolve() status = %s, want %s", got.Status, Resolved)
	}
	if got.FacilityID.String() != "0042" {
		t.Errorf("Resolve() id = %s, want first seen 0042", got.FacilityID)
	}
}

// Identifiers that only agree numerically are still one facility.
func TestResolveIdentifierGroupsByWinningStrategy(t *testing.T) {
	tanks := strTable(dataset.Tanks,
		[]string{"facility id", "tank number", "tank status"},
		[]string{"1001.00", "1", "CURR IN USE"},
		[]string{"1001.000", "2", "CURR IN USE"},
	)
	ds := dataset.New(tanks, nil, nil, nil, nil, nil)
	got := NewResolver(ds, nil).Resolve("1001")
	if got.Status != Resolved {
		t.Fatalf("Resolve() status = %s with %d candidates, want %s", got.Status, len(got.Candidates), Resolved)
	}
	if got.FacilityID.String() != "1001.00" {
		t.Errorf("Resolve() id = %s, want 1001.00", got.FacilityID)
	}
	if !reflect.DeepEqual(got.Path, []string{StepIdentifier}) {
		t.Errorf("Resolve() path = %v, want %v", got.Path, []string{StepIdentifier})
	}
}

func TestResolveWithoutTables(t *testing.T) {
	ds := dataset.New(nil, nil, nil, nil, nil, nil)
	for _, q := range []string{"1001", "anything"} {
		if got := NewResolver(ds, nil).Resolve(q); got.Status != NotFound {
			t.Errorf("Resolve(%q) status = %s, want %s", q, got.Status, NotFound)
		}
	}
}

func TestCandidateLabel(t *testing.T) {
	tests := []struct {
		name string
		c    Candidate
		want string
	}{
		{"all parts", Candidate{ID: table.FloatValue(1001), Name: "A", Address: "B"}, "1001 — A — B"},
		{"missing parts", Candidate{ID: table.Str("7")}, "7 — N/A — N/A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCandidateFallsBackToSiteName(t *testing.T) {
	c := NewResolver(testDataset(), nil).Candidate(table.Str("4004"))
	if c.Name != "Lakeside Marina" {
		t.Errorf("Candidate() name = %q, want %q", c.Name, "Lakeside Marina")
	}
	if c.Address != "3 Shore Dr, Burlington, VT 05401" {
		t.Errorf("Candidate() address = %q", c.Address)
	}
}
