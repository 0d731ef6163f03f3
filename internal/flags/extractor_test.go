package flags

import (
	"reflect"
	"testing"

	"github.com/ust-lookup/internal/table"
)

func row(cols []string, vals ...string) table.Row {
	cells := make([]table.Value, len(vals))
	for i, v := range vals {
		cells[i] = table.Str(v)
	}
	return table.New("t", cols, [][]table.Value{cells}).Row(0)
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		cols   []string
		vals   []string
		prefix string
		labels map[string]string
		want   []string
	}{
		{
			name:   "steel active fiberglass inactive",
			cols:   []string{"facility id", "pipe material steel", "pipe material fiberglass"},
			vals:   []string{"1001", "Y", "N"},
			prefix: PipeMaterialPrefix,
			want:   []string{"Steel"},
		},
		{
			name:   "truthy tokens",
			cols:   []string{"pipe material a", "pipe material b", "pipe material c", "pipe material d", "pipe material e", "pipe material f", "pipe material g"},
			vals:   []string{"yes", "TRUE", " t ", "1", "x", "no", "0"},
			prefix: PipeMaterialPrefix,
			want:   []string{"A", "B", "C", "D", "E"},
		},
		{
			name:   "punctuation after prefix",
			cols:   []string{"pipe material: copper", "pipe material - flexible piping"},
			vals:   []string{"Y", "Y"},
			prefix: PipeMaterialPrefix,
			labels: PipeMaterialLabels,
			want:   []string{"Copper", "Flexible Piping"},
		},
		{
			name:   "other with free text",
			cols:   []string{"pipe material other", "pipe material other description"},
			vals:   []string{"Y", "Copper-nickel"},
			prefix: PipeMaterialPrefix,
			want:   []string{"Other (Copper-nickel)"},
		},
		{
			name:   "rd methods mapped through dictionary",
			cols:   []string{"tank rd automatic tank gauging", "tank rd vapor monitoring", "pipe rd line leak detector", "tank rd smart sensor"},
			vals:   []string{"Y", "N", "Y", "y"},
			prefix: TankRDPrefix,
			labels: ReleaseDetectionLabels,
			want:   []string{"Automatic Tank Gauging (ATG)", "Smart Sensor"},
		},
		{
			name:   "duplicate labels kept",
			cols:   []string{"pipe rd line leak detector", "pipe rd  line leak detector"},
			vals:   []string{"Y", "Y"},
			prefix: PipeRDPrefix,
			labels: ReleaseDetectionLabels,
			want:   []string{"Line Leak Detector", "Line Leak Detector"},
		},
		{
			name:   "no matching columns",
			cols:   []string{"facility id", "tank number"},
			vals:   []string{"1", "1"},
			prefix: PipeRDPrefix,
			want:   []string{},
		},
		{
			name:   "all falsy",
			cols:   []string{"pipe rd a", "pipe rd b"},
			vals:   []string{"N", ""},
			prefix: PipeRDPrefix,
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(row(tt.cols, tt.vals...), tt.prefix, tt.labels)
			if got == nil {
				t.Fatalf("Extract() returned nil, want empty slice")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractDuplicatesAcrossNames(t *testing.T) {
	r := row([]string{"tank rd statistical inventory reconciliation", "tank rd statistical inventory reconciliation (sir)"}, "Y", "Y")
	got := Extract(r, TankRDPrefix, ReleaseDetectionLabels)
	want := []string{"Statistical Inventory Reconciliation (SIR)", "Statistical Inventory Reconciliation (SIR)"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}

func TestExtractExcept(t *testing.T) {
	r := row([]string{"tank material frp", "tank material double walled", "tank material steel"}, "Y", "Y", "N")
	got := ExtractExcept(r, TankMaterialPrefix, TankMaterialLabels, "tank material double walled")
	want := []string{"Fiberglass Reinforced Plastic (FRP)"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractExcept() = %v, want %v", got, want)
	}
}

func TestJoin(t *testing.T) {
	if got := Join(nil); got != NotListed {
		t.Errorf("Join(nil) = %q, want %q", got, NotListed)
	}
	if got := Join([]string{"A", "B"}); got != "A, B" {
		t.Errorf("Join() = %q, want %q", got, "A, B")
	}
}
