package assemble

import (
	"fmt"
	"strings"

	"github.com/ust-lookup/internal/columns"
	"github.com/ust-lookup/internal/debug"
	"github.com/ust-lookup/internal/flags"
	"github.com/ust-lookup/internal/join"
	"github.com/ust-lookup/internal/normalize"
	"github.com/ust-lookup/internal/table"
)

// Confidence says how the double-wall flag was located
type Confidence string

const (
	ConfidenceNamed      Confidence = "named"
	ConfidenceSchema     Confidence = "schema"
	ConfidencePositional Confidence = "positional"
	ConfidenceUnknown    Confidence = "unknown"
)

// PositionalDoubleWall is the column index ("Column L") older tank
// materials exports keep the double-wall flag in
const PositionalDoubleWall = 11

// DoubleWall is the double-wall flag of a tank and how it was decided
type DoubleWall struct {
	Value      bool
	Confidence Confidence
}

func (d DoubleWall) String() string {
	if d.Confidence == ConfidenceUnknown {
		return "Unknown"
	}
	if d.Value {
		return "Yes"
	}
	return "No"
}

// TankRecord is the display-ready summary of one active tank
type TankRecord struct {
	FacilityID    table.Value
	TankNumber    table.Value
	Contents      string
	Capacity      string
	InstallDate   string
	Status        string
	DoubleWall    DoubleWall
	TankMaterials []string
	Piping        []string
	TankRD        []string
	PipeRD        []string
}

// TankMaterial renders the tank material labels
func (r TankRecord) TankMaterial() string {
	return flags.Join(r.TankMaterials)
}

// Options tune assembly
type Options struct {
	// DoubleWallColumns maps a source schema version to the column holding
	// the double-wall flag in that version
	DoubleWallColumns map[string]string
	SchemaVersion     string
	Trace             *debug.Trace
}

// Assembler combines the joined detail rows of a facility into tank records
type Assembler struct {
	cols   *columns.Resolver
	joiner *join.Joiner
	opts   Options
}

// NewAssembler creates an assembler resolving columns through cols
func NewAssembler(cols *columns.Resolver, opts Options) *Assembler {
	if cols == nil {
		cols = columns.NewResolver(nil)
	}
	return &Assembler{cols: cols, joiner: join.NewJoiner(cols), opts: opts}
}

// Input holds a facility's joined rows
type Input struct {
	FacilityID table.Value
	OwnerID    table.Value
	Tanks      *table.Table
	Materials  *table.Table
	Pipe       *table.Table
	Release    *table.Table
}

// Assemble builds one record per active tank, in tank row order. Tanks
// without the active status are left out; a tanks table without a status
// column yields no records and a warning.
func (a *Assembler) Assemble(in Input) ([]TankRecord, []string) {
	var warnings []string
	records := []TankRecord{}

	statusCol, ok := a.cols.Column(in.Tanks, columns.TankStatus)
	if !ok {
		if in.Tanks.Len() > 0 {
			warnings = append(warnings, fmt.Sprintf("no tank status column in %s; no active tanks can be listed", in.Tanks.Name()))
		}
		return records, warnings
	}
	tankCol, hasTankCol := a.cols.Column(in.Tanks, columns.TankNumber)
	if !hasTankCol {
		warnings = append(warnings, fmt.Sprintf("no tank number column in %s; detail rows cannot be matched to tanks", in.Tanks.Name()))
	}

	for _, row := range in.Tanks.Rows() {
		status, _ := row.Get(statusCol)
		if !normalize.IsActiveStatus(status) {
			continue
		}
		var tankNum table.Value
		if hasTankCol {
			tankNum, _ = row.Get(tankCol)
		}
		rec := TankRecord{
			FacilityID:  in.FacilityID,
			TankNumber:  tankNum,
			Contents:    textOrNA(row, "contents"),
			Capacity:    capacityOf(row),
			InstallDate: textOrNA(row, "install date"),
			Status:      strings.TrimSpace(status.String()),
		}

		var material, pipe, release table.Row
		var hasMaterial, hasPipe, hasRelease bool
		if hasTankCol {
			material, hasMaterial = a.pick(in.Materials, in, tankNum)
			pipe, hasPipe = a.pick(in.Pipe, in, tankNum)
			release, hasRelease = a.pick(in.Release, in, tankNum)
		}

		rec.DoubleWall = DoubleWall{Confidence: ConfidenceUnknown}
		rec.TankMaterials = []string{}
		if hasMaterial {
			var dwCol string
			rec.DoubleWall, dwCol = a.doubleWall(in.Materials, material)
			skip := []string{}
			if dwCol != "" {
				skip = append(skip, dwCol)
			}
			rec.TankMaterials = flags.ExtractExcept(material, flags.TankMaterialPrefix, flags.TankMaterialLabels, skip...)
		}

		rec.Piping = []string{}
		if hasPipe {
			rec.Piping = Piping(pipe)
		}

		rec.TankRD, rec.PipeRD = []string{}, []string{}
		if hasRelease {
			rec.TankRD = flags.Extract(release, flags.TankRDPrefix, flags.ReleaseDetectionLabels)
			rec.PipeRD = flags.Extract(release, flags.PipeRDPrefix, flags.ReleaseDetectionLabels)
		}

		a.opts.Trace.Add("assemble", "tank %s: material=%v pipe=%v release=%v double wall=%s (%s)",
			tankNum.String(), hasMaterial, hasPipe, hasRelease, rec.DoubleWall, rec.DoubleWall.Confidence)
		records = append(records, rec)
	}
	return records, warnings
}

// pick narrows t to one tank and walks the preference chain: rows of this
// facility, then rows with the exact tank number, then active rows. Each step
// only applies when it keeps at least one row; the first survivor wins.
func (a *Assembler) pick(t *table.Table, in Input, tankNum table.Value) (table.Row, bool) {
	rows := a.joiner.NarrowTank(t, tankNum)
	if rows.Len() == 0 {
		return table.Row{}, false
	}

	if fr, ok := a.cols.Resolve(rows, columns.FacilityID); ok {
		want := in.FacilityID
		if fr.Fallback && fr.Via == columns.OwnerID && !in.OwnerID.IsMissing() {
			want = in.OwnerID
		}
		rows = prefer(rows, func(r table.Row) bool {
			v, _ := r.Get(fr.Column)
			return normalize.NormalizedString(v) == normalize.NormalizedString(want)
		})
	}
	if col, ok := a.cols.Column(rows, columns.TankNumber); ok {
		rows = prefer(rows, func(r table.Row) bool {
			v, _ := r.Get(col)
			return normalize.RawEqual(v, tankNum)
		})
	}
	if col, ok := a.cols.Column(rows, columns.TankStatus); ok {
		rows = prefer(rows, func(r table.Row) bool {
			v, _ := r.Get(col)
			return normalize.IsActiveStatus(v)
		})
	}
	return rows.Row(0), true
}

func prefer(t *table.Table, pred func(table.Row) bool) *table.Table {
	if narrowed := t.Filter(pred); narrowed.Len() > 0 {
		return narrowed
	}
	return t
}

// doubleWall decides the flag from a tank materials row and returns the
// column it was read from
func (a *Assembler) doubleWall(t *table.Table, row table.Row) (DoubleWall, string) {
	if col, ok := a.cols.Column(t, columns.DoubleWall); ok {
		v, _ := row.Get(col)
		return DoubleWall{Value: flags.IsTruthy(v), Confidence: ConfidenceNamed}, col
	}
	if col, ok := a.opts.DoubleWallColumns[a.opts.SchemaVersion]; ok && col != "" {
		if v, present := row.Get(col); present {
			return DoubleWall{Value: flags.IsTruthy(v), Confidence: ConfidenceSchema}, table.NormalizeColumn(col)
		}
	}
	if cols := row.Columns(); len(cols) > PositionalDoubleWall {
		v, _ := row.At(PositionalDoubleWall)
		return DoubleWall{Value: flags.IsTruthy(v), Confidence: ConfidencePositional}, cols[PositionalDoubleWall]
	}
	return DoubleWall{Confidence: ConfidenceUnknown}, ""
}

// FiberglassDoubleWall is reported by legacy pipe exports that only mark
// fiberglass piping
const FiberglassDoubleWall = "Fiberglass (Double Wall)"

var descriptiveColumns = []string{"piping material", "pipe material", "pipe materials"}

// Piping lists the piping materials of a pipe row. Rows without active
// "pipe material" flags fall back to the legacy layouts: a fiberglass marker
// column or cell, or a single descriptive material column.
func Piping(row table.Row) []string {
	if labels := flags.Extract(row, flags.PipeMaterialPrefix, flags.PipeMaterialLabels); len(labels) > 0 {
		return labels
	}

	cols := row.Columns()
	for i, col := range cols {
		if !strings.Contains(col, "fiberglass") {
			continue
		}
		v, _ := row.At(i)
		switch strings.ToLower(strings.TrimSpace(v.String())) {
		case "y", "yes", "fiberglass":
			return []string{FiberglassDoubleWall}
		}
	}
	for i := range cols {
		v, _ := row.At(i)
		if strings.EqualFold(strings.TrimSpace(v.String()), "fiberglass") {
			return []string{FiberglassDoubleWall}
		}
	}
	for _, c := range descriptiveColumns {
		if v, ok := row.Get(c); ok && !v.IsMissing() && !flags.IsTruthy(v) {
			return []string{strings.TrimSpace(v.String())}
		}
	}
	return []string{}
}

func textOrNA(row table.Row, col string) string {
	v, ok := row.Get(col)
	if !ok || v.IsMissing() {
		return "N/A"
	}
	return strings.TrimSpace(v.String())
}

func capacityOf(row table.Row) string {
	v, ok := row.Get("capacity")
	if !ok {
		return "N/A"
	}
	return FormatCapacity(v)
}
