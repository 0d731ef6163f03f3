package join

import (
	"fmt"

	"github.com/ust-lookup/internal/columns"
	"github.com/ust-lookup/internal/debug"
	"github.com/ust-lookup/internal/normalize"
	"github.com/ust-lookup/internal/table"
)

// Stage names the join step that produced a result
type Stage string

const (
	StageNone       Stage = "none"
	StageFacilityID Stage = "facility-id"
	StageOwnerID    Stage = "owner-id"
	StageTankNumber Stage = "tank-number"
	StageAlternate  Stage = "alternate"
)

// Options carries the per-facility inputs of a join
type Options struct {
	// OwnerID is the owner identifier derived from the joined owner rows. A
	// missing value skips the owner-id stage.
	OwnerID table.Value
	// TankNumberFallback enables the last-resort comparison of the tank
	// number column with the facility id
	TankNumberFallback bool
	// Alternate is consulted with the facility-id and owner-id stages when
	// the primary table yields nothing
	Alternate *table.Table
	Trace     *debug.Trace
}

// Result is the subset of a table belonging to one facility
type Result struct {
	Rows     *table.Table
	Stage    Stage
	Strategy string
	Column   string
	Warnings []string
}

// Found reports whether any rows were joined
func (r Result) Found() bool {
	return r.Rows.Len() > 0
}

// Observer is notified of the stage each join settled on
type Observer interface {
	JoinStage(table string, stage Stage)
}

// Joiner filters detail tables down to a facility's rows
type Joiner struct {
	cols     *columns.Resolver
	observer Observer
}

// NewJoiner creates a joiner resolving columns through cols
func NewJoiner(cols *columns.Resolver) *Joiner {
	if cols == nil {
		cols = columns.NewResolver(nil)
	}
	return &Joiner{cols: cols}
}

// WithObserver returns a copy of the joiner reporting stages to o
func (j *Joiner) WithObserver(o Observer) *Joiner {
	cp := *j
	cp.observer = o
	return &cp
}

// Join returns the rows of t that belong to facilityID. Stages are tried in
// order and the first non-empty one wins; the rows are then narrowed to
// active tanks when that leaves at least one row. Missing columns are
// reported as warnings and never cause a failure.
func (j *Joiner) Join(t *table.Table, facilityID table.Value, opts Options) Result {
	res := j.join(t, facilityID, opts)
	if res.Found() {
		res.Rows = j.PreferStatus(res.Rows)
	}
	if res.Rows == nil {
		res.Rows = table.Empty(t.Name())
	}
	if j.observer != nil {
		j.observer.JoinStage(t.Name(), res.Stage)
	}
	opts.Trace.Add("join", "%s: stage=%s strategy=%s rows=%d", t.Name(), res.Stage, res.Strategy, res.Rows.Len())
	return res
}

func (j *Joiner) join(t *table.Table, facilityID table.Value, opts Options) Result {
	var res Result
	if t.IsEmpty() {
		res.Stage = StageNone
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s is empty; skipping it", t.Name()))
		return res
	}

	if r, ok := j.byIdentifiers(t, facilityID, opts, &res.Warnings); ok {
		r.Warnings = res.Warnings
		return r
	}

	if opts.TankNumberFallback {
		if col, ok := j.cols.Column(t, columns.TankNumber); ok {
			idx := matchRaw(t.Values(col), facilityID)
			opts.Trace.Add("join", "%s: tank number %q vs facility id: %d rows", t.Name(), col, len(idx))
			if len(idx) > 0 {
				return Result{Rows: t.Subset(idx), Stage: StageTankNumber, Strategy: normalize.StrategyRaw, Column: col, Warnings: res.Warnings}
			}
		}
	}

	if !opts.Alternate.IsEmpty() {
		var ignored []string
		if r, ok := j.byIdentifiers(opts.Alternate, facilityID, opts, &ignored); ok {
			opts.Trace.Add("join", "%s: matched in alternate table %s", t.Name(), opts.Alternate.Name())
			r.Stage = StageAlternate
			r.Warnings = res.Warnings
			return r
		}
	}

	res.Stage = StageNone
	return res
}

// byIdentifiers runs the facility-id and owner-id stages against t
func (j *Joiner) byIdentifiers(t *table.Table, facilityID table.Value, opts Options, warnings *[]string) (Result, bool) {
	if fr, ok := j.cols.Resolve(t, columns.FacilityID); ok {
		idx, strategy, counts := normalize.MatchChain(t.Values(fr.Column), facilityID, normalize.IdentifierStrategies)
		opts.Trace.Add("join", "%s: facility column %q (rule=%s fallback=%v) counts=%v", t.Name(), fr.Column, fr.Rule, fr.Fallback, counts)
		if len(idx) > 0 {
			return Result{Rows: t.Subset(idx), Stage: StageFacilityID, Strategy: strategy, Column: fr.Column}, true
		}
	} else {
		*warnings = append(*warnings, fmt.Sprintf("no facility id column in %s; skipping facility filtering", t.Name()))
	}

	if opts.OwnerID.IsMissing() {
		return Result{}, false
	}
	col, ok := j.cols.Column(t, columns.OwnerID)
	if !ok {
		return Result{}, false
	}
	idx, strategy, counts := normalize.MatchChain(t.Values(col), opts.OwnerID, normalize.IdentifierStrategies)
	opts.Trace.Add("join", "%s: owner column %q vs %s counts=%v", t.Name(), col, opts.OwnerID.String(), counts)
	if len(idx) > 0 {
		return Result{Rows: t.Subset(idx), Stage: StageOwnerID, Strategy: strategy, Column: col}, true
	}
	return Result{}, false
}

func matchRaw(values []table.Value, target table.Value) []int {
	var idx []int
	for i, v := range values {
		if normalize.RawEqual(v, target) {
			idx = append(idx, i)
		}
	}
	return idx
}

// PreferStatus keeps the active rows of t when there are any; otherwise t is
// returned unchanged
func (j *Joiner) PreferStatus(t *table.Table) *table.Table {
	col, ok := j.cols.Column(t, columns.TankStatus)
	if !ok {
		return t
	}
	active := t.Filter(func(r table.Row) bool {
		v, _ := r.Get(col)
		return normalize.IsActiveStatus(v)
	})
	if active.Len() == 0 {
		return t
	}
	return active
}

// NarrowTank returns the rows of t for one tank, compared by digits-only
// tank number. A table without a tank number column narrows to nothing.
func (j *Joiner) NarrowTank(t *table.Table, tankNumber table.Value) *table.Table {
	col, ok := j.cols.Column(t, columns.TankNumber)
	if !ok {
		return table.Empty(t.Name())
	}
	return t.Filter(func(r table.Row) bool {
		v, _ := r.Get(col)
		return normalize.SameTank(v, tankNumber)
	})
}
