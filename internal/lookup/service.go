package lookup

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ust-lookup/internal/assemble"
	"github.com/ust-lookup/internal/dataset"
	"github.com/ust-lookup/internal/debug"
	"github.com/ust-lookup/internal/facility"
	"github.com/ust-lookup/internal/join"
	"github.com/ust-lookup/internal/table"
)

// ErrNoSelection is returned when a chooser declines to pick a candidate
var ErrNoSelection = eris.New("lookup: no facility selected")

// Chooser picks one facility among ambiguous candidates
type Chooser interface {
	Choose(ctx context.Context, candidates []facility.Candidate) (table.Value, error)
}

// ChooserFunc adapts a function to Chooser
type ChooserFunc func(ctx context.Context, candidates []facility.Candidate) (table.Value, error)

// Choose calls f
func (f ChooserFunc) Choose(ctx context.Context, candidates []facility.Candidate) (table.Value, error) {
	return f(ctx, candidates)
}

// Recorder receives per-lookup measurements
type Recorder interface {
	join.Observer
	ObserveLookup(outcome string, took time.Duration)
}

// Result is the outcome of one lookup
type Result struct {
	Query      string
	Status     facility.Status
	FacilityID table.Value
	Candidates []facility.Candidate
	Summary    Summary
	Tanks      []assemble.TankRecord
	// Stages records which join stage each detail table settled on
	Stages   map[string]join.Stage
	Path     []string
	Warnings []string
	Trace    []debug.Entry
}

// Options configure a Service
type Options struct {
	Debug             bool
	DoubleWallColumns map[string]string
	SchemaVersion     string
}

// Service runs lookups against the current dataset
type Service struct {
	source   func() *dataset.Dataset
	opts     Options
	recorder Recorder
}

// NewService creates a service reading datasets from the holder
func NewService(holder *dataset.Holder, opts Options) *Service {
	return &Service{source: holder.Current, opts: opts}
}

// NewStaticService creates a service over a fixed dataset
func NewStaticService(ds *dataset.Dataset, opts Options) *Service {
	return &Service{source: func() *dataset.Dataset { return ds }, opts: opts}
}

// WithRecorder sets the metrics recorder
func (s *Service) WithRecorder(r Recorder) *Service {
	s.recorder = r
	return s
}

// Dataset returns the dataset in effect
func (s *Service) Dataset() *dataset.Dataset {
	return s.source()
}

// Lookup resolves query to a facility and assembles its tanks. When the query
// is ambiguous the chooser picks a candidate; with a nil chooser the
// ambiguous result is returned as-is for the caller to present.
func (s *Service) Lookup(ctx context.Context, query string, chooser Chooser) (*Result, error) {
	start := time.Now()
	defer debug.DebugTiming(s.opts.Debug, "lookup "+query)()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds := s.source()
	trace := debug.NewTrace(s.opts.Debug)

	res := facility.NewResolver(ds, trace).Resolve(query)
	out := &Result{Query: query, Status: res.Status, Path: res.Path}

	switch res.Status {
	case facility.NotFound:
		s.finish(out, ds, trace, start)
		return out, nil
	case facility.Ambiguous:
		out.Candidates = res.Candidates
		if chooser == nil {
			s.finish(out, ds, trace, start)
			return out, nil
		}
		id, err := chooser.Choose(ctx, res.Candidates)
		if err != nil {
			s.observe("error", start)
			return nil, eris.Wrap(err, "lookup: choose facility")
		}
		if id.IsMissing() {
			s.observe("error", start)
			return nil, ErrNoSelection
		}
		trace.Add("resolve", "chooser picked %s", id.String())
		s.assemble(out, ds, id, trace)
	default:
		s.assemble(out, ds, res.FacilityID, trace)
	}
	s.finish(out, ds, trace, start)
	return out, nil
}

// Facility assembles a facility by identifier without searching
func (s *Service) Facility(ctx context.Context, id string) (*Result, error) {
	start := time.Now()
	defer debug.DebugTiming(s.opts.Debug, "facility "+id)()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds := s.source()
	trace := debug.NewTrace(s.opts.Debug)
	out := &Result{Query: id, Path: []string{facility.StepIdentifier}}
	s.assemble(out, ds, table.Str(id), trace)
	s.finish(out, ds, trace, start)
	return out, nil
}

// assemble joins every detail table to the facility and builds the records.
// A facility without tank rows is reported as not found.
func (s *Service) assemble(out *Result, ds *dataset.Dataset, id table.Value, trace *debug.Trace) {
	j := join.NewJoiner(ds.Columns)
	if s.recorder != nil {
		j = j.WithObserver(s.recorder)
	}
	out.Stages = make(map[string]join.Stage)
	run := func(t *table.Table, key table.Value, opts join.Options) *table.Table {
		opts.Trace = trace
		r := j.Join(t, key, opts)
		out.Stages[t.Name()] = r.Stage
		out.Warnings = append(out.Warnings, r.Warnings...)
		return r.Rows
	}

	tr := j.Join(ds.Tanks, id, join.Options{Trace: trace})
	out.Stages[ds.Tanks.Name()] = tr.Stage
	out.Warnings = append(out.Warnings, tr.Warnings...)
	if !tr.Found() {
		out.Status = facility.NotFound
		return
	}
	// Downstream joins key on the tanks table's own representation.
	fid := id
	if v, ok := tr.Rows.Row(0).Get(tr.Column); ok && !v.IsMissing() {
		fid = v
	}
	out.Status = facility.Resolved
	out.FacilityID = fid

	owners := run(ds.Owners, fid, join.Options{})
	ownerID := ownerIDFor(owners, ds.Columns)
	trace.Add("join", "owner id for owner-keyed joins: %q", ownerID.String())

	materials := run(ds.TankMaterials, fid, join.Options{OwnerID: ownerID})
	pipe := run(ds.PipeMaterials, fid, join.Options{OwnerID: ownerID, TankNumberFallback: true, Alternate: ds.PipeAlternate})
	release := run(ds.ReleaseDetection, fid, join.Options{OwnerID: ownerID})
	sites := table.Empty(ds.SiteInfo.Name())
	if !ds.SiteInfo.IsEmpty() {
		sites = run(ds.SiteInfo, fid, join.Options{})
	}

	out.Summary = buildSummary(fid, owners, sites, ds.Columns)

	asm := assemble.NewAssembler(ds.Columns, assemble.Options{
		DoubleWallColumns: s.opts.DoubleWallColumns,
		SchemaVersion:     s.opts.SchemaVersion,
		Trace:             trace,
	})
	records, warnings := asm.Assemble(assemble.Input{
		FacilityID: fid,
		OwnerID:    ownerID,
		Tanks:      tr.Rows,
		Materials:  materials,
		Pipe:       pipe,
		Release:    release,
	})
	out.Tanks = records
	out.Warnings = append(out.Warnings, warnings...)
}

func (s *Service) finish(out *Result, ds *dataset.Dataset, trace *debug.Trace, start time.Time) {
	out.Warnings = dedupeWarnings(append(append([]string{}, ds.Warnings...), out.Warnings...))
	if out.Tanks == nil {
		out.Tanks = []assemble.TankRecord{}
	}
	out.Trace = trace.Entries()
	s.observe(string(out.Status), start)
	zap.L().Info("lookup: completed",
		zap.String("query", out.Query),
		zap.String("status", string(out.Status)),
		zap.String("facility_id", out.FacilityID.String()),
		zap.Int("tanks", len(out.Tanks)),
		zap.Int("candidates", len(out.Candidates)),
		zap.Duration("took", time.Since(start)))
}

func (s *Service) observe(outcome string, start time.Time) {
	if s.recorder != nil {
		s.recorder.ObserveLookup(outcome, time.Since(start))
	}
}

func dedupeWarnings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, w := range in {
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
