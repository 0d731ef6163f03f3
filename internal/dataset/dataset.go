package dataset

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ust-lookup/internal/columns"
	"github.com/ust-lookup/internal/table"
)

// Table names used across the lookup pipeline
const (
	Tanks            = "tanks"
	Owners           = "owners"
	PipeMaterials    = "pipe materials"
	TankMaterials    = "tank materials"
	ReleaseDetection = "release detection"
	SiteInfo         = "site info"
	PipeAlternate    = "pipe materials alternate"
)

// Dataset is the immutable set of source tables for a session. It is built
// once, passed by reference and never modified; a reload builds a new one.
type Dataset struct {
	Tanks            *table.Table
	Owners           *table.Table
	PipeMaterials    *table.Table
	TankMaterials    *table.Table
	ReleaseDetection *table.Table
	SiteInfo         *table.Table
	// PipeAlternate is an optional second pipe-materials source consulted
	// when the primary one yields nothing for a facility
	PipeAlternate *table.Table

	Columns  *columns.Resolver
	LoadedAt time.Time
	Warnings []string
}

// New assembles a dataset from already-loaded tables. Nil tables become
// empty ones so every join against them is skipped rather than failing.
func New(tanks, owners, pipe, materials, release, siteinfo *table.Table) *Dataset {
	ds := &Dataset{
		Tanks:            orEmpty(tanks, Tanks),
		Owners:           orEmpty(owners, Owners),
		PipeMaterials:    orEmpty(pipe, PipeMaterials),
		TankMaterials:    orEmpty(materials, TankMaterials),
		ReleaseDetection: orEmpty(release, ReleaseDetection),
		SiteInfo:         orEmpty(siteinfo, SiteInfo),
		PipeAlternate:    table.Empty(PipeAlternate),
		Columns:          columns.NewResolver(nil),
		LoadedAt:         time.Now(),
	}
	return ds
}

func orEmpty(t *table.Table, name string) *table.Table {
	if t == nil {
		return table.Empty(name)
	}
	return t
}

// WithAlternate returns a copy of the dataset carrying an alternate
// pipe-materials table
func (d *Dataset) WithAlternate(t *table.Table) *Dataset {
	cp := *d
	cp.PipeAlternate = orEmpty(t, PipeAlternate)
	return &cp
}

// Table returns a table by name
func (d *Dataset) Table(name string) *table.Table {
	switch name {
	case Tanks:
		return d.Tanks
	case Owners:
		return d.Owners
	case PipeMaterials:
		return d.PipeMaterials
	case TankMaterials:
		return d.TankMaterials
	case ReleaseDetection:
		return d.ReleaseDetection
	case SiteInfo:
		return d.SiteInfo
	case PipeAlternate:
		return d.PipeAlternate
	}
	return nil
}

// All returns the tables in display order
func (d *Dataset) All() []*table.Table {
	return []*table.Table{d.Tanks, d.Owners, d.PipeMaterials, d.TankMaterials, d.ReleaseDetection, d.SiteInfo}
}

// Loader reads one table from a location (file path, s3:// URL, db: table)
type Loader interface {
	Load(ctx context.Context, name, location string) (*table.Table, error)
}

// Sources names the location of each table. Empty locations are skipped;
// SiteInfo and the pipe alternates are optional.
type Sources struct {
	Tanks            string
	Owners           string
	PipeMaterials    string
	TankMaterials    string
	ReleaseDetection string
	SiteInfo         string
	PipeAlternates   []string
}

// Required lists the tables whose absence is worth a warning
var Required = []string{Tanks, Owners, TankMaterials, ReleaseDetection}

// Load reads every table concurrently. A table that is missing, empty or
// unreadable becomes an empty table and a warning; Load itself only fails
// when the context is cancelled.
func Load(ctx context.Context, loader Loader, src Sources) (*Dataset, error) {
	locations := map[string]string{
		Tanks:            src.Tanks,
		Owners:           src.Owners,
		PipeMaterials:    src.PipeMaterials,
		TankMaterials:    src.TankMaterials,
		ReleaseDetection: src.ReleaseDetection,
		SiteInfo:         src.SiteInfo,
	}

	var mu sync.Mutex
	loaded := make(map[string]*table.Table, len(locations))
	var warnings []string
	warn := func(format string, args ...interface{}) {
		mu.Lock()
		warnings = append(warnings, fmt.Sprintf(format, args...))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	for name, loc := range locations {
		name, loc := name, loc
		if loc == "" {
			if isRequired(name) {
				warn("no location configured for %s; skipping joins against it", name)
			}
			continue
		}
		g.Go(func() error {
			t, err := loader.Load(gctx, name, loc)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				zap.L().Warn("dataset: table load failed", zap.String("table", name), zap.String("location", loc), zap.Error(err))
				warn("%s (%s) is empty or could not be loaded; skipping downstream steps for it", name, loc)
				return nil
			}
			if t.IsEmpty() && isRequired(name) {
				warn("%s (%s) is empty; skipping downstream steps for it", name, loc)
			}
			mu.Lock()
			loaded[name] = t
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := New(loaded[Tanks], loaded[Owners], loaded[PipeMaterials], loaded[TankMaterials], loaded[ReleaseDetection], loaded[SiteInfo])

	for _, loc := range src.PipeAlternates {
		t, err := loader.Load(ctx, PipeAlternate, loc)
		if err != nil {
			zap.L().Debug("dataset: pipe alternate unavailable", zap.String("location", loc), zap.Error(err))
			continue
		}
		if !t.IsEmpty() {
			ds = ds.WithAlternate(t)
			zap.L().Info("dataset: using alternate pipe materials", zap.String("location", loc))
			break
		}
	}

	ds.Warnings = sortWarnings(warnings)
	zap.L().Info("dataset: loaded",
		zap.Int("tanks", ds.Tanks.Len()),
		zap.Int("owners", ds.Owners.Len()),
		zap.Int("pipe_materials", ds.PipeMaterials.Len()),
		zap.Int("tank_materials", ds.TankMaterials.Len()),
		zap.Int("release_detection", ds.ReleaseDetection.Len()),
		zap.Int("site_info", ds.SiteInfo.Len()),
		zap.Int("warnings", len(ds.Warnings)))
	return ds, nil
}

func isRequired(name string) bool {
	for _, r := range Required {
		if r == name {
			return true
		}
	}
	return false
}

func sortWarnings(w []string) []string {
	sort.Strings(w)
	return w
}
