package bootstrap

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ust-lookup/internal/config"
	"github.com/ust-lookup/internal/dataset"
	"github.com/ust-lookup/internal/debug"
	"github.com/ust-lookup/internal/db"
	import_pkg "github.com/ust-lookup/internal/import"
	"github.com/ust-lookup/internal/lookup"
	"github.com/ust-lookup/internal/metrics"
)

// Runtime holds the long-lived pieces shared by the binaries
type Runtime struct {
	Settings *config.Settings
	Loader   *import_pkg.Loader
	Holder   *dataset.Holder
	Metrics  *metrics.Metrics
	Service  *lookup.Service

	conn    *db.Connection
	watcher *dataset.Watcher
}

// Open builds the loader from settings, loads the initial dataset and, when
// enabled, starts watching the data directory. Database and S3 clients are
// created only when a source location needs them.
func Open(ctx context.Context, s *config.Settings) (*Runtime, error) {
	rt := &Runtime{Settings: s, Metrics: metrics.New()}

	var opts []import_pkg.LoaderOption
	locations := sourceLocations(s.Sources)
	if anyPrefix(locations, import_pkg.DBScheme) {
		conn, err := db.Open(ctx, s.DBDriver, s.DBDSN)
		if err != nil {
			return nil, err
		}
		rt.conn = conn
		opts = append(opts, import_pkg.WithDB(conn))
	}
	if anyPrefix(locations, import_pkg.S3Scheme) {
		client, err := import_pkg.NewS3Client(ctx, import_pkg.S3Config{
			Region:    s.S3Region,
			Endpoint:  s.S3Endpoint,
			PathStyle: s.S3PathStyle,
		})
		if err != nil {
			rt.Close()
			return nil, err
		}
		opts = append(opts, import_pkg.WithS3(client))
	}
	rt.Loader = import_pkg.NewLoader(opts...)

	debug.DebugHeader(s.Debug)
	done := debug.DebugTiming(s.Debug, "load dataset")
	ds, err := dataset.Load(ctx, rt.Loader, s.Sources)
	done()
	debug.DebugFooter(s.Debug)
	if err != nil {
		rt.Close()
		return nil, eris.Wrap(err, "bootstrap: load dataset")
	}
	rt.observeDataset(ds)
	rt.Holder = dataset.NewHolder(ds, rt.Loader, s.Sources)

	rt.Service = lookup.NewService(rt.Holder, lookup.Options{
		Debug:             s.Debug,
		DoubleWallColumns: s.DoubleWallColumns,
		SchemaVersion:     s.SchemaVersion,
	}).WithRecorder(rt.Metrics)

	if s.Watch {
		w, err := dataset.NewWatcher(s.DataDir, rt.Holder,
			dataset.WithOnReload(func(ds *dataset.Dataset) {
				rt.Metrics.ObserveReload(nil)
				rt.observeDataset(ds)
			}),
			dataset.WithOnError(rt.Metrics.ObserveReload))
		if err != nil {
			rt.Close()
			return nil, err
		}
		if err := w.Start(); err != nil {
			rt.Close()
			return nil, err
		}
		rt.watcher = w
	}
	return rt, nil
}

// Reload reloads the dataset and records the outcome
func (rt *Runtime) Reload(ctx context.Context) (*dataset.Dataset, error) {
	ds, err := rt.Holder.Reload(ctx)
	rt.Metrics.ObserveReload(err)
	if err != nil {
		return nil, err
	}
	rt.observeDataset(ds)
	return ds, nil
}

// Close stops the watcher and closes the database
func (rt *Runtime) Close() {
	if rt.watcher != nil {
		if err := rt.watcher.Stop(); err != nil {
			zap.L().Warn("bootstrap: stop watcher", zap.Error(err))
		}
	}
	if rt.conn != nil {
		if err := rt.conn.Close(); err != nil {
			zap.L().Warn("bootstrap: close database", zap.Error(err))
		}
	}
}

func (rt *Runtime) observeDataset(ds *dataset.Dataset) {
	for _, t := range ds.All() {
		rt.Metrics.SetTableRows(t.Name(), t.Len())
	}
	for _, w := range ds.Warnings {
		zap.L().Warn("bootstrap: dataset warning", zap.String("warning", w))
	}
}

func sourceLocations(src dataset.Sources) []string {
	locs := []string{src.Tanks, src.Owners, src.PipeMaterials, src.TankMaterials, src.ReleaseDetection, src.SiteInfo}
	return append(locs, src.PipeAlternates...)
}

func anyPrefix(locations []string, prefix string) bool {
	for _, l := range locations {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}
