package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ust-lookup/internal/config"
	"github.com/ust-lookup/internal/dataset"
	"github.com/ust-lookup/internal/facility"
)

var files = map[string]string{
	"tanks.csv":    "Facility ID,Facility Name,Tank Number,Tank Status,Contents\n1001,Quick Stop,1,CURR IN USE,Gasoline\n",
	"owner.csv":    "Facility ID,Owner ID,Name,Owner Name\n1001,512,Quick Stop,Valley Petroleum\n",
	"pipe.csv":     "Owner ID,Tank Number,Pipe Material Steel\n512,1,Y\n",
	"material.csv": "Facility ID,Tank Number,Tank Material Steel\n1001,1,Y\n",
	"release.csv":  "Facility ID,Tank Number,Tank RD Automatic Tank Gauging\n1001,1,Y\n",
}

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return &config.Settings{
		DataDir: dir,
		Sources: dataset.Sources{
			Tanks:            filepath.Join(dir, "tanks.csv"),
			Owners:           filepath.Join(dir, "owner.csv"),
			PipeMaterials:    filepath.Join(dir, "pipe.csv"),
			TankMaterials:    filepath.Join(dir, "material.csv"),
			ReleaseDetection: filepath.Join(dir, "release.csv"),
		},
	}
}

func TestOpen(t *testing.T) {
	rt, err := Open(context.Background(), testSettings(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rt.Close()

	if ws := rt.Holder.Current().Warnings; len(ws) != 0 {
		t.Errorf("warnings = %v, want none", ws)
	}
	res, err := rt.Service.Facility(context.Background(), "1001")
	if err != nil {
		t.Fatalf("Facility() error = %v", err)
	}
	if res.Status != facility.Resolved || len(res.Tanks) != 1 {
		t.Errorf("Facility() = %s with %d tanks, want resolved with 1", res.Status, len(res.Tanks))
	}
	if n, err := testutil.GatherAndCount(rt.Metrics.Registry(), "ustlookup_dataset_rows"); err != nil || n == 0 {
		t.Errorf("dataset row gauges = %d, %v", n, err)
	}
}

func TestReload(t *testing.T) {
	s := testSettings(t)
	rt, err := Open(context.Background(), s)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rt.Close()

	body := files["tanks.csv"] + "1001,Quick Stop,2,CURR IN USE,Diesel\n"
	if err := os.WriteFile(s.Sources.Tanks, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	ds, err := rt.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if ds.Tanks.Len() != 2 || rt.Holder.Current() != ds {
		t.Errorf("Reload() tanks = %d, want 2 published", ds.Tanks.Len())
	}
}

func TestOpenNeedsDatabaseForDBSources(t *testing.T) {
	s := testSettings(t)
	s.Sources.Owners = "db:owners"
	s.DBDriver = "oracle"
	if _, err := Open(context.Background(), s); err == nil {
		t.Error("Open() error = nil with an unsupported driver for a db: source")
	}
}
