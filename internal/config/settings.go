package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ust-lookup/internal/dataset"
)

// Default file names inside the data directory
const (
	DefaultTanksFile     = "tanks.csv"
	DefaultOwnersFile    = "owner.csv"
	DefaultPipeFile      = "ustpipematerials.xlsx"
	DefaultMaterialsFile = "usttankmaterials.csv"
	DefaultReleaseFile   = "usttankpipereleasedetection.csv"
	DefaultSiteInfoFile  = "SiteInfo.csv"
)

// DefaultPipeFallbackFiles are on-disk pipe material exports consulted when
// the primary source has nothing for a facility
var DefaultPipeFallbackFiles = []string{"ustpipematerials.csv", "ustpipematerials 2.csv"}

// Settings is the process configuration read from USTLOOKUP_* variables
type Settings struct {
	DataDir string
	Sources dataset.Sources

	DBDriver string
	DBDSN    string

	S3Region    string
	S3Endpoint  string
	S3PathStyle bool

	Debug     bool
	LogLevel  string
	LogFormat string

	// DoubleWallColumns maps a tank materials schema version to the column
	// holding the double-wall flag
	DoubleWallColumns map[string]string
	SchemaVersion     string

	Watch bool
}

// LoadSettings reads settings from the environment, after loading any .env
// file
func LoadSettings() (*Settings, error) {
	if err := LoadEnv(); err != nil {
		return nil, eris.Wrap(err, "config: load .env")
	}

	dir := GetEnv("USTLOOKUP_DATA_DIR", "data")
	s := &Settings{
		DataDir:       dir,
		DBDriver:      GetEnv("USTLOOKUP_DB_DRIVER", "postgres"),
		DBDSN:         GetEnv("USTLOOKUP_DB_DSN", ""),
		S3Region:      GetEnv("USTLOOKUP_S3_REGION", "us-east-1"),
		S3Endpoint:    GetEnv("USTLOOKUP_S3_ENDPOINT", ""),
		S3PathStyle:   GetEnvBool("USTLOOKUP_S3_PATH_STYLE", false),
		Debug:         GetEnvBool("USTLOOKUP_DEBUG", false),
		LogLevel:      GetEnv("USTLOOKUP_LOG_LEVEL", "info"),
		LogFormat:     GetEnv("USTLOOKUP_LOG_FORMAT", "console"),
		SchemaVersion: GetEnv("USTLOOKUP_SCHEMA_VERSION", ""),
		Watch:         GetEnvBool("USTLOOKUP_WATCH", false),
	}

	s.Sources = dataset.Sources{
		Tanks:            location("USTLOOKUP_TANKS", dir, DefaultTanksFile),
		Owners:           location("USTLOOKUP_OWNERS", dir, DefaultOwnersFile),
		PipeMaterials:    location("USTLOOKUP_PIPE", dir, DefaultPipeFile),
		TankMaterials:    location("USTLOOKUP_MATERIALS", dir, DefaultMaterialsFile),
		ReleaseDetection: location("USTLOOKUP_RELEASE", dir, DefaultReleaseFile),
		SiteInfo:         optionalLocation("USTLOOKUP_SITEINFO", dir, DefaultSiteInfoFile),
	}
	if v := os.Getenv("USTLOOKUP_PIPE_FALLBACK"); v != "" {
		s.Sources.PipeAlternates = splitList(v)
	} else {
		for _, f := range DefaultPipeFallbackFiles {
			if p := filepath.Join(dir, f); fileExists(p) {
				s.Sources.PipeAlternates = append(s.Sources.PipeAlternates, p)
			}
		}
	}

	cols, err := ParseDoubleWallColumns(os.Getenv("USTLOOKUP_DOUBLE_WALL_COLUMNS"))
	if err != nil {
		return nil, err
	}
	s.DoubleWallColumns = cols
	return s, nil
}

// location returns the configured location for a table, defaulting to a file
// in the data directory
func location(key, dir, file string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return filepath.Join(dir, file)
}

// optionalLocation is location for tables that may be absent: the default
// is used only when the file exists
func optionalLocation(key, dir, file string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if p := filepath.Join(dir, file); fileExists(p) {
		return p
	}
	return ""
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseDoubleWallColumns parses "version=column;version=column"
func ParseDoubleWallColumns(v string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(v, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			return nil, eris.Errorf("config: invalid double wall column mapping %q, want version=column", pair)
		}
		out[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return out, nil
}
