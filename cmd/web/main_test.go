package main

import (
	"context"
	"strings"
	"testing"

	"github.com/ust-lookup/internal/config"
)

func TestRunReportsBadSettings(t *testing.T) {
	t.Setenv("USTLOOKUP_DOUBLE_WALL_COLUMNS", "v2")

	err := run(context.Background())
	if err == nil {
		t.Fatal("run() error = nil with an invalid double wall mapping")
	}
	if !strings.Contains(err.Error(), "web: load settings") {
		t.Errorf("run() error = %v, want it to name the settings step", err)
	}
}

func TestServerConfig(t *testing.T) {
	t.Setenv("USTLOOKUP_WEB_CONFIG", "")
	t.Setenv("USTLOOKUP_WEB_PORT", "9090")
	t.Setenv("USTLOOKUP_API_KEY", "secret")
	t.Setenv("USTLOOKUP_ENABLE_RELOAD", "false")

	cfg, err := serverConfig(&config.Settings{Debug: true})
	if err != nil {
		t.Fatalf("serverConfig() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if !cfg.Auth.Enabled || cfg.Auth.APIKey != "secret" {
		t.Errorf("Auth = %+v, want enabled with the key", cfg.Auth)
	}
	if cfg.Features.ReloadEnabled {
		t.Error("ReloadEnabled = true, want false from the environment")
	}
	if !cfg.Features.DebugEnabled {
		t.Error("DebugEnabled = false, want true from settings")
	}
}
