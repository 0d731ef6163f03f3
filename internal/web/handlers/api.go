package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ust-lookup/internal/dataset"
	"github.com/ust-lookup/internal/lookup"
	"github.com/ust-lookup/internal/render"
)

// Config represents the handler feature toggles
type Config struct {
	Features struct {
		ReloadEnabled bool `json:"reload_enabled"`
		DebugEnabled  bool `json:"debug_enabled"`
	} `json:"features"`
}

// view converts a result for a response. The per-stage trace is only
// exposed when debugging is enabled.
func (c *Config) view(res *lookup.Result) render.FacilityView {
	v := render.NewFacilityView(res)
	if c == nil || !c.Features.DebugEnabled {
		v.Trace = nil
	}
	return v
}

// APIHandler handles dataset endpoints
type APIHandler struct {
	Service *lookup.Service
	Reload  func(ctx context.Context) (*dataset.Dataset, error)
	Config  *Config
}

// StatsResponse describes the dataset in effect
type StatsResponse struct {
	LoadedAt time.Time      `json:"loaded_at"`
	Tables   map[string]int `json:"tables"`
	Warnings []string       `json:"warnings"`
}

// GetStats returns row counts per table and load warnings
func (h *APIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsOf(h.Service.Dataset()))
}

// GetColumns lists each table's columns and detected roles
func (h *APIHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, render.Reports(h.Service.Dataset()))
}

// Health reports liveness, degraded when the tanks table is missing or the
// dataset loaded with warnings
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	ds := h.Service.Dataset()
	status := "ok"
	if ds.Tanks.IsEmpty() || len(ds.Warnings) > 0 {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// TriggerReload reloads the source tables
func (h *APIHandler) TriggerReload(w http.ResponseWriter, r *http.Request) {
	if h.Reload == nil {
		http.Error(w, "Reload not available", http.StatusNotImplemented)
		return
	}
	ds, err := h.Reload(r.Context())
	if err != nil {
		zap.L().Error("web: reload failed", zap.Error(err))
		http.Error(w, "Reload failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, statsOf(ds))
}

func statsOf(ds *dataset.Dataset) StatsResponse {
	stats := StatsResponse{
		LoadedAt: ds.LoadedAt,
		Tables:   make(map[string]int),
		Warnings: ds.Warnings,
	}
	for _, t := range ds.All() {
		stats.Tables[t.Name()] = t.Len()
	}
	if !ds.PipeAlternate.IsEmpty() {
		stats.Tables[ds.PipeAlternate.Name()] = ds.PipeAlternate.Len()
	}
	if stats.Warnings == nil {
		stats.Warnings = []string{}
	}
	return stats
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("web: encode response", zap.Error(err))
	}
}
