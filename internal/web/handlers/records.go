package handlers

import (
	"bytes"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ust-lookup/internal/lookup"
	"github.com/ust-lookup/internal/render"
)

// RecordsHandler serves assembled facility records
type RecordsHandler struct {
	Service  *lookup.Service
	Renderer *render.HTMLRenderer
	Config   *Config
}

// GetFacility returns the summary and active tanks of a facility id
func (h *RecordsHandler) GetFacility(w http.ResponseWriter, r *http.Request) {
	res, ok := h.facility(w, r)
	if !ok {
		return
	}
	writeJSON(w, statusFor(res.Status), h.Config.view(res))
}

// FacilityPage renders the facility as HTML
func (h *RecordsHandler) FacilityPage(w http.ResponseWriter, r *http.Request) {
	res, ok := h.facility(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.Renderer.Facility(&buf, h.Config.view(res)); err != nil {
		zap.L().Error("web: render facility", zap.Error(err))
		http.Error(w, "Render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusFor(res.Status))
	buf.WriteTo(w)
}

// SearchPage renders a search result as HTML
func (h *RecordsHandler) SearchPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		http.Error(w, "Search term required", http.StatusBadRequest)
		return
	}
	res, err := h.Service.Lookup(r.Context(), q, nil)
	if err != nil {
		http.Error(w, "Lookup failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := h.Renderer.Facility(&buf, h.Config.view(res)); err != nil {
		zap.L().Error("web: render search", zap.Error(err))
		http.Error(w, "Render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusFor(res.Status))
	buf.WriteTo(w)
}

func (h *RecordsHandler) facility(w http.ResponseWriter, r *http.Request) (*lookup.Result, bool) {
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "Invalid facility ID", http.StatusBadRequest)
		return nil, false
	}
	res, err := h.Service.Facility(r.Context(), id)
	if err != nil {
		zap.L().Error("web: facility lookup failed", zap.String("id", id), zap.Error(err))
		http.Error(w, "Lookup failed", http.StatusInternalServerError)
		return nil, false
	}
	return res, true
}
