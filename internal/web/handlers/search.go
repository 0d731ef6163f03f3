package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ust-lookup/internal/facility"
	"github.com/ust-lookup/internal/lookup"
)

// SearchHandler handles facility searches
type SearchHandler struct {
	Service *lookup.Service
	Config  *Config
}

// Lookup searches by facility id, name or address. A unique match returns
// the facility; several matches return 300 with the candidates to choose
// from; no match returns 404.
func (h *SearchHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		http.Error(w, "Search term required", http.StatusBadRequest)
		return
	}

	res, err := h.Service.Lookup(r.Context(), q, nil)
	if err != nil {
		zap.L().Error("web: lookup failed", zap.String("query", q), zap.Error(err))
		http.Error(w, "Lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, statusFor(res.Status), h.Config.view(res))
}

func statusFor(s facility.Status) int {
	switch s {
	case facility.Resolved:
		return http.StatusOK
	case facility.Ambiguous:
		return http.StatusMultipleChoices
	}
	return http.StatusNotFound
}
