package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ust-lookup/internal/dataset"
	"github.com/ust-lookup/internal/lookup"
	"github.com/ust-lookup/internal/render"
	"github.com/ust-lookup/internal/web/handlers"
	"github.com/ust-lookup/internal/web/middleware"
)

// Deps are the collaborators the server routes to
type Deps struct {
	Service *lookup.Service
	// Reload is optional; without it the reload endpoint is not mounted
	Reload func(ctx context.Context) (*dataset.Dataset, error)
	// Metrics is optional; without it /metrics is not mounted
	Metrics http.Handler
}

// Server represents the web server
type Server struct {
	config     *Config
	deps       Deps
	httpServer *http.Server
	router     *mux.Router
	handler    http.Handler
}

// NewServer creates a new web server instance
func NewServer(config *Config, deps Deps) (*Server, error) {
	if deps.Service == nil {
		return nil, eris.New("web: server needs a lookup service")
	}
	renderer, err := render.NewHTMLRenderer()
	if err != nil {
		return nil, err
	}

	server := &Server{
		config: config,
		deps:   deps,
	}

	server.setupRoutes(renderer)

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      server.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server, nil
}

// Handler exposes the routed handler with middleware, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(renderer *render.HTMLRenderer) {
	s.router = mux.NewRouter()

	handlerConfig := &handlers.Config{}
	handlerConfig.Features.ReloadEnabled = s.config.Features.ReloadEnabled && s.deps.Reload != nil
	handlerConfig.Features.DebugEnabled = s.config.Features.DebugEnabled

	apiHandler := &handlers.APIHandler{Service: s.deps.Service, Reload: s.deps.Reload, Config: handlerConfig}
	searchHandler := &handlers.SearchHandler{Service: s.deps.Service, Config: handlerConfig}
	recordsHandler := &handlers.RecordsHandler{Service: s.deps.Service, Renderer: renderer, Config: handlerConfig}

	s.router.HandleFunc("/healthz", apiHandler.Health).Methods("GET")
	if s.config.Features.MetricsEnabled && s.deps.Metrics != nil {
		s.router.Handle("/metrics", s.deps.Metrics).Methods("GET")
	}

	// API routes
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/lookup", searchHandler.Lookup).Methods("GET")
	api.HandleFunc("/facilities/{id}", recordsHandler.GetFacility).Methods("GET")
	api.HandleFunc("/columns", apiHandler.GetColumns).Methods("GET")
	api.HandleFunc("/stats", apiHandler.GetStats).Methods("GET")
	if handlerConfig.Features.ReloadEnabled {
		api.HandleFunc("/reload", apiHandler.TriggerReload).Methods("POST")
	}

	// HTML pages
	s.router.HandleFunc("/facilities/{id}", recordsHandler.FacilityPage).Methods("GET")
	s.router.HandleFunc("/search", recordsHandler.SearchPage).Methods("GET")

	if s.config.Auth.Enabled {
		// Authentication applies to API routes only
		api.Use(middleware.Authentication(s.config.Auth.APIKey))
	}

	// Preflight requests are answered before route matching
	s.handler = middleware.CORS()(middleware.RequestLogging()(s.router))
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("web: listening", zap.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return eris.Wrap(err, "web: serve")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("web: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "web: shutdown")
	}
	zap.L().Info("web: stopped")
	return nil
}
