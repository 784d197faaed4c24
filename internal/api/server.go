// Package api provides the HTTP REST API for the scan visualizer.
// It exposes the scan catalog, playback control, history and preferences,
// and streams playback events over a websocket.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/anstrom/scanviz/docs/swagger" // registers the OpenAPI document
	"github.com/anstrom/scanviz/internal/api/handlers"
	"github.com/anstrom/scanviz/internal/api/middleware"
	"github.com/anstrom/scanviz/internal/catalog"
	"github.com/anstrom/scanviz/internal/config"
	"github.com/anstrom/scanviz/internal/errors"
	"github.com/anstrom/scanviz/internal/logging"
	"github.com/anstrom/scanviz/internal/metrics"
)

const (
	apiPrefix = "/api/v1"

	limiterCleanupInterval = time.Minute
	limiterMaxIdle         = 10 * time.Minute
)

// Deps are the services the API is built on. Controller, Player, Catalog
// and Themes are required; History, Database and Metrics may be nil.
type Deps struct {
	Controller handlers.PlaybackController
	Player     handlers.PlayerState
	Catalog    catalog.Source
	Themes     handlers.ThemeStore
	History    handlers.HistoryReader
	Metrics    *metrics.PrometheusMetrics

	// Database must be a nil interface, not a typed nil, when disabled.
	Database handlers.DatabasePinger

	// Hub receives playback events. A hub is created when nil; it must be
	// registered as a player sink by the caller either way.
	Hub *handlers.PlaybackHub

	// Sessions stores preference cookies. Defaults to a cookie store keyed
	// with the configured session secret.
	Sessions sessions.Store
}

// Server represents the API server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	config     *config.Config
	deps       Deps
	logger     *slog.Logger
	hub        *handlers.PlaybackHub
	limiter    *middleware.RateLimiter
	startTime  time.Time
}

// New creates a new API server instance.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Controller == nil || deps.Catalog == nil || deps.Themes == nil {
		return nil, fmt.Errorf("controller, catalog and theme store are required")
	}

	logger := logging.Component("api")

	if deps.Hub == nil {
		deps.Hub = handlers.NewPlaybackHub(logger, func() interface{} { return deps.Controller.Status() })
	}
	if deps.Sessions == nil {
		deps.Sessions = handlers.NewCookieStore(sessionKey(cfg))
	}

	s := &Server{
		router:    mux.NewRouter(),
		config:    cfg,
		deps:      deps,
		logger:    logger,
		hub:       deps.Hub,
		startTime: time.Now(),
	}
	if cfg.API.RateLimit.Enabled {
		s.limiter = middleware.NewRateLimiter(cfg.API.RateLimit.RequestsPerSecond, cfg.API.RateLimit.BurstSize)
	}

	s.setupRoutes()
	s.setupMiddleware()

	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port)),
		Handler:           s.wrap(s.router),
		ReadTimeout:       cfg.API.ReadTimeout,
		ReadHeaderTimeout: cfg.API.ReadTimeout,
		WriteTimeout:      cfg.API.WriteTimeout,
		IdleTimeout:       cfg.API.IdleTimeout,
	}

	return s, nil
}

func sessionKey(cfg *config.Config) []byte {
	if cfg.API.SessionSecret != "" {
		return []byte(cfg.API.SessionSecret)
	}
	// Without a configured secret, cookies are valid for this process only.
	return []byte(strconv.FormatInt(time.Now().UnixNano(), 36) + cfg.GetAPIAddress())
}

// Start starts the API server and blocks until ctx is canceled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting API server",
		"address", s.httpServer.Addr,
		"read_timeout", s.httpServer.ReadTimeout,
		"write_timeout", s.httpServer.WriteTimeout,
		"auth", s.config.API.Auth.Enabled,
		"rate_limit", s.limiter != nil)

	if s.limiter != nil {
		go s.cleanupLimiter(ctx)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("API server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errChan:
		s.hub.Close()
		return err
	}
}

// Stop gracefully stops the API server and disconnects websocket clients.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")

	s.hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.API.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("API server shutdown error", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("API server stopped successfully")
	return nil
}

func (s *Server) cleanupLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.Cleanup(limiterMaxIdle)
			s.logger.Debug("Pruned idle rate limiters", "remaining", s.limiter.Len())
		}
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	d := s.deps
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.methodNotAllowed)
	api := apiRoutes{s.router}

	health := handlers.NewHealthHandler(d.Database, d.Player, s.hub.Clients, s.logger)
	api.HandleFunc("/liveness", health.Liveness).Methods("GET")
	api.HandleFunc("/health", health.Health).Methods("GET")
	api.HandleFunc("/status", health.Status).Methods("GET")
	api.HandleFunc("/version", health.Version).Methods("GET")

	scans := handlers.NewScanHandler(d.Catalog, s.config.PlayerTiming(), s.logger)
	api.HandleFunc("/scans", scans.ListScans).Methods("GET")
	api.HandleFunc("/scans/{id}", scans.GetScan).Methods("GET")
	api.HandleFunc("/scans/{id}/scenarios/{state}", scans.GetScenario).Methods("GET")

	playback := handlers.NewPlaybackHandler(d.Controller, s.logger)
	api.HandleFunc("/playback", playback.GetStatus).Methods("GET")
	api.HandleFunc("/playback/preview", playback.GetPreview).Methods("GET")
	api.HandleFunc("/playback/start", playback.Start).Methods("POST")
	api.HandleFunc("/playback/stop", playback.Stop).Methods("POST")
	api.HandleFunc("/playback/toggle", playback.Toggle).Methods("POST")
	api.HandleFunc("/playback/reset", playback.Reset).Methods("POST")
	api.HandleFunc("/playback/select", playback.SelectScan).Methods("POST")
	api.HandleFunc("/playback/port-state", playback.SelectPortState).Methods("POST")
	api.HandleFunc("/playback/speed", playback.SetSpeed).Methods("POST")
	api.HandleFunc("/playback/port", playback.SetPort).Methods("POST")

	if d.History != nil {
		history := handlers.NewHistoryHandler(d.History, s.logger)
		api.HandleFunc("/history", history.ListHistory).Methods("GET")
		api.HandleFunc("/history/stats", history.GetStats).Methods("GET")
		api.HandleFunc("/history/{id}", history.GetHistory).Methods("GET")
	} else {
		api.PathPrefix("/history").HandlerFunc(s.historyDisabled).Methods("GET")
	}

	prefs := handlers.NewPreferenceHandler(d.Themes, d.Sessions, s.logger)
	api.HandleFunc("/preferences/theme", prefs.GetTheme).Methods("GET")
	api.HandleFunc("/preferences/theme", prefs.SetTheme).Methods("PUT")
	api.HandleFunc("/preferences/theme/toggle", prefs.ToggleTheme).Methods("POST")

	api.HandleFunc("/ws/playback", s.hub.ServeWS).Methods("GET")

	if d.Metrics != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(d.Metrics.GetRegistry(), promhttp.HandlerOpts{})).Methods("GET")
	}

	if s.config.API.EnableSwagger {
		s.router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
			httpSwagger.DeepLinking(true),
			httpSwagger.DocExpansion("none"),
		))
		s.router.HandleFunc("/docs", s.redirectToSwagger).Methods("GET")
		s.router.HandleFunc("/docs/", s.redirectToSwagger).Methods("GET")
	}

	s.router.HandleFunc("/", s.index).Methods("GET")
}

// setupMiddleware configures middleware for the API server. Middleware
// runs only for matched routes; CORS and proxy headers wrap the router
// in wrap so preflight requests are answered too.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery(s.logger))
	s.router.Use(middleware.RequestID())
	if s.config.Logging.RequestLogging {
		s.router.Use(middleware.Logging(s.logger))
	}

	var recorder metrics.Recorder = metrics.Nop{}
	if s.deps.Metrics != nil {
		recorder = s.deps.Metrics
	}
	s.router.Use(middleware.Metrics(recorder))
	s.router.Use(middleware.SecurityHeaders())

	if s.limiter != nil {
		s.router.Use(middleware.RateLimit(s.limiter, s.logger))
	}
	if s.config.API.Auth.Enabled {
		s.router.Use(middleware.Authentication(s.config.API.Auth.APIKeyHash, s.logger))
	}
	s.router.Use(middleware.ContentType())
}

func (s *Server) wrap(h http.Handler) http.Handler {
	if limit := s.config.API.MaxRequestSize; limit > 0 {
		h = http.MaxBytesHandler(h, int64(limit))
	}

	cors := s.config.API.CORS
	if cors.Enabled {
		h = gorillahandlers.CORS(
			gorillahandlers.AllowedOrigins(cors.AllowedOrigins),
			gorillahandlers.AllowedMethods(cors.AllowedMethods),
			gorillahandlers.AllowedHeaders(cors.AllowedHeaders),
		)(h)
	}
	return gorillahandlers.ProxyHeaders(h)
}

// apiRoutes registers routes under apiPrefix on the root router. Routes of
// a mux subrouter share its prefix matcher, which clears a method mismatch
// found on an earlier route and turns 405 into 404.
type apiRoutes struct{ r *mux.Router }

func (a apiRoutes) HandleFunc(path string, f func(http.ResponseWriter, *http.Request)) *mux.Route {
	return a.r.HandleFunc(apiPrefix+path, f)
}

func (a apiRoutes) PathPrefix(tpl string) *mux.Route {
	return a.r.PathPrefix(apiPrefix + tpl)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusMethodNotAllowed, handlers.ErrorResponse{
		Error:     "method not allowed",
		Code:      string(errors.CodeValidation),
		Message:   fmt.Sprintf("%s is not supported on %s", r.Method, r.URL.Path),
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) historyDisabled(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusServiceUnavailable, handlers.ErrorResponse{
		Error:     "history is disabled",
		Code:      string(errors.CodeDatabaseConnection),
		Message:   "enable the database to record playback history",
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(r),
	})
}

// index returns API information for root requests.
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	endpoints := map[string]string{
		"health":   "/api/v1/health",
		"scans":    "/api/v1/scans",
		"playback": "/api/v1/playback",
		"events":   "/api/v1/ws/playback",
	}
	if s.config.API.EnableSwagger {
		endpoints["docs"] = "/swagger/"
	}
	if s.deps.Metrics != nil {
		endpoints["metrics"] = "/metrics"
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"service":   "scanviz",
		"version":   "v1",
		"endpoints": endpoints,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) redirectToSwagger(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err, "path", r.URL.Path)
	}
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// GetRouter returns the configured router.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// GetAddress returns the server address.
func (s *Server) GetAddress() string {
	return s.httpServer.Addr
}

// Hub returns the websocket hub; register it as a player sink.
func (s *Server) Hub() *handlers.PlaybackHub {
	return s.hub
}
