package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/anstrom/scanviz/internal/player"
)

// DatabasePinger defines the interface for database health checking.
type DatabasePinger interface {
	PingContext(ctx context.Context) error
}

// PlayerState reports whether playback is running.
type PlayerState interface {
	State() player.State
}

const healthCheckTimeout = 3 * time.Second

// Status constants.
const (
	StatusHealthy       = "healthy"
	StatusUnhealthy     = "unhealthy"
	StatusNotConfigured = "not configured"
)

var (
	buildMu   sync.RWMutex
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// SetBuildInfo records the version reported by the Version endpoint.
func SetBuildInfo(v, c, bt string) {
	buildMu.Lock()
	defer buildMu.Unlock()
	version, commit, buildTime = v, c, bt
}

func buildInfo() (string, string, string) {
	buildMu.RLock()
	defer buildMu.RUnlock()
	return version, commit, buildTime
}

// HealthHandler handles health check and status endpoints.
type HealthHandler struct {
	database  DatabasePinger
	player    PlayerState
	clients   func() int
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler. database may be nil when
// history is disabled; clients may be nil when there is no websocket hub.
func NewHealthHandler(database DatabasePinger, p PlayerState, clients func() int, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		database:  database,
		player:    p,
		clients:   clients,
		logger:    logger.With("handler", "health"),
		startTime: time.Now(),
	}
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks"`
}

// LivenessResponse represents a simple liveness check response.
type LivenessResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

// VersionResponse represents version information.
type VersionResponse struct {
	Version   string    `json:"version"`
	Commit    string    `json:"commit"`
	BuildTime string    `json:"build_time"`
	GoVersion string    `json:"go_version"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusResponse is the detailed service status.
type StatusResponse struct {
	Service  ServiceInfo    `json:"service"`
	System   SystemInfo     `json:"system"`
	Playback PlaybackInfo   `json:"playback"`
	Health   HealthResponse `json:"health"`
}

// ServiceInfo describes the running process.
type ServiceInfo struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	StartTime time.Time `json:"start_time"`
	Uptime    string    `json:"uptime"`
	PID       int       `json:"pid"`
}

// SystemInfo describes the runtime.
type SystemInfo struct {
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	CPUs         int    `json:"cpus"`
	GoVersion    string `json:"go_version"`
	Goroutines   int    `json:"goroutines"`
	MemoryBytes  uint64 `json:"memory_bytes"`
}

// PlaybackInfo summarizes the player.
type PlaybackInfo struct {
	State            player.State `json:"state"`
	WebSocketClients int          `json:"websocket_clients"`
}

func (h *HealthHandler) check(ctx context.Context) HealthResponse {
	response := HealthResponse{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).String(),
		Checks:    map[string]string{"player": "ok"},
	}

	if h.database == nil {
		response.Checks["database"] = StatusNotConfigured
		return response
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if err := h.database.PingContext(ctx); err != nil {
		response.Status = StatusUnhealthy
		response.Checks["database"] = "failed: " + err.Error()
		h.logger.Warn("Database health check failed", "error", err)
	} else {
		response.Checks["database"] = "ok"
	}
	return response
}

// Health checks the service and its database.
// @Summary Health check
// @Description Returns service health status
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Success 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := h.check(r.Context())

	statusCode := http.StatusOK
	if response.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, r, statusCode, response)
}

// Liveness reports that the process is serving requests.
// @Summary Liveness check
// @Description Returns simple liveness status without dependency checks
// @Tags System
// @Produce json
// @Success 200 {object} LivenessResponse
// @Router /liveness [get]
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, LivenessResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).String(),
	})
}

// Version returns build information.
// @Summary Version information
// @Tags System
// @Produce json
// @Success 200 {object} VersionResponse
// @Router /version [get]
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	v, c, bt := buildInfo()
	writeJSON(w, r, http.StatusOK, VersionResponse{
		Version:   v,
		Commit:    c,
		BuildTime: bt,
		GoVersion: runtime.Version(),
		Timestamp: time.Now().UTC(),
	})
}

// Status returns detailed service status.
// @Summary System status
// @Tags System
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /status [get]
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	v, _, _ := buildInfo()

	response := StatusResponse{
		Service: ServiceInfo{
			Name:      "scanviz",
			Version:   v,
			StartTime: h.startTime,
			Uptime:    time.Since(h.startTime).String(),
			PID:       os.Getpid(),
		},
		System: SystemInfo{
			OS:           runtime.GOOS,
			Architecture: runtime.GOARCH,
			CPUs:         runtime.NumCPU(),
			GoVersion:    runtime.Version(),
			Goroutines:   runtime.NumGoroutine(),
			MemoryBytes:  memStats.Alloc,
		},
		Playback: PlaybackInfo{State: player.StateIdle},
		Health:   h.check(r.Context()),
	}
	if h.player != nil {
		response.Playback.State = h.player.State()
	}
	if h.clients != nil {
		response.Playback.WebSocketClients = h.clients()
	}

	writeJSON(w, r, http.StatusOK, response)
}
