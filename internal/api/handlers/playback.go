package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/anstrom/scanviz/internal/controller"
	"github.com/anstrom/scanviz/internal/player"
)

// PlaybackController is the controller surface used by the API.
type PlaybackController interface {
	Status() controller.Status
	Preview() (controller.Preview, error)
	SelectScan(raw string) (controller.Preview, error)
	SelectPortState(raw string) (controller.Preview, error)
	SetSpeed(v float64) error
	SetPort(raw string) int
	Start() (*player.Session, error)
	Stop() bool
	TogglePlay() (controller.Status, error)
	Reset() (controller.Preview, error)
}

// PlaybackHandler exposes the playback controller.
type PlaybackHandler struct {
	controller PlaybackController
	logger     *slog.Logger
}

// NewPlaybackHandler creates a new playback handler.
func NewPlaybackHandler(c PlaybackController, logger *slog.Logger) *PlaybackHandler {
	return &PlaybackHandler{
		controller: c,
		logger:     logger.With("handler", "playback"),
	}
}

// SelectScanRequest selects a scan type.
type SelectScanRequest struct {
	ScanType string `json:"scan_type" validate:"required"`
}

// PortStateRequest selects the simulated port state.
type PortStateRequest struct {
	PortState string `json:"port_state" validate:"required"`
}

// SpeedRequest changes the playback speed.
type SpeedRequest struct {
	Speed *float64 `json:"speed" validate:"required"`
}

// PortRequest changes the cosmetic port. Numbers and numeric strings are
// accepted; anything else becomes port 80.
type PortRequest struct {
	Port interface{} `json:"port"`
}

// StopResponse reports whether a session was stopped.
type StopResponse struct {
	Stopped bool              `json:"stopped"`
	Status  controller.Status `json:"status"`
}

// PortResponse is the port actually applied.
type PortResponse struct {
	Port   int               `json:"port"`
	Status controller.Status `json:"status"`
}

// GetStatus returns the selection and player state.
// @Summary Playback status
// @Tags Playback
// @Produce json
// @Success 200 {object} controller.Status
// @Router /playback [get]
func (h *PlaybackHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.controller.Status())
}

// GetPreview returns the idle preview of the current selection.
// @Summary Preview current selection
// @Tags Playback
// @Produce json
// @Success 200 {object} controller.Preview
// @Router /playback/preview [get]
func (h *PlaybackHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	preview, err := h.controller.Preview()
	if err != nil {
		handleError(w, r, h.logger, "preview", err)
		return
	}
	writeJSON(w, r, http.StatusOK, preview)
}

// Start plays the current selection, restarting any active session.
// @Summary Start playback
// @Tags Playback
// @Produce json
// @Security ApiKeyAuth
// @Success 202 {object} player.Info
// @Router /playback/start [post]
func (h *PlaybackHandler) Start(w http.ResponseWriter, r *http.Request) {
	session, err := h.controller.Start()
	if err != nil {
		handleError(w, r, h.logger, "start", err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, session.Info())
}

// Stop stops playback. Stopping while idle is not an error.
// @Summary Stop playback
// @Tags Playback
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} StopResponse
// @Router /playback/stop [post]
func (h *PlaybackHandler) Stop(w http.ResponseWriter, r *http.Request) {
	stopped := h.controller.Stop()
	writeJSON(w, r, http.StatusOK, StopResponse{Stopped: stopped, Status: h.controller.Status()})
}

// Toggle starts playback when idle and stops it when playing.
// @Summary Toggle playback
// @Tags Playback
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} controller.Status
// @Router /playback/toggle [post]
func (h *PlaybackHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	status, err := h.controller.TogglePlay()
	if err != nil {
		handleError(w, r, h.logger, "toggle", err)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

// Reset stops playback and restores the default selection.
// @Summary Reset selection
// @Tags Playback
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} controller.Preview
// @Router /playback/reset [post]
func (h *PlaybackHandler) Reset(w http.ResponseWriter, r *http.Request) {
	preview, err := h.controller.Reset()
	if err != nil {
		handleError(w, r, h.logger, "reset", err)
		return
	}
	writeJSON(w, r, http.StatusOK, preview)
}

// SelectScan switches the scan type and stops playback.
// @Summary Select scan type
// @Tags Playback
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body SelectScanRequest true "Scan type"
// @Success 200 {object} controller.Preview
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /playback/select [post]
func (h *PlaybackHandler) SelectScan(w http.ResponseWriter, r *http.Request) {
	var req SelectScanRequest
	if err := parseJSON(w, r, &req); err != nil {
		handleError(w, r, h.logger, "select scan", err)
		return
	}
	preview, err := h.controller.SelectScan(req.ScanType)
	if err != nil {
		handleError(w, r, h.logger, "select scan", err)
		return
	}
	writeJSON(w, r, http.StatusOK, preview)
}

// SelectPortState switches the port state. Rejected while playing.
// @Summary Select port state
// @Tags Playback
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body PortStateRequest true "Port state"
// @Success 200 {object} controller.Preview
// @Failure 409 {object} ErrorResponse
// @Router /playback/port-state [post]
func (h *PlaybackHandler) SelectPortState(w http.ResponseWriter, r *http.Request) {
	var req PortStateRequest
	if err := parseJSON(w, r, &req); err != nil {
		handleError(w, r, h.logger, "select port state", err)
		return
	}
	preview, err := h.controller.SelectPortState(req.PortState)
	if err != nil {
		handleError(w, r, h.logger, "select port state", err)
		return
	}
	writeJSON(w, r, http.StatusOK, preview)
}

// SetSpeed changes the playback speed. Rejected while playing.
// @Summary Set speed
// @Tags Playback
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body SpeedRequest true "Speed"
// @Success 200 {object} controller.Status
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /playback/speed [post]
func (h *PlaybackHandler) SetSpeed(w http.ResponseWriter, r *http.Request) {
	var req SpeedRequest
	if err := parseJSON(w, r, &req); err != nil {
		handleError(w, r, h.logger, "set speed", err)
		return
	}
	if err := h.controller.SetSpeed(*req.Speed); err != nil {
		handleError(w, r, h.logger, "set speed", err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.controller.Status())
}

// SetPort changes the cosmetic port and stops playback.
// @Summary Set port
// @Tags Playback
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body PortRequest true "Port"
// @Success 200 {object} PortResponse
// @Router /playback/port [post]
func (h *PlaybackHandler) SetPort(w http.ResponseWriter, r *http.Request) {
	var req PortRequest
	if err := parseJSON(w, r, &req); err != nil {
		handleError(w, r, h.logger, "set port", err)
		return
	}
	raw := ""
	if req.Port != nil {
		raw = fmt.Sprint(req.Port)
	}
	port := h.controller.SetPort(raw)
	writeJSON(w, r, http.StatusOK, PortResponse{Port: port, Status: h.controller.Status()})
}
