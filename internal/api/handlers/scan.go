package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/anstrom/scanviz/internal/catalog"
	"github.com/anstrom/scanviz/internal/player"
	"github.com/anstrom/scanviz/internal/probe"
	"github.com/anstrom/scanviz/internal/render"
	"github.com/anstrom/scanviz/internal/scenario"
)

// ScanHandler serves the read-only scan catalog.
type ScanHandler struct {
	catalog catalog.Source
	timing  player.Timing
	logger  *slog.Logger
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(src catalog.Source, timing player.Timing, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{
		catalog: src,
		timing:  timing,
		logger:  logger.With("handler", "scan"),
	}
}

// ScanSummary is one entry of the scan list.
type ScanSummary struct {
	ID            scenario.ScanType      `json:"id"`
	Name          string                 `json:"name"`
	Protocol      scenario.Protocol      `json:"protocol"`
	Detectability scenario.Detectability `json:"detectability"`
	PortStates    []scenario.PortState   `json:"port_states"`
	RequiresRoot  bool                   `json:"requires_root"`
}

// ScanListResponse is returned by ListScans.
type ScanListResponse struct {
	Scans []ScanSummary `json:"scans"`
	Total int           `json:"total"`
}

// ScanDetailResponse is returned by GetScan.
type ScanDetailResponse struct {
	*scenario.ScanDefinition
	Legend render.Legend `json:"legend"`
	Nmap   NmapResponse  `json:"nmap"`
}

// NmapResponse is an equivalent nmap invocation.
type NmapResponse struct {
	probe.Command
	CommandLine string `json:"command_line"`
}

// PayloadResponse is the UDP probe body sent to the selected port.
type PayloadResponse struct {
	Port    int    `json:"port"`
	Service string `json:"service"`
	Summary string `json:"summary"`
	Size    int    `json:"size"`
	Hex     string `json:"hex,omitempty"`
}

// ScenarioResponse is the full preview of one scenario.
type ScenarioResponse struct {
	ScanType   scenario.ScanType          `json:"scan_type"`
	PortState  scenario.PortState         `json:"port_state"`
	Speed      float64                    `json:"speed"`
	Port       int                        `json:"port"`
	Judgement  scenario.Judgement         `json:"judgement"`
	Badge      scenario.Badge             `json:"badge"`
	BadgeText  string                     `json:"badge_text"`
	BadgeColor render.Swatch              `json:"badge_color"`
	Palette    render.Palette             `json:"palette"`
	Frames     []render.FramePresentation `json:"frames"`
	Timeline   []string                   `json:"timeline"`
	EstimateMs int64                      `json:"estimate_ms"`
	Nmap       NmapResponse               `json:"nmap"`
	Payload    *PayloadResponse           `json:"payload,omitempty"`
}

// ListScans lists every scan type in catalog order.
// @Summary List scan types
// @Description Returns every visualized scan technique
// @Tags Scans
// @Produce json
// @Success 200 {object} ScanListResponse
// @Router /scans [get]
func (h *ScanHandler) ListScans(w http.ResponseWriter, r *http.Request) {
	defs := h.catalog.List()
	resp := ScanListResponse{Scans: make([]ScanSummary, 0, len(defs)), Total: len(defs)}
	for _, def := range defs {
		states := make([]scenario.PortState, 0, len(scenario.PortStates))
		for _, state := range scenario.PortStates {
			if _, ok := def.Scenarios[state]; ok {
				states = append(states, state)
			}
		}
		resp.Scans = append(resp.Scans, ScanSummary{
			ID:            def.ID,
			Name:          def.Name,
			Protocol:      def.Protocol,
			Detectability: def.IDS.Detectability,
			PortStates:    states,
			RequiresRoot:  probe.RequiresRoot(def.ID),
		})
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// GetScan returns one scan definition.
// @Summary Get scan type
// @Description Returns the definition, legend and nmap equivalent of a scan type
// @Tags Scans
// @Produce json
// @Param id path string true "Scan type"
// @Success 200 {object} ScanDetailResponse
// @Failure 404 {object} ErrorResponse
// @Router /scans/{id} [get]
func (h *ScanHandler) GetScan(w http.ResponseWriter, r *http.Request) {
	id := scenario.ParseScanType(mux.Vars(r)["id"])
	def, err := h.catalog.Definition(id)
	if err != nil {
		handleError(w, r, h.logger, "get scan", err)
		return
	}

	nmapCmd, err := h.nmap(r, id, scenario.DefaultPort)
	if err != nil {
		handleError(w, r, h.logger, "get scan", err)
		return
	}

	writeJSON(w, r, http.StatusOK, ScanDetailResponse{
		ScanDefinition: def,
		Legend:         render.LegendForScan(def),
		Nmap:           nmapCmd,
	})
}

// GetScenario previews one scenario of a scan type. An unknown port state
// falls back to open.
// @Summary Preview scenario
// @Description Returns frames, timeline, judgement badge and estimated duration
// @Tags Scans
// @Produce json
// @Param id path string true "Scan type"
// @Param state path string true "Port state (open|closed)"
// @Param speed query number false "Playback speed"
// @Param port query int false "Cosmetic port number"
// @Param theme query string false "Theme (dark|light)"
// @Success 200 {object} ScenarioResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /scans/{id}/scenarios/{state} [get]
func (h *ScanHandler) GetScenario(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := scenario.ParseScanType(vars["id"])
	state, _ := scenario.ParsePortState(vars["state"])
	query := r.URL.Query()

	speed := scenario.DefaultSpeed
	if raw := query.Get("speed"); raw != "" {
		v, err := scenario.ParseSpeed(raw)
		if err != nil {
			handleError(w, r, h.logger, "get scenario", err)
			return
		}
		speed = v
	}
	port := scenario.DefaultPort
	if raw := query.Get("port"); raw != "" {
		port = scenario.CoercePort(raw)
	}
	theme, _ := render.ParseTheme(query.Get("theme"))

	s, resolved, err := h.catalog.Scenario(id, state)
	if err != nil {
		handleError(w, r, h.logger, "get scenario", err)
		return
	}
	def, err := h.catalog.Definition(id)
	if err != nil {
		handleError(w, r, h.logger, "get scenario", err)
		return
	}

	nmapCmd, err := h.nmap(r, id, port)
	if err != nil {
		handleError(w, r, h.logger, "get scenario", err)
		return
	}

	palette := render.PaletteFor(theme)
	badge := s.Judgement.Badge()
	resp := ScenarioResponse{
		ScanType:   id,
		PortState:  resolved,
		Speed:      speed,
		Port:       port,
		Judgement:  s.Judgement,
		Badge:      badge,
		BadgeText:  render.BadgeText(badge),
		BadgeColor: palette.BadgeColor(badge),
		Palette:    palette,
		Frames:     make([]render.FramePresentation, len(s.Frames)),
		Timeline:   render.Timeline(s.Frames),
		EstimateMs: h.timing.Estimate(s.Frames, speed).Milliseconds(),
		Nmap:       nmapCmd,
	}
	for i, f := range s.Frames {
		resp.Frames[i] = palette.Present(i, f)
	}

	if def.Protocol == scenario.UDP {
		payload, err := probe.UDPPayload(port)
		if err != nil {
			handleError(w, r, h.logger, "get scenario", err)
			return
		}
		resp.Payload = &PayloadResponse{
			Port:    payload.Port,
			Service: payload.Service,
			Summary: payload.Summary,
			Size:    len(payload.Bytes),
			Hex:     payload.Hex(),
		}
	}

	writeJSON(w, r, http.StatusOK, resp)
}

const nmapBuildTimeout = 2 * time.Second

func (h *ScanHandler) nmap(r *http.Request, id scenario.ScanType, port int) (NmapResponse, error) {
	ctx, cancel := context.WithTimeout(r.Context(), nmapBuildTimeout)
	defer cancel()

	cmd, err := probe.NmapCommand(ctx, id, "", port)
	if err != nil {
		return NmapResponse{}, err
	}
	return NmapResponse{Command: cmd, CommandLine: cmd.String()}, nil
}
