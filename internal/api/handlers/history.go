package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/anstrom/scanviz/internal/db"
	"github.com/anstrom/scanviz/internal/errors"
	"github.com/anstrom/scanviz/internal/scenario"
)

// HistoryReader is the read side of the playback history repository.
type HistoryReader interface {
	Get(ctx context.Context, id string) (*db.PlaybackRecord, error)
	List(ctx context.Context, filter db.HistoryFilter) ([]*db.PlaybackRecord, error)
	Count(ctx context.Context, filter db.HistoryFilter) (int64, error)
	Stats(ctx context.Context) ([]*db.ScanStats, error)
}

// HistoryHandler serves recorded playback sessions.
type HistoryHandler struct {
	history HistoryReader
	logger  *slog.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(history HistoryReader, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		logger:  logger.With("handler", "history"),
	}
}

// HistoryResponse is one page of history.
type HistoryResponse struct {
	Records []*db.PlaybackRecord `json:"records"`
	Total   int64                `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

// StatsResponse aggregates history per scan type.
type StatsResponse struct {
	Stats []*db.ScanStats `json:"stats"`
}

func historyFilter(r *http.Request) (db.HistoryFilter, error) {
	query := r.URL.Query()
	filter := db.HistoryFilter{
		ScanType: string(scenario.ParseScanType(query.Get("scan_type"))),
		Outcome:  query.Get("outcome"),
	}
	if raw := query.Get("port_state"); raw != "" {
		state, ok := scenario.ParsePortState(raw)
		if !ok {
			return filter, errors.ErrInvalidPortState(raw)
		}
		filter.PortState = string(state)
	}
	switch filter.Outcome {
	case "", db.OutcomeCompleted, db.OutcomeStopped:
	default:
		return filter, errors.NewConfigFieldError(errors.CodeValidation, "Invalid outcome", "outcome", filter.Outcome)
	}
	if raw := query.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.NewConfigFieldError(errors.CodeValidation, "Invalid RFC 3339 time", "since", raw)
		}
		filter.Since = since
	}

	var err error
	if filter.Limit, err = getQueryParamInt(r, "limit", 0); err != nil {
		return filter, err
	}
	if filter.Offset, err = getQueryParamInt(r, "offset", 0); err != nil {
		return filter, err
	}
	return filter, nil
}

// ListHistory lists recorded sessions, newest first.
// @Summary List playback history
// @Tags History
// @Produce json
// @Param scan_type query string false "Scan type"
// @Param port_state query string false "Port state"
// @Param outcome query string false "completed or stopped"
// @Param since query string false "RFC 3339 lower bound on start time"
// @Param limit query int false "Page size (max 500)"
// @Param offset query int false "Offset"
// @Success 200 {object} HistoryResponse
// @Failure 400 {object} ErrorResponse
// @Router /history [get]
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := historyFilter(r)
	if err != nil {
		handleError(w, r, h.logger, "list history", err)
		return
	}
	filter = filter.Normalized()

	records, err := h.history.List(r.Context(), filter)
	if err != nil {
		handleError(w, r, h.logger, "list history", err)
		return
	}
	total, err := h.history.Count(r.Context(), filter)
	if err != nil {
		handleError(w, r, h.logger, "count history", err)
		return
	}
	if records == nil {
		records = []*db.PlaybackRecord{}
	}

	writeJSON(w, r, http.StatusOK, HistoryResponse{
		Records: records,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	})
}

// GetHistory returns one recorded session.
// @Summary Get playback record
// @Tags History
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} db.PlaybackRecord
// @Failure 404 {object} ErrorResponse
// @Router /history/{id} [get]
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	rec, err := h.history.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		handleError(w, r, h.logger, "get history", err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

// GetStats aggregates history per scan type.
// @Summary Playback statistics
// @Tags History
// @Produce json
// @Success 200 {object} StatsResponse
// @Router /history/stats [get]
func (h *HistoryHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.history.Stats(r.Context())
	if err != nil {
		handleError(w, r, h.logger, "history stats", err)
		return
	}
	if stats == nil {
		stats = []*db.ScanStats{}
	}
	writeJSON(w, r, http.StatusOK, StatsResponse{Stats: stats})
}
