package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/anstrom/scanviz/internal/render"
)

const (
	// SessionName is the name of the preference cookie.
	SessionName = "scanviz"

	sessionThemeKey = "theme"
	sessionMaxAge   = 365 * 24 * 60 * 60

	sourceSession = "session"
	sourceServer  = "server"
)

// ThemeStore is the server-side theme preference.
type ThemeStore interface {
	Get(ctx context.Context) (render.Theme, error)
	Set(ctx context.Context, raw string) (render.Theme, error)
}

// PreferenceHandler serves the theme preference. A browser's own choice
// lives in a signed cookie; the server-side value is the default for
// browsers without one and is what the CLI uses.
type PreferenceHandler struct {
	themes ThemeStore
	store  sessions.Store
	logger *slog.Logger
}

// NewCookieStore creates the signed cookie store for preference sessions.
func NewCookieStore(secret []byte) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// NewPreferenceHandler creates a new preference handler.
func NewPreferenceHandler(themes ThemeStore, store sessions.Store, logger *slog.Logger) *PreferenceHandler {
	return &PreferenceHandler{
		themes: themes,
		store:  store,
		logger: logger.With("handler", "preferences"),
	}
}

// ThemeRequest sets the theme.
type ThemeRequest struct {
	Theme string `json:"theme" validate:"required"`
}

// ThemeResponse is the effective theme and its palette.
type ThemeResponse struct {
	Theme   render.Theme   `json:"theme"`
	Source  string         `json:"source"`
	Palette render.Palette `json:"palette"`
}

func themeResponse(theme render.Theme, source string) ThemeResponse {
	return ThemeResponse{Theme: theme, Source: source, Palette: render.PaletteFor(theme)}
}

// current resolves the theme for r: the cookie value when present and
// valid, otherwise the server-side preference.
func (h *PreferenceHandler) current(r *http.Request) (render.Theme, string, error) {
	if session, err := h.store.Get(r, SessionName); err == nil {
		if raw, ok := session.Values[sessionThemeKey].(string); ok {
			if theme, valid := render.ParseTheme(raw); valid {
				return theme, sourceSession, nil
			}
		}
	}
	theme, err := h.themes.Get(r.Context())
	return theme, sourceServer, err
}

func (h *PreferenceHandler) save(w http.ResponseWriter, r *http.Request, raw string) (render.Theme, error) {
	theme, err := h.themes.Set(r.Context(), raw)
	if err != nil {
		return theme, err
	}

	// A cookie that fails to decode (rotated secret) yields a fresh session.
	session, _ := h.store.Get(r, SessionName)
	session.Values[sessionThemeKey] = string(theme)
	if err := session.Save(r, w); err != nil {
		h.logger.Warn("Failed to save preference cookie", "error", err)
	}
	return theme, nil
}

// GetTheme returns the effective theme.
// @Summary Get theme
// @Tags Preferences
// @Produce json
// @Success 200 {object} ThemeResponse
// @Router /preferences/theme [get]
func (h *PreferenceHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	theme, source, err := h.current(r)
	if err != nil {
		handleError(w, r, h.logger, "get theme", err)
		return
	}
	writeJSON(w, r, http.StatusOK, themeResponse(theme, source))
}

// SetTheme stores the theme in the cookie and on the server.
// @Summary Set theme
// @Tags Preferences
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body ThemeRequest true "Theme"
// @Success 200 {object} ThemeResponse
// @Failure 400 {object} ErrorResponse
// @Router /preferences/theme [put]
func (h *PreferenceHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeRequest
	if err := parseJSON(w, r, &req); err != nil {
		handleError(w, r, h.logger, "set theme", err)
		return
	}
	theme, err := h.save(w, r, req.Theme)
	if err != nil {
		handleError(w, r, h.logger, "set theme", err)
		return
	}
	writeJSON(w, r, http.StatusOK, themeResponse(theme, sourceSession))
}

// ToggleTheme switches between light and dark.
// @Summary Toggle theme
// @Tags Preferences
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} ThemeResponse
// @Router /preferences/theme/toggle [post]
func (h *PreferenceHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	current, _, err := h.current(r)
	if err != nil {
		handleError(w, r, h.logger, "toggle theme", err)
		return
	}
	theme, err := h.save(w, r, string(current.Toggle()))
	if err != nil {
		handleError(w, r, h.logger, "toggle theme", err)
		return
	}
	writeJSON(w, r, http.StatusOK, themeResponse(theme, sourceSession))
}
