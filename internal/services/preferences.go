package services

import (
	"context"
	"log/slog"

	"github.com/anstrom/scanviz/internal/errors"
	"github.com/anstrom/scanviz/internal/logging"
	"github.com/anstrom/scanviz/internal/render"
)

// PreferenceTheme is the preference name of the colour theme.
const PreferenceTheme = "theme"

// PreferenceStore reads and writes named preferences.
type PreferenceStore interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
}

// ThemeService persists the colour theme. Without a store it keeps the
// theme in memory only.
type ThemeService struct {
	store    PreferenceStore
	fallback render.Theme
	logger   *slog.Logger
}

// NewThemeService creates a theme service. fallback is returned when no
// theme has been stored yet.
func NewThemeService(store PreferenceStore, fallback render.Theme) *ThemeService {
	return &ThemeService{
		store:    store,
		fallback: fallback,
		logger:   logging.Component("preferences"),
	}
}

// Get returns the stored theme, or the fallback when none is stored or the
// stored value is not a theme.
func (s *ThemeService) Get(ctx context.Context) (render.Theme, error) {
	if s.store == nil {
		return s.fallback, nil
	}
	raw, err := s.store.Get(ctx, PreferenceTheme)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return s.fallback, nil
		}
		return s.fallback, err
	}
	theme, ok := render.ParseTheme(raw)
	if !ok {
		s.logger.Warn("Ignoring stored theme", "theme", raw)
		return s.fallback, nil
	}
	return theme, nil
}

// Set stores theme. Unknown theme names are rejected.
func (s *ThemeService) Set(ctx context.Context, raw string) (render.Theme, error) {
	theme, ok := render.ParseTheme(raw)
	if !ok {
		return s.fallback, errors.NewPlaybackError(errors.CodeValidation, "Theme must be dark or light").
			WithContext("theme", raw)
	}
	if s.store == nil {
		s.fallback = theme
		return theme, nil
	}
	if err := s.store.Set(ctx, PreferenceTheme, string(theme)); err != nil {
		return s.fallback, err
	}
	return theme, nil
}

// Toggle switches between dark and light and stores the result.
func (s *ThemeService) Toggle(ctx context.Context) (render.Theme, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return current, err
	}
	return s.Set(ctx, string(current.Toggle()))
}
