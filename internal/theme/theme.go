// Package theme holds the process-wide light/dark preference.
package theme

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/models"
)

// PrefKey is the preference key the theme is stored under.
const PrefKey = "theme"

// Prefs is the persisted key/value store the theme lives in.
type Prefs interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// ApplyFunc reflects a theme in the running process.
type ApplyFunc func(models.Theme)

// TerminalApply tells lipgloss which background to render against.
func TerminalApply(t models.Theme) {
	lipgloss.SetHasDarkBackground(t == models.ThemeDark)
}

// State is loaded once at startup and changed only through Set.
type State struct {
	prefs  Prefs
	apply  ApplyFunc
	logger *slog.Logger

	mu      sync.Mutex
	current models.Theme
}

// New loads the stored theme, defaulting to light when it is absent, unknown
// or unreadable. It does not apply it; call Reapply for that.
func New(p Prefs, apply ApplyFunc, logger *slog.Logger) *State {
	if apply == nil {
		apply = func(models.Theme) {}
	}
	s := &State{prefs: p, apply: apply, logger: logger, current: models.ThemeLight}

	raw, err := p.Get(PrefKey)
	if err != nil {
		logger.Warn("read theme preference failed", slog.String("error", err.Error()))
		return s
	}
	if t, ok := models.ParseTheme(raw); ok {
		s.current = t
	}
	return s
}

// Current returns the active theme.
func (s *State) Current() models.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set changes the theme, writes it through to storage, and applies it. A write
// failure is logged; the in-memory theme still changes.
func (s *State) Set(t models.Theme) error {
	if _, ok := models.ParseTheme(string(t)); !ok {
		return fmt.Errorf("%w: unknown theme %q", apperr.ErrValidation, t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = t
	if err := s.prefs.Set(PrefKey, string(t)); err != nil {
		s.logger.Error("persist theme failed", slog.String("theme", string(t)), slog.String("error", err.Error()))
	}
	s.apply(t)
	return nil
}

// Reapply applies the current theme again without touching storage.
func (s *State) Reapply() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(s.current)
}
