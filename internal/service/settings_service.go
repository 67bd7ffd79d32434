// Package service provides business logic for the GoVis visualizer.
package service

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
)

// SettingsService owns the visualization settings.
//
// Update is the single writer; every reader gets an immutable snapshot through
// Current, so renderers never observe a half-applied patch.
type SettingsService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.SettingsRepository
	bus        ports.EventBus

	current atomic.Pointer[domain.VisualizationSettings]

	// writeMu serializes writers so Previous in published events is exact.
	writeMu sync.Mutex
}

// NewSettingsService creates a settings service, restoring saved settings
// when the repository has valid ones. repository may be nil.
func NewSettingsService(
	logger *slog.Logger,
	repository ports.SettingsRepository,
	bus ports.EventBus,
) *SettingsService {
	s := &SettingsService{
		logger:     logger.With(slog.String("component", "settings")),
		repository: repository,
		bus:        bus,
	}

	initial := domain.DefaultSettings()
	if saved, ok := s.load(); ok {
		initial = saved
	}
	s.current.Store(&initial)

	s.logger.Debug("settings service initialized", slog.String("mode", initial.Mode.String()))
	return s
}

func (s *SettingsService) load() (domain.VisualizationSettings, bool) {
	if s.repository == nil {
		return domain.VisualizationSettings{}, false
	}
	saved, ok, err := s.repository.Load()
	if err != nil {
		s.logger.Warn("failed to load saved settings, using defaults", slog.Any("error", err))
		return domain.VisualizationSettings{}, false
	}
	if !ok {
		return domain.VisualizationSettings{}, false
	}
	if err := validateSettings(saved); err != nil {
		s.logger.Warn("saved settings are invalid, using defaults", slog.Any("error", err))
		return domain.VisualizationSettings{}, false
	}
	return saved, true
}

// Current returns the settings snapshot. The returned value is a copy.
func (s *SettingsService) Current() domain.VisualizationSettings {
	return s.current.Load().Clone()
}

// Update merges patch into the current settings, validates the result,
// persists it and publishes a SettingsUpdatedEvent.
//
// Returns a *domain.ValidationError when the merged settings are invalid; the
// current settings are then left untouched.
func (s *SettingsService) Update(patch domain.SettingsPatch) (domain.VisualizationSettings, error) {
	s.writeMu.Lock()
	previous := *s.current.Load()
	if patch.IsEmpty() {
		s.writeMu.Unlock()
		return previous.Clone(), nil
	}

	next := previous.Apply(patch)
	if err := validateSettings(next); err != nil {
		s.writeMu.Unlock()
		s.logger.Debug("settings update rejected", slog.Any("error", err))
		return previous.Clone(), err
	}
	s.commit(previous, next)
	s.writeMu.Unlock()

	s.bus.Publish(domain.NewSettingsUpdatedEvent(previous, next.Clone()))
	return next.Clone(), nil
}

// Reset restores the default settings and clears the saved copy.
func (s *SettingsService) Reset() domain.VisualizationSettings {
	s.writeMu.Lock()
	previous := *s.current.Load()
	next := domain.DefaultSettings()
	s.current.Store(&next)
	if s.repository != nil {
		if err := s.repository.Clear(); err != nil {
			s.logger.Warn("failed to clear saved settings", slog.Any("error", err))
		}
	}
	s.writeMu.Unlock()

	s.logger.Info("settings reset to defaults")
	s.bus.Publish(domain.NewSettingsUpdatedEvent(previous, next.Clone()))
	return next.Clone()
}

// commit stores next and persists it. Caller must hold writeMu.
func (s *SettingsService) commit(previous, next domain.VisualizationSettings) {
	stored := next.Clone()
	s.current.Store(&stored)

	if s.repository != nil {
		if err := s.repository.Save(stored); err != nil {
			// The in-memory update stands; only persistence failed.
			s.logger.Warn("failed to persist settings", slog.Any("error", err))
		}
	}

	if previous.Mode != next.Mode {
		s.logger.Info("visualization mode changed",
			slog.String("from", previous.Mode.String()),
			slog.String("to", next.Mode.String()))
	}
}

// validateSettings checks structure and color syntax.
func validateSettings(v domain.VisualizationSettings) error {
	if err := v.Validate(); err != nil {
		return err
	}
	for _, c := range v.CustomColors {
		if !validHex(c) {
			return domain.NewValidationError("customColors", c, "not a #rgb or #rrggbb color")
		}
	}
	return nil
}

// validHex accepts exactly "#rgb" and "#rrggbb". colorful.Hex alone lets
// short inputs such as "#12345" through.
func validHex(c string) bool {
	if (len(c) != 4 && len(c) != 7) || c[0] != '#' {
		return false
	}
	_, err := colorful.Hex(c)
	return err == nil
}

// Verify that SettingsService implements the expected interface patterns
var _ interface {
	Current() domain.VisualizationSettings
	Update(domain.SettingsPatch) (domain.VisualizationSettings, error)
	Reset() domain.VisualizationSettings
} = (*SettingsService)(nil)
