// Package preferences persists visualization settings in Fyne preferences.
package preferences

import (
	"encoding/json"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
)

const keySettings = "visualizer.settings"

// SettingsRepository implements ports.SettingsRepository using Fyne preferences.
// The whole snapshot is stored as one JSON string so partial writes cannot mix
// fields from different versions.
//
// Thread-safe: All operations protected by sync.RWMutex.
type SettingsRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewSettingsRepository creates a new settings repository.
// The preferences parameter should be obtained from fyne.CurrentApp().Preferences().
func NewSettingsRepository(prefs fyne.Preferences) *SettingsRepository {
	return &SettingsRepository{
		prefs: prefs,
	}
}

// Save persists the full settings snapshot.
func (r *SettingsRepository) Save(settings domain.VisualizationSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(settings)
	if err != nil {
		return domain.NewServiceError("SettingsRepository", "Save", "failed to marshal settings", err)
	}

	r.prefs.SetString(keySettings, string(data))
	return nil
}

// Load retrieves the saved settings. The boolean is false when nothing was saved.
func (r *SettingsRepository) Load() (domain.VisualizationSettings, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data := r.prefs.String(keySettings)
	if data == "" {
		return domain.VisualizationSettings{}, false, nil
	}

	var settings domain.VisualizationSettings
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		return domain.VisualizationSettings{}, false,
			domain.NewServiceError("SettingsRepository", "Load", "failed to unmarshal settings", err)
	}
	return settings, true, nil
}

// Clear removes the saved settings.
func (r *SettingsRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(keySettings)
	return nil
}

// Verify interface implementation
var _ ports.SettingsRepository = (*SettingsRepository)(nil)
