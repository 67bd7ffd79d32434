// Package ports define repository interfaces for data persistence.
// These interfaces abstract storage mechanisms and allow for different implementations.
package ports

import (
	"github.com/tejashwikalptaru/govis/internal/domain"
)

// SettingsRepository handles the persistence of visualization settings.
// This abstracts the Fyne preferences storage.
//
// Thread-safety: Implementations must be thread-safe.
type SettingsRepository interface {
	// Save persists the full settings snapshot.
	//
	// Returns an error if saving fails.
	Save(settings domain.VisualizationSettings) error

	// Load retrieves the saved settings.
	// The boolean is false when nothing has been saved yet; callers then use defaults.
	//
	// Returns an error if the stored data cannot be decoded.
	Load() (domain.VisualizationSettings, bool, error)

	// Clear removes the saved settings.
	//
	// Returns an error if clearing fails.
	Clear() error
}
