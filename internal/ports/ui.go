// Package ports define the UI interface for view abstraction.
// This interface allows the presenter to update the UI without depending on Fyne directly.
package ports

import (
	"github.com/tejashwikalptaru/govis/internal/domain"
)

// UI is the interface for the user interface layer.
// This abstracts the Fyne UI implementation and allows for testing without a real UI.
//
// The presenter receives events from the event bus and calls these methods
// to update the controls. The visualizer canvas itself is driven by the
// animation loop, not by the presenter.
//
// Thread-safety: Implementations marshal updates onto the UI goroutine.
type UI interface {
	// SetSettings reflects a settings snapshot in the control panel.
	SetSettings(settings domain.VisualizationSettings)

	// SetPlayState updates the play/pause button state.
	SetPlayState(playing bool)

	// SetTrackInfo updates the displayed track title and artist.
	SetTrackInfo(track domain.Track)

	// SetLoopRunning updates the render status indicator.
	SetLoopRunning(mode domain.Mode, running bool)

	// ShowError displays an error dialog to the user.
	ShowError(title, message string)

	// Run starts the UI event loop.
	// This is a blocking call that runs until the application quits.
	Run() error

	// Quit closes the application.
	Quit()
}
