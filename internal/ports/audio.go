// Package ports define interfaces for dependency inversion.
// These interfaces allow the rendering core to remain independent of audio sources and UI frameworks.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/govis/internal/domain"
)

// AudioFeatureProvider supplies the analysis data every renderer consumes.
// Implementations include the PCM analyzer used in production and the synthetic
// provider used for tests and demos.
//
// Implementations must be thread-safe: AudioData is called from the frame
// dispatcher goroutine while playback controls run on the UI goroutine.
type AudioFeatureProvider interface {
	// AudioData returns the current analysis frame.
	// Waveform and Frequency lengths must stay constant for the provider's lifetime.
	//
	// Returns an error when no data can be produced; the caller renders an idle
	// frame and keeps ticking.
	AudioData() (domain.AudioFrame, error)
}

// PlaybackClock reports where in the loaded audio playback currently is.
// The analyzer uses it to position its analysis window.
type PlaybackClock interface {
	// Position returns the current playback position.
	Position() time.Duration

	// Status returns the current playback status.
	Status() domain.PlaybackStatus
}

// AudioDecoder turns an audio file into mono PCM.
//
// Thread-safety: Decode may be called concurrently for different paths.
type AudioDecoder interface {
	// Decode reads and decodes the file at path.
	//
	// Returns domain.ErrUnsupportedFormat (wrapped) when no codec handles the file.
	Decode(path string) (*domain.PCM, error)

	// Supports reports whether the file extension (with leading dot) is handled.
	Supports(ext string) bool
}

// TrackInfoReader extracts display metadata and a color hint for a track.
type TrackInfoReader interface {
	// Read returns the track description for the file at path.
	// A track without artwork is returned with a nil Colors hint, not an error.
	Read(path string) (domain.Track, error)
}

// PCMSource is a PlaybackClock that also exposes the loaded audio.
type PCMSource interface {
	PlaybackClock

	// PCM returns the decoded audio of the loaded track, or nil when nothing is loaded.
	// The returned value must be treated as read-only.
	PCM() *domain.PCM
}
