// Package visualizer contains the audio-reactive renderers, the surface they
// draw on and the palette resolution shared by all of them.
package visualizer

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/visualizer/scene"
)

// Renderer draws one visualization mode.
//
// DrawFrame repaints the whole surface from one audio frame. Only the particle
// and 3D renderers keep state between calls; Release drops that state and must
// leave the renderer reusable.
//
// Renderers are driven by a single animation loop and are not safe for
// concurrent use.
type Renderer interface {
	// Mode returns the mode this renderer implements.
	Mode() domain.Mode

	// DrawFrame draws one playing frame. elapsed is animation time in seconds.
	// A returned error means the frame is degraded; the surface still holds a
	// valid image.
	DrawFrame(s *Surface, frame domain.AudioFrame, settings domain.VisualizationSettings, palette PaletteFunc, elapsed float64) error

	// DrawIdle draws the paused visual.
	DrawIdle(s *Surface, settings domain.VisualizationSettings, palette PaletteFunc)

	// Release frees per-mode resources.
	Release()
}

// Options carries dependencies shared by renderer constructors.
type Options struct {
	Logger *slog.Logger

	// Rand drives particle spawning. Nil uses a time-seeded source.
	Rand *rand.Rand

	// Device creates 3D rendering devices. Nil uses scene.NewSoftwareDevice.
	Device scene.DeviceFactory
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Constructor builds a renderer.
type Constructor func(opts Options) Renderer

var registry = map[domain.Mode]Constructor{
	domain.ModeWaveform:  func(Options) Renderer { return NewWaveform() },
	domain.ModeFrequency: func(Options) Renderer { return NewFrequency() },
	domain.ModeCircular:  func(Options) Renderer { return NewCircular() },
	domain.ModeParticles: func(o Options) Renderer { return NewParticles(o) },
	domain.Mode3D:        func(o Options) Renderer { return NewThreeD(o) },
}

// NewRenderer creates the renderer registered for mode.
func NewRenderer(mode domain.Mode, opts Options) (Renderer, error) {
	ctor, ok := registry[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownMode, mode)
	}
	return ctor(opts), nil
}

// ModeInfo contains information about a visualization mode.
type ModeInfo struct {
	Mode domain.Mode
	Name string
}

// Modes returns all available modes with their display names.
func Modes() []ModeInfo {
	return []ModeInfo{
		{domain.ModeWaveform, "Waveform"},
		{domain.ModeFrequency, "Frequency"},
		{domain.ModeCircular, "Circular"},
		{domain.ModeParticles, "Particles"},
		{domain.Mode3D, "3D"},
	}
}

// clearIdle is the idle visual for every mode except waveform.
func clearIdle(s *Surface) {
	s.Canvas().Clear()
}
