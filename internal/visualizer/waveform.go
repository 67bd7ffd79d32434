package visualizer

import (
	"math"

	"github.com/tejashwikalptaru/govis/internal/domain"
)

const (
	minWaveformBar = 2.0
	idleLineWidth  = 2.0
)

// Waveform draws mirrored vertical bars around the horizontal center line.
type Waveform struct{}

// NewWaveform creates a waveform renderer.
func NewWaveform() *Waveform {
	return &Waveform{}
}

// Mode implements Renderer.
func (w *Waveform) Mode() domain.Mode { return domain.ModeWaveform }

// Release implements Renderer.
func (w *Waveform) Release() {}

// WaveformBarHeights returns the half-height of each bar for a canvas of height h.
func WaveformBarHeights(samples []float64, sensitivity, h float64) []float64 {
	limit := h / 2
	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = math.Min(limit, math.Max(minWaveformBar, v*sensitivity*limit))
	}
	return out
}

// DrawFrame implements Renderer.
func (w *Waveform) DrawFrame(s *Surface, frame domain.AudioFrame, settings domain.VisualizationSettings, palette PaletteFunc, _ float64) error {
	if len(frame.Waveform) == 0 {
		w.DrawIdle(s, settings, palette)
		return nil
	}

	c := s.Canvas()
	c.Clear()

	p := palette()
	width, height := c.Width(), c.Height()
	centerY := height / 2
	barWidth := width / float64(2*len(frame.Waveform))
	grad := NewGradient(p.Color(0), p.Color(1), p.Color(2))

	for i, bh := range WaveformBarHeights(frame.Waveform, settings.SensitivityFactor(), height) {
		x := float64(i) * barWidth * 2
		c.FillRectGradient(x, centerY-bh, barWidth, bh*2, grad, 0, height)
	}

	c.StrokeLine(0, centerY, width, centerY, idleLineWidth, withAlpha(p.Color(1), 0.3))
	return nil
}

// DrawIdle draws a flat gray center line.
func (w *Waveform) DrawIdle(s *Surface, _ domain.VisualizationSettings, _ PaletteFunc) {
	c := s.Canvas()
	c.Clear()
	centerY := c.Height() / 2
	c.StrokeLine(0, centerY, c.Width(), centerY, idleLineWidth, withAlpha(idleGray, 1))
}
