package visualizer

import (
	"math"

	"github.com/tejashwikalptaru/govis/internal/domain"
)

const (
	minFrequencyBar   = 5.0
	frequencySmooth   = 0.3
	frequencyJitter   = 0.1
	frequencyJitterHz = 0.2
)

// Frequency draws smoothed spectrum bars with rounded tops and a center pulse.
type Frequency struct{}

// NewFrequency creates a frequency renderer.
func NewFrequency() *Frequency {
	return &Frequency{}
}

// Mode implements Renderer.
func (f *Frequency) Mode() domain.Mode { return domain.ModeFrequency }

// Release implements Renderer.
func (f *Frequency) Release() {}

// FrequencyBarHeights returns smoothed bar heights for a canvas of height h at
// animation time t. Each bar is at least 5 and at most h.
func FrequencyBarHeights(bins []float64, sensitivity, h, t float64) []float64 {
	out := make([]float64, len(bins))
	for i, v := range bins {
		jitter := math.Sin(t+float64(i)*frequencyJitterHz) * frequencyJitter
		raw := math.Min(h, math.Max(minFrequencyBar, v*sensitivity*h*(1+jitter)))
		if i == 0 {
			out[i] = raw
			continue
		}
		out[i] = out[i-1]*frequencySmooth + raw*(1-frequencySmooth)
	}
	return out
}

// FrequencyPulseRadius returns the center circle radius.
func FrequencyPulseRadius(w, h, amplitude, sensitivity float64) float64 {
	return math.Min(w, h) * 0.1 * amplitude * sensitivity
}

// DrawFrame implements Renderer.
func (f *Frequency) DrawFrame(s *Surface, frame domain.AudioFrame, settings domain.VisualizationSettings, palette PaletteFunc, elapsed float64) error {
	if len(frame.Frequency) == 0 {
		f.DrawIdle(s, settings, palette)
		return nil
	}

	c := s.Canvas()
	c.Clear()

	p := palette()
	width, height := c.Width(), c.Height()
	sf := settings.SensitivityFactor()
	barWidth := width / float64(len(frame.Frequency))
	capRadius := barWidth / 2
	// Bottom to top.
	grad := NewGradient(p.Color(0), p.Color(1), p.Color(2))

	for i, bh := range FrequencyBarHeights(frame.Frequency, sf, height, elapsed) {
		x := float64(i) * barWidth
		top := height - bh
		c.FillRectGradient(x, top, barWidth, bh, grad, height, 0)

		capColor, capAlpha := grad.At(bh / height)
		topCap := arcPoints(x+capRadius, top, capRadius, math.Pi, 2*math.Pi, 12)
		c.FillPolygon(topCap, withAlpha(capColor, capAlpha))
	}

	r := FrequencyPulseRadius(width, height, frame.Amplitude, sf)
	if r > 0 {
		glow := Gradient{}.Add(0, p.Color(0), 0.35).Add(1, p.Color(0), 0)
		c.FillRadialGradient(width/2, height/2, r*1.6, glow, 1)
		c.FillCircle(width/2, height/2, r, withAlpha(p.Color(1), 0.7))
	}
	return nil
}

// DrawIdle clears the surface.
func (f *Frequency) DrawIdle(s *Surface, _ domain.VisualizationSettings, _ PaletteFunc) {
	clearIdle(s)
}
