package visualizer

import (
	"math"

	"github.com/tejashwikalptaru/govis/internal/domain"
)

const (
	circularRings       = 3
	circularOrbitDots   = 20
	circularOrbitRadius = 2.0
	circularSpin        = 0.2
)

// Circular draws three rotating rings displaced by the audio, a pulsing center
// disk with a halo, and a ring of orbiting dots.
type Circular struct{}

// NewCircular creates a circular renderer.
func NewCircular() *Circular {
	return &Circular{}
}

// Mode implements Renderer.
func (r *Circular) Mode() domain.Mode { return domain.ModeCircular }

// Release implements Renderer.
func (r *Circular) Release() {}

// RingPoints returns the closed outline of ring c (0-based). Even rings sample
// frequency data and odd rings sample waveform data; each ring indexes its own
// source array.
func RingPoints(frame domain.AudioFrame, c int, sensitivity, cx, cy, maxR, t float64) []Point {
	data := frame.Frequency
	dir := 1.0
	if c%2 == 1 {
		data = frame.Waveform
		dir = -1
	}

	n := 60 + c*10
	ringR := maxR * float64(c+1) / circularRings
	rotation := t * dir * circularSpin

	pts := make([]Point, n)
	for i := range n {
		v := 0.0
		if len(data) > 0 {
			v = data[min(len(data)-1, i*len(data)/n)]
		}
		angle := float64(i)/float64(n)*2*math.Pi + rotation
		radius := ringR + v*sensitivity*maxR*0.2
		pts[i] = Point{cx + math.Cos(angle)*radius, cy + math.Sin(angle)*radius}
	}
	return pts
}

// CircularPulseRadius returns the center disk radius.
func CircularPulseRadius(maxR, amplitude, sensitivity float64) float64 {
	return maxR * 0.15 * (0.8 + amplitude*sensitivity*0.5)
}

// OrbitPoint returns the center of orbiting dot i at time t.
func OrbitPoint(i int, cx, cy, maxR, t float64) Point {
	angle := float64(i)/circularOrbitDots*2*math.Pi + t*0.5
	dist := maxR*0.6 + math.Sin(t*2+float64(i))*20
	return Point{cx + math.Cos(angle)*dist, cy + math.Sin(angle)*dist}
}

// DrawFrame implements Renderer.
func (r *Circular) DrawFrame(s *Surface, frame domain.AudioFrame, settings domain.VisualizationSettings, palette PaletteFunc, elapsed float64) error {
	if frame.IsEmpty() {
		r.DrawIdle(s, settings, palette)
		return nil
	}

	c := s.Canvas()
	c.Clear()

	p := palette()
	sf := settings.SensitivityFactor()
	cx, cy := c.Width()/2, c.Height()/2
	maxR := math.Min(c.Width(), c.Height()) * 0.4

	for ring := range circularRings {
		pts := RingPoints(frame, ring, sf, cx, cy, maxR, elapsed)
		col := p.Cycle(ring)
		width := 3 - float64(ring)*0.5
		alpha := 0.7 - float64(ring)*0.15

		// Soft glow under the ring.
		c.StrokePolyline(pts, true, width*4, withAlpha(col, alpha*0.2))
		c.StrokePolyline(pts, true, width, withAlpha(col, alpha))
	}

	pulse := CircularPulseRadius(maxR, frame.Amplitude, sf)
	c.FillCircle(cx, cy, pulse, withAlpha(p.Color(0), 0.7))

	halo := Gradient{}.
		Add(0, p.Color(2), 1).
		Add(1/1.5, p.Color(2), 0)
	c.FillRadialGradient(cx, cy, pulse*1.5, halo, 0.5)

	for i := range circularOrbitDots {
		pt := OrbitPoint(i, cx, cy, maxR, elapsed)
		c.FillCircle(pt.X, pt.Y, circularOrbitRadius, withAlpha(p.Cycle(i), 1))
	}
	return nil
}

// DrawIdle clears the surface.
func (r *Circular) DrawIdle(s *Surface, _ domain.VisualizationSettings, _ PaletteFunc) {
	clearIdle(s)
}
