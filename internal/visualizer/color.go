package visualizer

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// idleGray is the stroke color of the waveform idle line.
var idleGray = colorful.Color{R: 0x66 / 255.0, G: 0x66 / 255.0, B: 0x66 / 255.0}

// white is used when a palette entry cannot be parsed.
var white = colorful.Color{R: 1, G: 1, B: 1}

// ParseColor parses "#rgb" or "#rrggbb" notation.
func ParseColor(s string) (colorful.Color, error) {
	return colorful.Hex(s)
}

// withAlpha converts c to a non-premultiplied color with opacity a in [0, 1].
func withAlpha(c colorful.Color, a float64) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(clamp01(a) * 255))}
}

// Gradient is a piecewise linear color ramp over [0, 1].
type Gradient struct {
	stops []gradientStop
}

type gradientStop struct {
	pos   float64
	color colorful.Color
	alpha float64
}

// NewGradient spreads colors evenly over [0, 1]. A single color yields a flat ramp.
func NewGradient(colors ...colorful.Color) Gradient {
	g := Gradient{}
	if len(colors) == 1 {
		return g.Add(0, colors[0], 1)
	}
	for i, c := range colors {
		g = g.Add(float64(i)/float64(len(colors)-1), c, 1)
	}
	return g
}

// Add returns g with an extra stop. Stops must be added in ascending position.
func (g Gradient) Add(pos float64, c colorful.Color, alpha float64) Gradient {
	stops := make([]gradientStop, len(g.stops), len(g.stops)+1)
	copy(stops, g.stops)
	g.stops = append(stops, gradientStop{pos: pos, color: c, alpha: alpha})
	return g
}

// At returns the color and opacity at position t.
func (g Gradient) At(t float64) (colorful.Color, float64) {
	if len(g.stops) == 0 {
		return white, 1
	}
	if t <= g.stops[0].pos {
		return g.stops[0].color, g.stops[0].alpha
	}
	for i := 1; i < len(g.stops); i++ {
		a, b := g.stops[i-1], g.stops[i]
		if t <= b.pos {
			span := b.pos - a.pos
			if span <= 0 {
				return b.color, b.alpha
			}
			f := (t - a.pos) / span
			return a.color.BlendRgb(b.color, f), a.alpha + (b.alpha-a.alpha)*f
		}
	}
	last := g.stops[len(g.stops)-1]
	return last.color, last.alpha
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
