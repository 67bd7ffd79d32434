package visualizer

import (
	"slices"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/tejashwikalptaru/govis/internal/domain"
)

// Palette is an ordered list of "#rrggbb" colors.
type Palette []string

// defaultPalettes are used when neither custom nor track colors apply.
var defaultPalettes = map[domain.Mode]Palette{
	domain.ModeWaveform:  {"#f43f5e", "#ec4899", "#d946ef"},
	domain.ModeFrequency: {"#10b981", "#6366f1", "#f43f5e"},
	domain.ModeCircular:  {"#8b5cf6", "#3b82f6", "#ec4899", "#14b8a6"},
	domain.ModeParticles: {"#f59e0b", "#ec4899", "#8b5cf6", "#06b6d4"},
	domain.Mode3D:        {"#3b82f6", "#8b5cf6", "#ec4899", "#10b981"},
}

// DefaultPalette returns the fixed palette for mode. Unknown modes get the waveform palette.
func DefaultPalette(mode domain.Mode) Palette {
	if p, ok := defaultPalettes[mode]; ok {
		return slices.Clone(p)
	}
	return slices.Clone(defaultPalettes[domain.ModeWaveform])
}

// ResolvePalette picks the colors a renderer should use.
//
//   - custom scheme with at least one custom color: the custom colors, in order
//   - track scheme with a hint: the hint's four entries, gaps filled from the first set one
//   - otherwise: the mode's default palette
//
// It is pure: equal inputs always give equal output.
func ResolvePalette(settings domain.VisualizationSettings, hint *domain.TrackColorHint) Palette {
	switch settings.ColorScheme {
	case domain.SchemeCustom:
		if len(settings.CustomColors) > 0 {
			return slices.Clone(Palette(settings.CustomColors))
		}
	case domain.SchemeTrack:
		if hint != nil {
			if colors := hint.Colors(); len(colors) > 0 {
				return Palette(colors)
			}
		}
	}
	return DefaultPalette(settings.Mode)
}

// Hex returns entry i, falling back to entry 0 when i is out of range.
func (p Palette) Hex(i int) string {
	if len(p) == 0 {
		return "#ffffff"
	}
	if i < 0 || i >= len(p) {
		return p[0]
	}
	return p[i]
}

// Color returns entry i parsed, with the same fallback as Hex.
// Unparsable entries yield white.
func (p Palette) Color(i int) colorful.Color {
	c, err := ParseColor(p.Hex(i))
	if err != nil {
		return white
	}
	return c
}

// Cycle returns entry i modulo the palette length.
func (p Palette) Cycle(i int) colorful.Color {
	if len(p) == 0 {
		return white
	}
	return p.Color(i % len(p))
}

// PaletteFunc supplies the palette for the current frame.
type PaletteFunc func() Palette
