package visualizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tejashwikalptaru/govis/internal/domain"
)

func TestResolvePalette(t *testing.T) {
	hint := &domain.TrackColorHint{
		Vibrant:      "#112233",
		LightVibrant: "#445566",
		Muted:        "#778899",
		DarkMuted:    "#aabbcc",
	}

	tests := []struct {
		name     string
		settings domain.VisualizationSettings
		hint     *domain.TrackColorHint
		want     Palette
	}{
		{
			name: "custom colors verbatim",
			settings: domain.VisualizationSettings{
				Mode:         domain.ModeCircular,
				ColorScheme:  domain.SchemeCustom,
				CustomColors: []string{"#FF0000", "#0f0"},
			},
			hint: hint,
			want: Palette{"#FF0000", "#0f0"},
		},
		{
			name:     "custom without colors falls back to default",
			settings: domain.VisualizationSettings{Mode: domain.ModeCircular, ColorScheme: domain.SchemeCustom},
			hint:     hint,
			want:     DefaultPalette(domain.ModeCircular),
		},
		{
			name:     "track hint in fixed order",
			settings: domain.VisualizationSettings{Mode: domain.ModeWaveform, ColorScheme: domain.SchemeTrack},
			hint:     hint,
			want:     Palette{"#112233", "#445566", "#778899", "#aabbcc"},
		},
		{
			name:     "partial hint fills gaps",
			settings: domain.VisualizationSettings{Mode: domain.ModeWaveform, ColorScheme: domain.SchemeTrack},
			hint:     &domain.TrackColorHint{Muted: "#778899"},
			want:     Palette{"#778899", "#778899", "#778899", "#778899"},
		},
		{
			name:     "missing vibrant keeps positions",
			settings: domain.VisualizationSettings{Mode: domain.ModeWaveform, ColorScheme: domain.SchemeTrack},
			hint:     &domain.TrackColorHint{LightVibrant: "#445566", DarkMuted: "#aabbcc"},
			want:     Palette{"#445566", "#445566", "#445566", "#aabbcc"},
		},
		{
			name:     "track without hint",
			settings: domain.VisualizationSettings{Mode: domain.ModeFrequency, ColorScheme: domain.SchemeTrack},
			want:     DefaultPalette(domain.ModeFrequency),
		},
		{
			name:     "spectrum ignores hint",
			settings: domain.VisualizationSettings{Mode: domain.ModeParticles, ColorScheme: domain.SchemeSpectrum},
			hint:     hint,
			want:     DefaultPalette(domain.ModeParticles),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePalette(tt.settings, tt.hint))
		})
	}
}

func TestResolvePalette_Pure(t *testing.T) {
	settings := domain.VisualizationSettings{
		Mode:         domain.Mode3D,
		ColorScheme:  domain.SchemeCustom,
		CustomColors: []string{"#123456"},
	}
	first := ResolvePalette(settings, nil)
	first[0] = "#000000"

	assert.Equal(t, Palette{"#123456"}, ResolvePalette(settings, nil), "result must not alias settings")
	assert.Equal(t, []string{"#123456"}, settings.CustomColors)

	d := DefaultPalette(domain.ModeWaveform)
	d[0] = "#000000"
	assert.NotEqual(t, "#000000", DefaultPalette(domain.ModeWaveform)[0])
}

func TestPalette_Fallbacks(t *testing.T) {
	p := Palette{"#ff0000", "not-a-color"}

	assert.Equal(t, "#ff0000", p.Hex(5), "out of range falls back to index 0")
	assert.Equal(t, "#ff0000", p.Hex(-1))
	assert.Equal(t, white, p.Color(1))

	red, err := ParseColor("#ff0000")
	assert.NoError(t, err)
	assert.Equal(t, red, p.Cycle(2))

	assert.Equal(t, white, Palette{}.Cycle(3))
	assert.Equal(t, "#ffffff", Palette{}.Hex(0))
}

func TestGradient_At(t *testing.T) {
	black, _ := ParseColor("#000000")
	whiteC, _ := ParseColor("#ffffff")
	g := NewGradient(black, whiteC)

	c, a := g.At(0.5)
	assert.InDelta(t, 0.5, c.R, 1e-9)
	assert.Equal(t, 1.0, a)

	c, _ = g.At(-1)
	assert.Equal(t, black, c)
	c, _ = g.At(2)
	assert.Equal(t, whiteC, c)

	fade := Gradient{}.Add(0, black, 1).Add(1, black, 0)
	_, a = fade.At(0.25)
	assert.InDelta(t, 0.75, a, 1e-9)
}
