package visualizer

import (
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/govis/internal/domain"
)

func settingsFor(mode domain.Mode) domain.VisualizationSettings {
	s := domain.DefaultSettings()
	s.Mode = mode
	return s
}

func staticPalette(mode domain.Mode) PaletteFunc {
	p := DefaultPalette(mode)
	return func() Palette { return p }
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func pixel(s *Surface, x, y int) color.RGBA {
	return s.Canvas().Image().RGBAAt(x, y)
}

func TestNewRenderer(t *testing.T) {
	for _, mode := range domain.AllModes() {
		t.Run(string(mode), func(t *testing.T) {
			r, err := NewRenderer(mode, Options{})
			require.NoError(t, err)
			assert.Equal(t, mode, r.Mode())
			r.Release()
		})
	}

	_, err := NewRenderer("laser", Options{})
	assert.ErrorIs(t, err, domain.ErrUnknownMode)
}

func TestModes_CoversEveryMode(t *testing.T) {
	var got []domain.Mode
	for _, m := range Modes() {
		got = append(got, m.Mode)
		assert.NotEmpty(t, m.Name)
	}
	assert.ElementsMatch(t, domain.AllModes(), got)
}

func TestWaveformBarHeights(t *testing.T) {
	t.Run("floor and cap", func(t *testing.T) {
		h := WaveformBarHeights([]float64{0, 0.5, 1, 5}, 1, 100)
		assert.Equal(t, 2.0, h[0])
		assert.Equal(t, 25.0, h[1])
		assert.Equal(t, 50.0, h[2])
		assert.Equal(t, 50.0, h[3], "capped at half the height")
	})

	t.Run("monotonic in sensitivity", func(t *testing.T) {
		samples := []float64{0.05, 0.2, 0.4, 0.7}
		prev := WaveformBarHeights(samples, 0.1, 200)
		for s := 2; s <= 10; s++ {
			cur := WaveformBarHeights(samples, float64(s)/10, 200)
			for i := range cur {
				assert.GreaterOrEqual(t, cur[i], prev[i], "sensitivity %d bar %d", s, i)
			}
			prev = cur
		}
	})
}

func TestWaveform_IdleIsFlatGrayLine(t *testing.T) {
	s := NewSurface(100, 50, 1)
	NewWaveform().DrawIdle(s, settingsFor(domain.ModeWaveform), staticPalette(domain.ModeWaveform))

	line := pixel(s, 10, 24)
	assert.InDelta(t, 0x66, int(line.R), 2)
	assert.Equal(t, line.R, line.G)
	for x := 10; x < 90; x += 10 {
		assert.Equal(t, line, pixel(s, x, 24), "x=%d", x)
		assert.Equal(t, line, pixel(s, x, 25), "x=%d", x)
	}
	assert.Equal(t, color.RGBA{A: 255}, pixel(s, 50, 5))
	assert.Equal(t, color.RGBA{A: 255}, pixel(s, 50, 45))
}

func TestWaveform_EmptyFrameDrawsIdle(t *testing.T) {
	a, b := NewSurface(80, 40, 1), NewSurface(80, 40, 1)
	w := NewWaveform()
	settings := settingsFor(domain.ModeWaveform)

	require.NoError(t, w.DrawFrame(a, domain.AudioFrame{}, settings, staticPalette(domain.ModeWaveform), 0))
	w.DrawIdle(b, settings, staticPalette(domain.ModeWaveform))
	assert.Equal(t, b.Canvas().Image().Pix, a.Canvas().Image().Pix)
}

func TestWaveform_DrawsBars(t *testing.T) {
	s := NewSurface(128, 64, 1)
	frame := domain.AudioFrame{Waveform: fill(64, 0.8), Amplitude: 0.5}
	require.NoError(t, NewWaveform().DrawFrame(s, frame, settingsFor(domain.ModeWaveform), staticPalette(domain.ModeWaveform), 0))

	// Bars occupy even slots; odd slots stay background away from the center line.
	assert.NotEqual(t, color.RGBA{A: 255}, pixel(s, 0, 20))
	assert.Equal(t, color.RGBA{A: 255}, pixel(s, 1, 20))
}

func TestFrequencyBarHeights(t *testing.T) {
	t.Run("silence keeps the floor", func(t *testing.T) {
		for _, h := range FrequencyBarHeights(make([]float64, 32), 0.7, 300, 1.5) {
			assert.InDelta(t, 5.0, h, 1e-9)
		}
	})

	t.Run("never exceeds canvas", func(t *testing.T) {
		for _, h := range FrequencyBarHeights(fill(32, 1), 1, 100, 0) {
			assert.LessOrEqual(t, h, 100.0)
		}
	})

	t.Run("first bar unsmoothed", func(t *testing.T) {
		h := FrequencyBarHeights([]float64{0.5, 0}, 1, 100, 0)
		assert.InDelta(t, 50.0, h[0], 1e-9)
		assert.InDelta(t, 50*0.3+5*0.7, h[1], 1e-9)
	})

	t.Run("monotonic in sensitivity", func(t *testing.T) {
		bins := []float64{0.1, 0.3, 0.2, 0.6, 0.05}
		prev := FrequencyBarHeights(bins, 0.1, 400, 2)
		for s := 2; s <= 10; s++ {
			cur := FrequencyBarHeights(bins, float64(s)/10, 400, 2)
			for i := range cur {
				assert.GreaterOrEqual(t, cur[i], prev[i]-1e-9)
			}
			prev = cur
		}
	})
}

func TestFrequencyPulseRadius(t *testing.T) {
	assert.Zero(t, FrequencyPulseRadius(200, 100, 0, 1))
	assert.InDelta(t, 10*0.5*0.7, FrequencyPulseRadius(200, 100, 0.5, 0.7), 1e-9)
}

func TestFrequency_DrawFrame(t *testing.T) {
	s := NewSurface(64, 64, 2)
	frame := domain.AudioFrame{Frequency: fill(16, 0.5), Amplitude: 0.4}
	require.NoError(t, NewFrequency().DrawFrame(s, frame, settingsFor(domain.ModeFrequency), staticPalette(domain.ModeFrequency), 0.3))

	// Bottom row is covered by bars.
	assert.NotEqual(t, color.RGBA{A: 255}, pixel(s, 4, 127))
}

func TestRingPoints(t *testing.T) {
	frame := domain.AudioFrame{
		Waveform:  fill(128, 0),
		Frequency: fill(64, 0),
	}
	for ring, want := range []int{60, 70, 80} {
		pts := RingPoints(frame, ring, 0.7, 50, 50, 30, 0)
		require.Len(t, pts, want)
		radius := 30 * float64(ring+1) / 3
		assert.InDelta(t, 50+radius, pts[0].X, 1e-9, "silent ring %d sits on its base radius", ring)
		assert.InDelta(t, 50, pts[0].Y, 1e-9)
	}

	t.Run("odd rings read waveform", func(t *testing.T) {
		loud := domain.AudioFrame{Waveform: fill(8, 1), Frequency: fill(8, 0)}
		even := RingPoints(loud, 0, 1, 0, 0, 30, 0)
		odd := RingPoints(loud, 1, 1, 0, 0, 30, 0)
		assert.InDelta(t, 10, even[0].X, 1e-9)
		assert.InDelta(t, 20+6, odd[0].X, 1e-9)
	})
}

func TestCircular_DrawFrame(t *testing.T) {
	s := NewSurface(100, 100, 1)
	frame := domain.AudioFrame{Waveform: fill(32, 0.3), Frequency: fill(32, 0.5), Amplitude: 0.5}
	require.NoError(t, NewCircular().DrawFrame(s, frame, settingsFor(domain.ModeCircular), staticPalette(domain.ModeCircular), 1))
	assert.NotEqual(t, color.RGBA{A: 255}, pixel(s, 50, 50), "center pulse")
}

func TestParticles_SpawnCount(t *testing.T) {
	assert.Zero(t, SpawnCount(0, 1, 200))
	assert.Equal(t, 10, SpawnCount(1, 1, 50))
	assert.Equal(t, 7, SpawnCount(1, 0.7, 50))
}

func newTestParticles(seed uint64) *Particles {
	return NewParticles(Options{Rand: rand.New(rand.NewPCG(seed, seed+1))})
}

func TestParticles_Bounded(t *testing.T) {
	p := newTestParticles(1)
	settings := settingsFor(domain.ModeParticles)
	settings.Sensitivity = domain.MaxSensitivity
	settings.ParticleDensity = ptr(domain.MaxParticleDensity)
	loud := domain.AudioFrame{Amplitude: 1}

	for range 500 {
		p.Step(loud, settings, DefaultPalette(domain.ModeParticles), 400, 300)
		require.LessOrEqual(t, p.Count(), MaxParticles)
	}
	assert.Greater(t, p.Count(), MaxParticles*3/4, "sustained loudness saturates the pool")
}

func TestParticles_DrainInSilence(t *testing.T) {
	p := newTestParticles(2)
	settings := settingsFor(domain.ModeParticles)
	pal := DefaultPalette(domain.ModeParticles)

	p.Step(domain.AudioFrame{Amplitude: 1}, settings, pal, 200, 200)
	require.Positive(t, p.Count())

	// MaxAge is below 200 frames.
	for range 201 {
		p.Step(domain.AudioFrame{}, settings, pal, 200, 200)
	}
	assert.Zero(t, p.Count())
}

func TestParticles_Deterministic(t *testing.T) {
	settings := settingsFor(domain.ModeParticles)
	pal := DefaultPalette(domain.ModeParticles)
	a, b := newTestParticles(7), newTestParticles(7)
	for range 10 {
		frame := domain.AudioFrame{Amplitude: 0.6}
		a.Step(frame, settings, pal, 100, 100)
		b.Step(frame, settings, pal, 100, 100)
	}
	assert.Equal(t, a.Live(), b.Live())
}

func TestParticles_SpawnOutsideDeadZone(t *testing.T) {
	p := newTestParticles(3)
	settings := settingsFor(domain.ModeParticles)
	settings.Sensitivity = domain.MaxSensitivity
	p.Step(domain.AudioFrame{Amplitude: 1}, settings, DefaultPalette(domain.ModeParticles), 0, 0)

	for _, pt := range p.Live() {
		assert.Greater(t, pt.X*pt.X+pt.Y*pt.Y, particleDeadZone*particleDeadZone)
		assert.Equal(t, 1.0, pt.Age)
		assert.Positive(t, pt.Opacity())
	}
}

func TestParticles_MissingDensityUsesDefault(t *testing.T) {
	p := newTestParticles(4)
	settings := settingsFor(domain.ModeParticles)
	settings.ParticleDensity = nil

	p.Step(domain.AudioFrame{Amplitude: 1}, settings, DefaultPalette(domain.ModeParticles), 100, 100)
	assert.Equal(t, SpawnCount(1, settings.SensitivityFactor(), domain.DefaultParticleDensity), p.Count())
}

func TestParticles_IdleAndReleaseDropState(t *testing.T) {
	p := newTestParticles(5)
	s := NewSurface(60, 60, 1)
	settings := settingsFor(domain.ModeParticles)
	pal := staticPalette(domain.ModeParticles)

	require.NoError(t, p.DrawFrame(s, domain.AudioFrame{Amplitude: 1}, settings, pal, 0))
	require.Positive(t, p.Count())

	p.DrawIdle(s, settings, pal)
	assert.Zero(t, p.Count())
	assert.Equal(t, color.RGBA{A: 255}, pixel(s, 30, 30))

	require.NoError(t, p.DrawFrame(s, domain.AudioFrame{Amplitude: 1}, settings, pal, 0))
	p.Release()
	assert.Zero(t, p.Count())
}

func ptr[T any](v T) *T {
	return &v
}
