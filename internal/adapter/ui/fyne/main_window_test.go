package fyne

import (
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/govis/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/govis/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/govis/internal/adapter/scheduler"
	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/logger"
	"github.com/tejashwikalptaru/govis/internal/service"
	"github.com/tejashwikalptaru/govis/internal/visualizer"
)

func newTestWindow(t *testing.T) (*MainWindow, *service.SettingsService, *service.VisualizerService) {
	t.Helper()

	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	settings := service.NewSettingsService(log, nil, bus)
	sched := scheduler.NewManual(time.Unix(0, 0), 16*time.Millisecond, log)
	vis, err := service.NewVisualizerService(log, bus, settings, sched, mock.NewProvider(1), visualizer.Options{})
	require.NoError(t, err)

	w := NewMainWindow(test.NewApp(), log)
	p := NewPresenter(log, settings, vis, nil, bus, w)
	w.SetPresenter(p)

	t.Cleanup(func() {
		p.Shutdown()
		vis.Close()
	})
	return w, settings, vis
}

func TestMainWindow_ReflectsInitialSettings(t *testing.T) {
	w, _, _ := newTestWindow(t)

	assert.Equal(t, "Waveform", w.modeSelect.Selected)
	assert.Equal(t, float64(domain.DefaultSettings().Sensitivity), w.sensitivity.Value)
	assert.Equal(t, string(domain.SchemeTrack), w.schemeRadio.Selected)
	assert.True(t, w.density.Disabled(), "density only applies to particles")
	assert.True(t, w.rotation.Disabled(), "rotation only applies to 3d")
	assert.True(t, w.customColors.Disabled())
}

func TestMainWindow_ControlsUpdateSettings(t *testing.T) {
	w, settings, vis := newTestWindow(t)

	w.modeSelect.SetSelected("Particles")
	assert.Equal(t, domain.ModeParticles, settings.Current().Mode)
	assert.Equal(t, domain.ModeParticles, vis.Mode())
	assert.False(t, w.density.Disabled())

	w.schemeRadio.SetSelected(string(domain.SchemeCustom))
	assert.Equal(t, domain.SchemeCustom, settings.Current().ColorScheme)
	assert.False(t, w.customColors.Disabled())

	w.customColors.SetText("#ff0000, #00ff00")
	w.customColors.OnSubmitted(w.customColors.Text)
	assert.Equal(t, []string{"#ff0000", "#00ff00"}, settings.Current().CustomColors)
}

func TestMainWindow_ProgrammaticUpdatesDoNotEcho(t *testing.T) {
	w, settings, _ := newTestWindow(t)

	mode := domain.Mode3D
	_, err := settings.Update(domain.SettingsPatch{Mode: &mode})
	require.NoError(t, err)

	assert.Equal(t, "3D", w.modeSelect.Selected)
	assert.False(t, w.rotation.Disabled())
	assert.Equal(t, domain.Mode3D, settings.Current().Mode)
}

func TestMainWindow_PlayButton(t *testing.T) {
	w, _, vis := newTestWindow(t)
	vis.Mount(visualizer.NewSurface(16, 16, 1))

	test.Tap(w.playButton)
	assert.True(t, vis.Loop().Playing())

	test.Tap(w.playButton)
	assert.False(t, vis.Loop().Playing())
}

func TestMainWindow_TrackAndStatus(t *testing.T) {
	w, _, _ := newTestWindow(t)

	w.SetTrackInfo(domain.Track{Title: "Tone", Artist: "Lab"})
	assert.Equal(t, "Lab - Tone", w.trackInfo.Text)

	w.SetTrackInfo(domain.Track{})
	assert.Equal(t, "No track loaded", w.trackInfo.Text)

	w.SetLoopRunning(domain.ModeCircular, true)
	assert.Equal(t, "circular · rendering", w.status.Text)
}

func TestMainWindow_CanvasTapTogglesPlayback(t *testing.T) {
	w, _, vis := newTestWindow(t)
	vis.Mount(visualizer.NewSurface(16, 16, 1))

	test.Tap(w.canvasArea)
	assert.True(t, vis.Loop().Playing())

	menu := w.modeMenu()
	require.Len(t, menu.Items, len(visualizer.Modes()))
	assert.True(t, menu.Items[0].Checked, "current mode is checked")

	menu.Items[2].Action()
	assert.Equal(t, domain.ModeCircular, vis.Mode())
	assert.True(t, w.modeMenu().Items[2].Checked)
}
