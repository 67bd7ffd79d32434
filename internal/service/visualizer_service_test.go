package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/govis/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/govis/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/govis/internal/adapter/scheduler"
	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/logger"
	"github.com/tejashwikalptaru/govis/internal/visualizer"
	"github.com/tejashwikalptaru/govis/internal/visualizer/scene"
)

type visualizerFixture struct {
	service  *VisualizerService
	settings *SettingsService
	bus      *eventbus.SyncEventBus
	sched    *scheduler.Manual
	provider *mock.Provider
	surface  *visualizer.Surface

	loopEvents   []domain.LoopStateChangedEvent
	renderErrors []domain.RenderFailedEvent
}

func newTestVisualizerService(t *testing.T, opts visualizer.Options) *visualizerFixture {
	t.Helper()

	log := logger.NewTestLogger()
	f := &visualizerFixture{
		bus:      eventbus.NewSyncEventBus(log),
		sched:    scheduler.NewManual(time.Unix(0, 0), 16*time.Millisecond, log),
		provider: mock.NewProvider(7),
		surface:  visualizer.NewSurface(64, 48, 1),
	}
	f.settings = NewSettingsService(log, nil, f.bus)
	f.provider.SetPlaying(true)

	service, err := NewVisualizerService(log, f.bus, f.settings, f.sched, f.provider, opts)
	require.NoError(t, err)
	f.service = service

	f.bus.Subscribe(domain.EventLoopStateChanged, func(e domain.Event) {
		f.loopEvents = append(f.loopEvents, e.(domain.LoopStateChangedEvent))
	})
	f.bus.Subscribe(domain.EventRenderFailed, func(e domain.Event) {
		f.renderErrors = append(f.renderErrors, e.(domain.RenderFailedEvent))
	})

	t.Cleanup(service.Close)
	return f
}

func TestVisualizerService_StartsInSettingsMode(t *testing.T) {
	f := newTestVisualizerService(t, visualizer.Options{})

	assert.Equal(t, domain.ModeWaveform, f.service.Mode())
	assert.False(t, f.service.Loop().Playing())
}

func TestVisualizerService_PlaybackDrivesLoop(t *testing.T) {
	f := newTestVisualizerService(t, visualizer.Options{})
	f.service.Mount(f.surface)

	// Paused mount draws the idle frame once.
	f.sched.FireN(3)
	assert.Equal(t, uint64(1), f.service.Loop().Stats().Idle)

	f.bus.Publish(domain.NewPlaybackChangedEvent(domain.StatusPlaying, 0))
	assert.True(t, f.service.Loop().Playing())
	f.sched.FireN(5)
	assert.Equal(t, uint64(5), f.service.Loop().Stats().Drawn)
	assert.Equal(t, 1, f.sched.Pending())

	f.bus.Publish(domain.NewPlaybackChangedEvent(domain.StatusStopped, 0))
	f.sched.FireN(3)
	assert.False(t, f.service.Loop().Playing())
	assert.Zero(t, f.sched.Pending())

	require.Len(t, f.loopEvents, 2)
	assert.True(t, f.loopEvents[0].Running)
	assert.False(t, f.loopEvents[1].Running)
}

func TestVisualizerService_SetPlayingPublishes(t *testing.T) {
	f := newTestVisualizerService(t, visualizer.Options{})
	f.service.Mount(f.surface)

	var statuses []domain.PlaybackStatus
	f.bus.Subscribe(domain.EventPlaybackChanged, func(e domain.Event) {
		statuses = append(statuses, e.(domain.PlaybackChangedEvent).Status)
	})

	f.service.SetPlaying(true)
	assert.True(t, f.service.Loop().Playing())
	f.service.SetPlaying(false)
	assert.False(t, f.service.Loop().Playing())

	assert.Equal(t, []domain.PlaybackStatus{domain.StatusPlaying, domain.StatusPaused}, statuses)
}

func TestVisualizerService_ModeSwitchFromSettings(t *testing.T) {
	f := newTestVisualizerService(t, visualizer.Options{})
	f.service.Mount(f.surface)
	f.service.SetPlaying(true)

	_, err := f.settings.Update(domain.SettingsPatch{Mode: ptr(domain.ModeParticles)})
	require.NoError(t, err)
	assert.Equal(t, domain.ModeParticles, f.service.Mode())

	f.sched.FireN(20)
	particles, ok := f.service.Loop().Renderer().(*visualizer.Particles)
	require.True(t, ok)
	assert.Positive(t, particles.Count())

	_, err = f.settings.Update(domain.SettingsPatch{Mode: ptr(domain.ModeWaveform)})
	require.NoError(t, err)
	assert.Zero(t, particles.Count(), "old renderer state is released")
	assert.Equal(t, 1, f.sched.Pending())

	last := f.loopEvents[len(f.loopEvents)-1]
	assert.Equal(t, domain.ModeWaveform, last.Mode)
	assert.True(t, last.Running)

	// Changes that keep the mode do not touch the renderer.
	r := f.service.Loop().Renderer()
	_, err = f.settings.Update(domain.SettingsPatch{Sensitivity: ptr(2)})
	require.NoError(t, err)
	assert.Same(t, r, f.service.Loop().Renderer())
}

func TestVisualizerService_TrackHint(t *testing.T) {
	f := newTestVisualizerService(t, visualizer.Options{})
	assert.Nil(t, f.service.Hint())

	hint := &domain.TrackColorHint{Vibrant: "#112233", Muted: "#445566"}
	f.bus.Publish(domain.NewTrackLoadedEvent(domain.Track{Title: "x", Colors: hint}))

	require.NotNil(t, f.service.Hint())
	assert.Equal(t, visualizer.Palette{"#112233", "#112233", "#445566", "#112233"}, f.service.Palette())

	hint.Vibrant = "#ffffff"
	assert.Equal(t, "#112233", f.service.Hint().Vibrant, "hint is copied")

	f.bus.Publish(domain.NewTrackLoadedEvent(domain.Track{Title: "no art"}))
	assert.Nil(t, f.service.Hint())
	assert.Equal(t, visualizer.DefaultPalette(domain.ModeWaveform), f.service.Palette())
}

func TestVisualizerService_RenderFailuresDeduplicated(t *testing.T) {
	factory := func(int, int) (scene.Device, error) { return nil, errors.New("no gpu") }
	f := newTestVisualizerService(t, visualizer.Options{Device: factory})
	f.service.Mount(f.surface)
	f.service.SetPlaying(true)

	_, err := f.settings.Update(domain.SettingsPatch{Mode: ptr(domain.Mode3D)})
	require.NoError(t, err)
	f.sched.FireN(10)

	require.Len(t, f.renderErrors, 1)
	assert.Equal(t, domain.Mode3D, f.renderErrors[0].Mode)
	assert.ErrorIs(t, f.renderErrors[0].Error, domain.ErrResourceAcquisition)
	assert.Equal(t, 1, f.sched.Pending(), "loop keeps running")
}

func TestVisualizerService_UnmountAndClose(t *testing.T) {
	f := newTestVisualizerService(t, visualizer.Options{})
	f.service.Mount(f.surface)
	f.service.SetPlaying(true)
	f.sched.FireN(2)

	require.NoError(t, f.service.Resize(80, 60, 2))
	w, h := f.surface.Size()
	assert.Equal(t, 160, w)
	assert.Equal(t, 120, h)

	f.service.Unmount()
	assert.Zero(t, f.sched.Pending())
	assert.ErrorIs(t, f.service.Resize(10, 10, 1), domain.ErrSurfaceUnavailable)

	f.service.Close()
	f.service.Close()

	// Events after Close are ignored.
	f.bus.Publish(domain.NewPlaybackChangedEvent(domain.StatusStopped, 0))
	assert.True(t, f.service.Loop().Playing())
	assert.Zero(t, f.sched.Pending())
	assert.False(t, f.loopEvents[len(f.loopEvents)-1].Running)
}
