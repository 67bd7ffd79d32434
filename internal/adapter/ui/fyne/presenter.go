// Package fyne provides Fyne UI adapter implementations.
// This package implements the UI layer using the Fyne toolkit.
package fyne

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
	"github.com/tejashwikalptaru/govis/internal/service"
)

// ErrNoPlayback is returned when a file is opened in demo mode.
var ErrNoPlayback = errors.New("no playback source configured")

// Playback is the transport the presenter controls. It is nil in demo mode,
// where the play button drives the visualizer directly.
type Playback interface {
	Load(path string) (domain.Track, error)
	Play() error
	Toggle() error
}

// Presenter implements the Presenter pattern (MVP architecture).
// It coordinates between services and the UI, handling all event-driven updates.
//
// Responsibilities:
// - Subscribe to events from the event bus
// - Map domain events to UI updates
// - Translate UI commands to service method calls
//
// Thread-safety: All operations are thread-safe via sync.Mutex.
type Presenter struct {
	// Dependencies
	logger *slog.Logger

	// Services (injected)
	settings   *service.SettingsService
	visualizer *service.VisualizerService
	playback   Playback

	bus  ports.EventBus
	view ports.UI

	// Presentation state
	mu      sync.Mutex
	playing bool
	subs    []domain.SubscriptionID

	shutdownOnce sync.Once
}

// NewPresenter creates a new presenter. playback may be nil.
func NewPresenter(
	logger *slog.Logger,
	settings *service.SettingsService,
	visualizer *service.VisualizerService,
	playback Playback,
	bus ports.EventBus,
	view ports.UI,
) *Presenter {
	p := &Presenter{
		logger:     logger.With(slog.String("component", "presenter")),
		settings:   settings,
		visualizer: visualizer,
		playback:   playback,
		bus:        bus,
		view:       view,
	}

	p.subscribeToEvents()
	p.syncInitialState()

	return p
}

// subscribeToEvents subscribes to all relevant events from the event bus.
func (p *Presenter) subscribeToEvents() {
	subscriptions := []struct {
		eventType domain.EventType
		handler   domain.EventHandler
	}{
		{domain.EventSettingsUpdated, p.onSettingsUpdated},
		{domain.EventPlaybackChanged, p.onPlaybackChanged},
		{domain.EventTrackLoaded, p.onTrackLoaded},
		{domain.EventLoopStateChanged, p.onLoopStateChanged},
		{domain.EventRenderFailed, p.onRenderFailed},
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range subscriptions {
		p.subs = append(p.subs, p.bus.Subscribe(s.eventType, s.handler))
	}
}

// syncInitialState synchronizes the UI with the current application state.
func (p *Presenter) syncInitialState() {
	p.view.SetSettings(p.settings.Current())
	p.view.SetPlayState(false)
	loop := p.visualizer.Loop()
	p.view.SetLoopRunning(loop.Mode(), loop.Running())
}

// Event handlers

func (p *Presenter) onSettingsUpdated(event domain.Event) {
	e, ok := event.(domain.SettingsUpdatedEvent)
	if !ok {
		return
	}
	p.view.SetSettings(e.Current)
}

func (p *Presenter) onPlaybackChanged(event domain.Event) {
	e, ok := event.(domain.PlaybackChangedEvent)
	if !ok {
		return
	}

	playing := e.Status.IsPlaying()
	p.mu.Lock()
	p.playing = playing
	p.mu.Unlock()

	p.view.SetPlayState(playing)
}

func (p *Presenter) onTrackLoaded(event domain.Event) {
	e, ok := event.(domain.TrackLoadedEvent)
	if !ok {
		return
	}
	p.view.SetTrackInfo(e.Track)
}

func (p *Presenter) onLoopStateChanged(event domain.Event) {
	e, ok := event.(domain.LoopStateChangedEvent)
	if !ok {
		return
	}
	p.view.SetLoopRunning(e.Mode, e.Running)
}

func (p *Presenter) onRenderFailed(event domain.Event) {
	e, ok := event.(domain.RenderFailedEvent)
	if !ok {
		return
	}
	p.view.ShowError("Render Error", fmt.Sprintf("%s mode: %v", e.Mode, e.Error))
}

// UI Command handlers (called by UI)

// OnPlayClicked toggles playback, or the visualizer alone in demo mode.
func (p *Presenter) OnPlayClicked() {
	if p.playback == nil {
		p.mu.Lock()
		playing := !p.playing
		p.mu.Unlock()
		p.visualizer.SetPlaying(playing)
		return
	}

	if err := p.playback.Toggle(); err != nil {
		p.logger.Error("play/pause failed", slog.Any("error", err))
		p.view.ShowError("Playback Error", fmt.Sprintf("Failed to start playback: %v", err))
	}
}

// OnFileOpened loads path and starts playing it.
func (p *Presenter) OnFileOpened(path string) error {
	if p.playback == nil {
		return ErrNoPlayback
	}
	if _, err := p.playback.Load(path); err != nil {
		return err
	}
	return p.playback.Play()
}

// OnModeSelected switches the visualization mode.
func (p *Presenter) OnModeSelected(mode domain.Mode) {
	p.apply(domain.SettingsPatch{Mode: &mode})
}

// OnSensitivityChanged handles the sensitivity slider.
func (p *Presenter) OnSensitivityChanged(value float64) {
	v := int(math.Round(value))
	p.apply(domain.SettingsPatch{Sensitivity: &v})
}

// OnSchemeSelected handles the color scheme selector.
func (p *Presenter) OnSchemeSelected(scheme domain.ColorScheme) {
	p.apply(domain.SettingsPatch{ColorScheme: &scheme})
}

// OnCustomColorsChanged replaces the custom palette.
func (p *Presenter) OnCustomColorsChanged(colors []string) {
	p.apply(domain.SettingsPatch{CustomColors: &colors})
}

// OnDensityChanged handles the particle density slider.
func (p *Presenter) OnDensityChanged(value float64) {
	v := int(math.Round(value))
	p.apply(domain.SettingsPatch{ParticleDensity: &v})
}

// OnRotationSpeedChanged handles the 3D rotation speed slider.
func (p *Presenter) OnRotationSpeedChanged(value float64) {
	p.apply(domain.SettingsPatch{RotationSpeed: &value})
}

// OnResetClicked restores the default settings.
func (p *Presenter) OnResetClicked() {
	p.settings.Reset()
}

// OnCanvasResized forwards a canvas size change to the animation loop.
func (p *Presenter) OnCanvasResized(width, height, scale float64) {
	if err := p.visualizer.Resize(width, height, scale); err != nil && !errors.Is(err, domain.ErrSurfaceUnavailable) {
		p.logger.Warn("resize failed", slog.Any("error", err))
	}
}

// apply submits a settings patch. On rejection the controls snap back to the
// current settings.
func (p *Presenter) apply(patch domain.SettingsPatch) {
	current, err := p.settings.Update(patch)
	if err != nil {
		p.logger.Warn("settings update rejected", slog.Any("error", err))
		p.view.ShowError("Settings Error", err.Error())
		p.view.SetSettings(current)
	}
}

// Shutdown cleans up resources.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		subs := p.subs
		p.subs = nil
		p.mu.Unlock()

		for _, id := range subs {
			p.bus.Unsubscribe(id)
		}
	})
}
