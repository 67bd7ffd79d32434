package service

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/govis/internal/animation"
	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
	"github.com/tejashwikalptaru/govis/internal/visualizer"
)

// VisualizerService connects the animation loop to the rest of the application.
// It reacts to settings, playback and track events on the bus and reports
// loop state and render failures back onto it.
type VisualizerService struct {
	// Dependencies (injected)
	logger   *slog.Logger
	bus      ports.EventBus
	settings *SettingsService
	loop     *animation.Loop

	hint atomic.Pointer[domain.TrackColorHint]

	mu          sync.Mutex
	subs        []domain.SubscriptionID
	running     bool
	lastFailure string
	closed      bool
}

// NewVisualizerService creates the loop for the current mode and subscribes
// to the events that drive it.
func NewVisualizerService(
	logger *slog.Logger,
	bus ports.EventBus,
	settings *SettingsService,
	scheduler ports.FrameScheduler,
	provider ports.AudioFeatureProvider,
	renderers visualizer.Options,
) (*VisualizerService, error) {
	s := &VisualizerService{
		logger:   logger.With(slog.String("component", "visualizer")),
		bus:      bus,
		settings: settings,
	}

	loop, err := animation.New(animation.Config{
		Scheduler: scheduler,
		Provider:  provider,
		Settings:  settings.Current,
		Hint:      s.hint.Load,
		Renderers: renderers,
		Logger:    logger,
	})
	if err != nil {
		return nil, domain.NewServiceError("visualizer", "create", "failed to create animation loop", err)
	}
	loop.OnError(s.handleRenderError)
	s.loop = loop

	s.subs = []domain.SubscriptionID{
		bus.Subscribe(domain.EventSettingsUpdated, s.handleSettingsUpdated),
		bus.Subscribe(domain.EventPlaybackChanged, s.handlePlaybackChanged),
		bus.Subscribe(domain.EventTrackLoaded, s.handleTrackLoaded),
	}

	s.logger.Debug("visualizer service initialized", slog.String("mode", loop.Mode().String()))
	return s, nil
}

// Loop returns the animation loop.
func (s *VisualizerService) Loop() *animation.Loop {
	return s.loop
}

// Mode returns the active rendering mode.
func (s *VisualizerService) Mode() domain.Mode {
	return s.loop.Mode()
}

// Hint returns the color hint of the loaded track, or nil.
func (s *VisualizerService) Hint() *domain.TrackColorHint {
	return s.hint.Load()
}

// Palette resolves the colors the active renderer is using.
func (s *VisualizerService) Palette() visualizer.Palette {
	return visualizer.ResolvePalette(s.settings.Current(), s.hint.Load())
}

// Mount attaches the drawing surface.
func (s *VisualizerService) Mount(surface *visualizer.Surface) {
	s.loop.Mount(surface)
	s.publishLoopState()
}

// Unmount detaches the surface and releases renderer resources.
func (s *VisualizerService) Unmount() {
	s.loop.Unmount()
	s.publishLoopState()
}

// Resize forwards a size change to the mounted surface.
func (s *VisualizerService) Resize(width, height, ratio float64) error {
	return s.loop.Resize(width, height, ratio)
}

// SetPlaying announces a play state change on the bus. The loop follows the
// event like any other playback change.
func (s *VisualizerService) SetPlaying(playing bool) {
	status := domain.StatusPaused
	if playing {
		status = domain.StatusPlaying
	}
	s.bus.Publish(domain.NewPlaybackChangedEvent(status, 0))
}

// SetHint replaces the color hint used by the track color scheme.
func (s *VisualizerService) SetHint(hint *domain.TrackColorHint) {
	if hint == nil || hint.IsEmpty() {
		s.hint.Store(nil)
		return
	}
	h := *hint
	s.hint.Store(&h)
}

// Close unsubscribes from the bus and stops the loop.
func (s *VisualizerService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, id := range subs {
		s.bus.Unsubscribe(id)
	}
	s.loop.Close()
	s.publishLoopState()
}

func (s *VisualizerService) handleSettingsUpdated(event domain.Event) {
	e, ok := event.(domain.SettingsUpdatedEvent)
	if !ok || !e.ModeChanged() {
		return
	}
	if err := s.loop.SwitchMode(e.Current.Mode); err != nil {
		s.logger.Warn("failed to switch mode", slog.String("mode", e.Current.Mode.String()), slog.Any("error", err))
		return
	}

	s.mu.Lock()
	s.lastFailure = ""
	running := s.running
	s.mu.Unlock()

	// Subscribers track the mode through this event too.
	s.bus.Publish(domain.NewLoopStateChangedEvent(e.Current.Mode, running))
}

func (s *VisualizerService) handlePlaybackChanged(event domain.Event) {
	e, ok := event.(domain.PlaybackChangedEvent)
	if !ok {
		return
	}
	s.loop.SetPlaying(e.Status.IsPlaying())
	s.publishLoopState()
}

func (s *VisualizerService) handleTrackLoaded(event domain.Event) {
	e, ok := event.(domain.TrackLoadedEvent)
	if !ok {
		return
	}
	s.SetHint(e.Track.Colors)
	s.logger.Debug("track color hint updated", slog.Bool("has_hint", s.hint.Load() != nil))
}

// handleRenderError publishes a failure once per distinct error so a
// renderer failing on every tick does not flood subscribers.
func (s *VisualizerService) handleRenderError(mode domain.Mode, err error) {
	s.mu.Lock()
	msg := err.Error()
	if msg == s.lastFailure {
		s.mu.Unlock()
		return
	}
	s.lastFailure = msg
	s.mu.Unlock()

	s.bus.Publish(domain.NewRenderFailedEvent(mode, err))
}

// publishLoopState publishes a LoopStateChangedEvent when animating starts or stops.
func (s *VisualizerService) publishLoopState() {
	running := s.loop.Playing() && s.loop.Surface() != nil

	s.mu.Lock()
	if running == s.running {
		s.mu.Unlock()
		return
	}
	s.running = running
	s.mu.Unlock()

	s.bus.Publish(domain.NewLoopStateChangedEvent(s.loop.Mode(), running))
}

// Verify that VisualizerService implements the expected interface patterns
var _ interface {
	Mount(*visualizer.Surface)
	Unmount()
	Resize(float64, float64, float64) error
	SetPlaying(bool)
	Close()
} = (*VisualizerService)(nil)
