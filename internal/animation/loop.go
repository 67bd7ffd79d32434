// Package animation drives a visualizer renderer from a frame scheduler.
package animation

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
	"github.com/tejashwikalptaru/govis/internal/visualizer"
)

// MaxFrameDelta caps how far animation time advances between two ticks.
const MaxFrameDelta = 100 * time.Millisecond

// Config holds the dependencies of a Loop.
type Config struct {
	Scheduler ports.FrameScheduler
	Provider  ports.AudioFeatureProvider

	// Settings returns the current settings snapshot. It is called once per tick.
	Settings func() domain.VisualizationSettings

	// Hint returns the color hint of the loaded track, or nil.
	Hint func() *domain.TrackColorHint

	// Renderers is passed to every renderer the loop creates.
	Renderers visualizer.Options

	// Mode is the initial mode. Empty means the settings' mode.
	Mode domain.Mode

	Logger *slog.Logger
}

// Stats counts what the loop has done since it was created.
type Stats struct {
	Ticks     uint64
	Drawn     uint64
	Idle      uint64
	Skipped   uint64
	Failed    uint64
	Recovered uint64
}

// token marks one scheduled callback. Stop invalidates it so a callback that
// fires anyway does nothing.
type token struct {
	valid bool
}

// Loop owns one surface and the renderer of the active mode and keeps at most
// one frame callback scheduled.
//
// Lifecycle:
//   - Mount attaches a surface and draws it; Unmount detaches it and stops.
//   - SetPlaying(true) starts ticking; SetPlaying(false) stops after one idle frame.
//   - SwitchMode stops, releases the old renderer and restarts with the new one.
//
// Thread-safety: all methods are safe for concurrent use. A mutex serializes
// lifecycle calls with ticks; hooks are invoked without the lock held.
type Loop struct {
	logger   *slog.Logger
	sched    ports.FrameScheduler
	provider ports.AudioFeatureProvider
	settings func() domain.VisualizationSettings
	hint     func() *domain.TrackColorHint
	ropts    visualizer.Options

	mu       sync.Mutex
	surface  *visualizer.Surface
	renderer visualizer.Renderer
	mode     domain.Mode
	playing  bool
	handle   ports.FrameHandle
	tok      *token
	elapsed  time.Duration
	last     time.Time
	stats    Stats

	// audioFault is set while the provider keeps failing so only the first
	// failure is logged at Warn.
	audioFault bool
	// renderFault does the same for renderer failures.
	renderFault bool

	onFrame func()
	onError func(domain.Mode, error)
}

// New creates a loop. The renderer for the initial mode is created eagerly.
func New(cfg Config) (*Loop, error) {
	if cfg.Scheduler == nil {
		return nil, fmt.Errorf("animation: scheduler is required")
	}
	if cfg.Provider == nil {
		return nil, fmt.Errorf("animation: audio provider is required")
	}
	if cfg.Settings == nil {
		cfg.Settings = domain.DefaultSettings
	}
	if cfg.Hint == nil {
		cfg.Hint = func() *domain.TrackColorHint { return nil }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Renderers.Logger == nil {
		cfg.Renderers.Logger = logger
	}

	mode := cfg.Mode
	if mode == "" {
		mode = cfg.Settings().Mode
	}
	r, err := visualizer.NewRenderer(mode, cfg.Renderers)
	if err != nil {
		return nil, err
	}

	return &Loop{
		logger:   logger.With(slog.String("component", "animation")),
		sched:    cfg.Scheduler,
		provider: cfg.Provider,
		settings: cfg.Settings,
		hint:     cfg.Hint,
		ropts:    cfg.Renderers,
		renderer: r,
		mode:     mode,
	}, nil
}

// OnFrame registers fn to run after every presented frame.
func (l *Loop) OnFrame(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onFrame = fn
}

// OnError registers fn to run when a renderer reports a degraded frame.
func (l *Loop) OnError(fn func(domain.Mode, error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onError = fn
}

// Mount attaches s and schedules a frame: the animation when playing, the
// idle visual otherwise. Mounting the attached surface again is a no-op.
func (l *Loop) Mount(s *visualizer.Surface) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s == nil || s == l.surface {
		return
	}
	l.cancelLocked()
	l.surface = s
	l.logger.Debug("surface mounted", slog.String("surface", s.ID()), slog.String("mode", l.mode.String()))
	l.scheduleLocked()
}

// Unmount stops the loop, releases the renderer's resources and detaches the surface.
func (l *Loop) Unmount() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.surface == nil {
		return
	}
	l.cancelLocked()
	l.renderer.Release()
	l.logger.Debug("surface unmounted", slog.String("surface", l.surface.ID()))
	l.surface = nil
}

// Surface returns the mounted surface, or nil.
func (l *Loop) Surface() *visualizer.Surface {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.surface
}

// Start schedules the next tick unless one is already pending.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.surface == nil {
		return domain.NewMissingSurfaceError("start")
	}
	l.scheduleLocked()
	return nil
}

// Stop cancels the pending tick. It is idempotent.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelLocked()
}

// SetPlaying switches between animating and the idle visual.
func (l *Loop) SetPlaying(playing bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.playing == playing {
		return
	}
	l.playing = playing
	if l.surface == nil {
		return
	}
	if !playing {
		// Drop the running tick; the next one draws the idle frame and stops.
		l.cancelLocked()
	}
	l.scheduleLocked()
}

// Playing reports whether the loop animates.
func (l *Loop) Playing() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.playing
}

// SwitchMode replaces the active renderer. The old renderer is stopped and
// released before the new one draws.
func (l *Loop) SwitchMode(mode domain.Mode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if mode == l.mode {
		return nil
	}
	r, err := visualizer.NewRenderer(mode, l.ropts)
	if err != nil {
		return err
	}

	l.cancelLocked()
	l.renderer.Release()
	l.logger.Debug("mode switched", slog.String("from", l.mode.String()), slog.String("to", mode.String()))
	l.renderer = r
	l.mode = mode
	l.renderFault = false
	if l.surface != nil {
		l.scheduleLocked()
	}
	return nil
}

// Mode returns the active mode.
func (l *Loop) Mode() domain.Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

// Renderer returns the active renderer. It must not be drawn on concurrently
// with the loop.
func (l *Loop) Renderer() visualizer.Renderer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.renderer
}

// Resize applies a new logical size and pixel ratio without restarting the
// loop or resetting animation time. A paused loop redraws its idle frame.
func (l *Loop) Resize(width, height, ratio float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.surface == nil {
		return domain.NewMissingSurfaceError("resize")
	}
	if l.surface.Resize(width, height, ratio) && l.tok == nil {
		l.scheduleLocked()
	}
	return nil
}

// Pending returns 1 while a tick is scheduled and 0 otherwise.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tok != nil {
		return 1
	}
	return 0
}

// Running reports whether the loop is playing with a tick scheduled.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.playing && l.tok != nil
}

// Elapsed returns the animation time.
func (l *Loop) Elapsed() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.elapsed
}

// Stats returns a copy of the loop counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Close stops the loop and releases the renderer. The loop can be mounted again.
func (l *Loop) Close() {
	l.Unmount()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.renderer.Release()
}

func (l *Loop) scheduleLocked() {
	if l.tok != nil {
		return
	}
	tok := &token{valid: true}
	l.tok = tok
	l.handle = l.sched.RequestFrame(func(now time.Time) {
		l.tick(tok, now)
	})
}

func (l *Loop) cancelLocked() {
	if l.tok == nil {
		return
	}
	l.tok.valid = false
	l.sched.CancelFrame(l.handle)
	l.tok = nil
	l.handle = 0
	// A resumed loop must not count the pause as animation time.
	l.last = time.Time{}
}

// tick runs one frame. Every failure degrades to an idle or blank frame.
func (l *Loop) tick(tok *token, now time.Time) {
	l.mu.Lock()
	if !tok.valid {
		l.mu.Unlock()
		return
	}
	tok.valid = false
	l.tok = nil
	l.handle = 0
	l.stats.Ticks++

	if !l.last.IsZero() {
		l.elapsed += min(max(now.Sub(l.last), 0), MaxFrameDelta)
	}
	l.last = now

	s := l.surface
	if s == nil || s.Empty() {
		l.stats.Skipped++
		if l.playing && s != nil {
			l.scheduleLocked()
		}
		l.mu.Unlock()
		return
	}

	settings := l.settings()
	hint := l.hint()
	palette := func() visualizer.Palette { return visualizer.ResolvePalette(settings, hint) }

	var drawErr error
	if l.playing {
		drawErr = l.drawPlaying(s, settings, palette)
		l.scheduleLocked()
	} else {
		l.drawIdle(s, settings, palette)
		// The loop stops here; resuming must not count the pause.
		l.last = time.Time{}
	}
	s.Present()

	onFrame, onError, mode := l.onFrame, l.onError, l.mode
	l.mu.Unlock()

	if drawErr != nil && onError != nil {
		onError(mode, drawErr)
	}
	if onFrame != nil {
		onFrame()
	}
}

// drawPlaying draws one animated frame and returns the renderer's error, if any.
func (l *Loop) drawPlaying(s *visualizer.Surface, settings domain.VisualizationSettings, palette visualizer.PaletteFunc) error {
	frame, err := l.fetch()
	if err != nil {
		if !l.audioFault {
			l.logger.Warn("audio data unavailable, drawing idle frame", slog.Any("error", err))
			l.audioFault = true
		} else {
			l.logger.Debug("audio data unavailable", slog.Any("error", err))
		}
		l.stats.Skipped++
		l.drawIdle(s, settings, palette)
		return nil
	}
	if l.audioFault {
		l.logger.Info("audio data recovered")
		l.audioFault = false
	}

	err = l.guard(s, func() error {
		return l.renderer.DrawFrame(s, frame.Clamped(), settings, palette, l.elapsed.Seconds())
	})
	if err != nil {
		l.stats.Failed++
		if !l.renderFault {
			l.logger.Warn("frame degraded", slog.String("mode", l.mode.String()), slog.Any("error", err))
			l.renderFault = true
		} else {
			l.logger.Debug("frame degraded", slog.String("mode", l.mode.String()), slog.Any("error", err))
		}
		return err
	}
	if l.renderFault {
		l.logger.Info("frame recovered", slog.String("mode", l.mode.String()))
		l.renderFault = false
	}
	l.stats.Drawn++
	return nil
}

// fetch reads and validates one frame from the provider.
func (l *Loop) fetch() (frame domain.AudioFrame, err error) {
	defer func() {
		if r := recover(); r != nil {
			l.stats.Recovered++
			err = fmt.Errorf("audio provider panic: %v", r)
		}
	}()
	frame, err = l.provider.AudioData()
	if err != nil {
		return frame, err
	}
	return frame, frame.Validate()
}

func (l *Loop) drawIdle(s *visualizer.Surface, settings domain.VisualizationSettings, palette visualizer.PaletteFunc) {
	err := l.guard(s, func() error {
		l.renderer.DrawIdle(s, settings, palette)
		return nil
	})
	if err != nil {
		l.logger.Warn("idle frame failed", slog.String("mode", l.mode.String()), slog.Any("error", err))
		return
	}
	l.stats.Idle++
}

// guard runs draw and turns a panic into an error, leaving a blank frame.
func (l *Loop) guard(s *visualizer.Surface, draw func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.stats.Recovered++
			s.Canvas().Clear()
			err = fmt.Errorf("renderer panic: %v", r)
		}
	}()
	return draw()
}
