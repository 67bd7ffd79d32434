package app

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/tejashwikalptaru/govis/internal/adapter/audio/analyzer"
	"github.com/tejashwikalptaru/govis/internal/adapter/audio/decode"
	"github.com/tejashwikalptaru/govis/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/govis/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/govis/internal/adapter/scheduler"
	"github.com/tejashwikalptaru/govis/internal/adapter/trackinfo"
	"github.com/tejashwikalptaru/govis/internal/animation"
	"github.com/tejashwikalptaru/govis/internal/config"
	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
	"github.com/tejashwikalptaru/govis/internal/service"
	"github.com/tejashwikalptaru/govis/internal/visualizer"
)

// RenderOptions configure a headless render.
type RenderOptions struct {
	Width  int
	Height int
	Frames int

	// Input is an audio file to analyze. Empty renders synthetic data.
	Input string

	// Seed fixes the synthetic data and particle spawning.
	Seed uint64

	// OutDir receives one frame-NNNN.png per frame when set.
	OutDir string

	// Out receives the last frame as PNG when set.
	Out io.Writer

	Logger *slog.Logger
}

// RenderResult summarizes a headless render.
type RenderResult struct {
	Mode    domain.Mode
	Written int
	Stats   animation.Stats
}

// Render drives the visualizer without a window, advancing a manual scheduler
// one frame at a time at the configured frame rate.
func Render(ctx context.Context, rt config.Config, opts RenderOptions) (*RenderResult, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, domain.NewValidationError("size", fmt.Sprintf("%dx%d", opts.Width, opts.Height), "must be positive")
	}
	if opts.Frames <= 0 {
		return nil, domain.NewValidationError("frames", opts.Frames, "must be positive")
	}
	if err := rt.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log = log.With(slog.String("component", "render"))

	bus := eventbus.NewSyncEventBus(log)
	defer bus.Close()

	settings := service.NewSettingsService(log, nil, bus)
	if !rt.Settings.IsEmpty() {
		if _, err := settings.Update(rt.Settings); err != nil {
			return nil, err
		}
	}

	sched := scheduler.NewManual(time.Unix(0, 0), time.Second/time.Duration(rt.Render.FPS), log)

	var (
		provider ports.AudioFeatureProvider
		playback *service.PlaybackService
	)
	if opts.Input != "" {
		playback = service.NewPlaybackService(log, decode.NewDefaultRegistry(log), trackinfo.NewReader(log), bus)
		defer playback.Shutdown()
		playback.SetClock(sched.Now)

		an, err := analyzer.New(playback, rt.AnalyzerConfig(), log)
		if err != nil {
			return nil, err
		}
		provider = an
	} else {
		p := mock.NewProvider(opts.Seed)
		p.SetPlaying(true)
		provider = p
	}

	vis, err := service.NewVisualizerService(log, bus, settings, sched, provider, visualizer.Options{
		Logger: log,
		Rand:   rand.New(rand.NewPCG(opts.Seed, opts.Seed+1)),
	})
	if err != nil {
		return nil, err
	}
	defer vis.Close()

	surface := visualizer.NewSurface(float64(opts.Width), float64(opts.Height), 1)
	vis.Mount(surface)

	if playback != nil {
		if _, err := playback.Load(opts.Input); err != nil {
			return nil, err
		}
		if err := playback.Play(); err != nil {
			return nil, err
		}
	} else {
		vis.SetPlaying(true)
	}

	if opts.OutDir != "" {
		if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	result := &RenderResult{Mode: vis.Mode()}
	for i := range opts.Frames {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		sched.Fire()

		if opts.OutDir != "" {
			path := filepath.Join(opts.OutDir, fmt.Sprintf("frame-%04d.png", i))
			if err := writePNG(path, surface); err != nil {
				return result, err
			}
			result.Written++
		}
	}

	if opts.Out != nil {
		if err := png.Encode(opts.Out, surface.Snapshot()); err != nil {
			return result, fmt.Errorf("failed to encode frame: %w", err)
		}
		result.Written++
	}

	result.Stats = vis.Loop().Stats()
	log.Info("render complete",
		slog.String("mode", result.Mode.String()),
		slog.Int("frames", opts.Frames),
		slog.Int("written", result.Written),
		slog.Uint64("drawn", result.Stats.Drawn))
	return result, nil
}

func writePNG(path string, surface *visualizer.Surface) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create frame file: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if err := png.Encode(f, surface.Snapshot()); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return nil
}
