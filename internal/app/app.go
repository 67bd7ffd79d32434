// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/govis/internal/adapter/audio/analyzer"
	"github.com/tejashwikalptaru/govis/internal/adapter/audio/decode"
	"github.com/tejashwikalptaru/govis/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/govis/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/govis/internal/adapter/remote"
	"github.com/tejashwikalptaru/govis/internal/adapter/repository/preferences"
	"github.com/tejashwikalptaru/govis/internal/adapter/scheduler"
	"github.com/tejashwikalptaru/govis/internal/adapter/trackinfo"
	fyneui "github.com/tejashwikalptaru/govis/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/govis/internal/config"
	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/logger"
	"github.com/tejashwikalptaru/govis/internal/ports"
	"github.com/tejashwikalptaru/govis/internal/service"
	"github.com/tejashwikalptaru/govis/internal/visualizer"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for the CLI
type Application struct {
	// Core dependencies
	logger  *slog.Logger
	fyneApp fyne.App

	// Infrastructure
	eventBus  *eventbus.SyncEventBus
	scheduler *scheduler.Ticker
	provider  ports.AudioFeatureProvider
	surface   *visualizer.Surface

	// Services
	playbackService   *service.PlaybackService
	settingsService   *service.SettingsService
	visualizerService *service.VisualizerService

	// Remote control (optional)
	remote     *remote.Server
	remoteAddr net.Addr
	remoteWg   sync.WaitGroup

	// UI
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow

	demo     bool
	subs     []domain.SubscriptionID
	shutdown sync.Once
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string

	// AppName is the display name
	AppName string

	// Runtime is the loaded configuration file plus environment overrides.
	Runtime config.Config

	// OpenFile is loaded and played once the window is ready (optional)
	OpenFile string

	// Logger overrides the logger built from Runtime (nil for production)
	Logger *slog.Logger

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	return Config{
		AppID:   "com.govis.app",
		AppName: fyneui.AppName,
		Runtime: config.Default(),
	}
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(cfg Config) (*Application, error) {
	if err := cfg.Runtime.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{demo: cfg.Runtime.Demo}

	// Step 1: Create logger
	app.logger = cfg.Logger
	if app.logger == nil {
		app.logger = logger.NewLogger(cfg.Runtime.LoggerConfig())
	}
	app.logger.Info("initializing application",
		slog.String("app_id", cfg.AppID),
		CurrentBuild().Attr(),
		slog.Bool("demo", app.demo))

	// Step 2: Create Fyne application
	if cfg.TestFyneApp != nil {
		app.fyneApp = cfg.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(cfg.AppID)
	}

	// Step 3: Create an event bus and the frame scheduler
	app.eventBus = eventbus.NewSyncEventBus(app.logger)
	app.scheduler = scheduler.NewTicker(cfg.Runtime.Render.FPS, app.logger)

	// Step 4: Create the playback clock and the audio feature provider
	app.playbackService = service.NewPlaybackService(
		app.logger,
		decode.NewDefaultRegistry(app.logger),
		trackinfo.NewReader(app.logger),
		app.eventBus,
	)
	if err := app.createProvider(cfg.Runtime); err != nil {
		_ = app.Shutdown()
		return nil, err
	}

	// Step 5: Create settings (persisted in Fyne preferences) and the visualizer
	app.settingsService = service.NewSettingsService(
		app.logger,
		preferences.NewSettingsRepository(app.fyneApp.Preferences()),
		app.eventBus,
	)
	if !cfg.Runtime.Settings.IsEmpty() {
		if _, err := app.settingsService.Update(cfg.Runtime.Settings); err != nil {
			_ = app.Shutdown()
			return nil, fmt.Errorf("failed to apply configured settings: %w", err)
		}
	}

	vis, err := service.NewVisualizerService(
		app.logger,
		app.eventBus,
		app.settingsService,
		app.scheduler,
		app.provider,
		visualizer.Options{Logger: app.logger},
	)
	if err != nil {
		_ = app.Shutdown()
		return nil, fmt.Errorf("failed to create visualizer: %w", err)
	}
	app.visualizerService = vis

	// Step 6: Create UI
	app.mainWindow = fyneui.NewMainWindow(app.fyneApp, app.logger)
	app.mainWindow.Window().Resize(fyne.NewSize(cfg.Runtime.Window.Width, cfg.Runtime.Window.Height))

	app.surface = visualizer.NewSurface(float64(cfg.Runtime.Window.Width), float64(cfg.Runtime.Window.Height), 1)
	canvas := app.mainWindow.Canvas()
	canvas.SetSurface(app.surface)
	vis.Loop().OnFrame(canvas.RequestRefresh)
	vis.Mount(app.surface)

	// Step 7: Create Presenter and wire with UI.
	// Demo mode has no transport; the presenter toggles the visualizer instead.
	var playback fyneui.Playback
	if !app.demo {
		playback = app.playbackService
	}
	app.presenter = fyneui.NewPresenter(
		app.logger,
		app.settingsService,
		vis,
		playback,
		app.eventBus,
		app.mainWindow,
	)
	app.mainWindow.SetPresenter(app.presenter)

	// Step 8: Start the remote control server
	if cfg.Runtime.Remote.Enabled {
		if err := app.startRemote(cfg.Runtime.Remote.Address); err != nil {
			_ = app.Shutdown()
			return nil, err
		}
	}

	// Step 9: Start something to look at
	switch {
	case cfg.OpenFile != "" && !app.demo:
		if err := app.presenter.OnFileOpened(cfg.OpenFile); err != nil {
			app.logger.Warn("failed to open file", slog.String("file_path", cfg.OpenFile), slog.Any("error", err))
			app.mainWindow.ShowError("Error", fmt.Sprintf("Failed to open file: %v", err))
		}
	case app.demo:
		vis.SetPlaying(true)
	}

	return app, nil
}

// createProvider selects the PCM analyzer, or the synthetic provider in demo mode.
func (a *Application) createProvider(rt config.Config) error {
	if rt.Demo {
		provider := mock.NewProvider(uint64(time.Now().UnixNano()))
		provider.SetLogger(a.logger.With(slog.String("provider", "demo")))
		a.subs = append(a.subs, a.eventBus.Subscribe(domain.EventPlaybackChanged, func(event domain.Event) {
			if e, ok := event.(domain.PlaybackChangedEvent); ok {
				provider.SetPlaying(e.Status.IsPlaying())
			}
		}))
		a.provider = provider
		return nil
	}

	an, err := analyzer.New(a.playbackService, rt.AnalyzerConfig(), a.logger)
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}
	a.provider = an
	return nil
}

// startRemote listens on addr and serves the remote control in the background.
func (a *Application) startRemote(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return domain.NewServiceError("RemoteServer", "Listen", "failed to listen on "+addr, err)
	}

	var playback remote.PlaybackController
	if !a.demo {
		playback = a.playbackService
	}
	a.remote = remote.NewServer(a.logger, a.settingsService, playback, a.eventBus)
	a.remoteAddr = l.Addr()

	a.remoteWg.Add(1)
	go func() {
		defer a.remoteWg.Done()
		if err := a.remote.Serve(l); err != nil {
			a.logger.Error("remote control stopped", slog.Any("error", err))
		}
	}()
	return nil
}

// Run shows the window and blocks until it is closed.
func (a *Application) Run() error {
	a.logger.Info("GoVis started")
	return a.mainWindow.Run()
}

// Quit closes the window, which makes Run return.
func (a *Application) Quit() {
	a.mainWindow.Quit()
}

// Shutdown gracefully shuts down the application. It is safe to call more than once.
func (a *Application) Shutdown() error {
	var errs []error

	a.shutdown.Do(func() {
		a.logger.Info("shutting down application")

		// Shutdown UI and presenter
		if a.presenter != nil {
			a.presenter.Shutdown()
		}

		if a.remote != nil {
			if err := a.remote.Close(); err != nil {
				errs = append(errs, fmt.Errorf("remote: %w", err))
			}
			a.remoteWg.Wait()
		}

		// Shutdown services (in reverse order of creation)
		if a.visualizerService != nil {
			a.visualizerService.Close()
		}

		for _, id := range a.subs {
			a.eventBus.Unsubscribe(id)
		}

		if a.playbackService != nil {
			if err := a.playbackService.Shutdown(); err != nil {
				errs = append(errs, fmt.Errorf("playback: %w", err))
			}
		}

		if a.scheduler != nil {
			if err := a.scheduler.Close(); err != nil {
				errs = append(errs, fmt.Errorf("scheduler: %w", err))
			}
		}

		if err := a.eventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event bus: %w", err))
		}

		a.logger.Info("application shutdown complete")
	})

	return errors.Join(errs...)
}

// GetServices returns the services (for testing).
func (a *Application) GetServices() (*service.PlaybackService, *service.SettingsService, *service.VisualizerService) {
	return a.playbackService, a.settingsService, a.visualizerService
}

// GetEventBus returns the event bus (for testing).
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}

// GetFyneApp returns the Fyne app (for testing).
func (a *Application) GetFyneApp() fyne.App {
	return a.fyneApp
}

// Presenter returns the presenter (for testing).
func (a *Application) Presenter() *fyneui.Presenter {
	return a.presenter
}

// Surface returns the surface the visualizer draws on.
func (a *Application) Surface() *visualizer.Surface {
	return a.surface
}

// RemoteAddr returns the address of the remote control server, or nil when disabled.
func (a *Application) RemoteAddr() net.Addr {
	return a.remoteAddr
}
