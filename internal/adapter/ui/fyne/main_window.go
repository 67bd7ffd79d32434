package fyne

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/govis/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
	"github.com/tejashwikalptaru/govis/internal/visualizer"
	"github.com/tejashwikalptaru/govis/res"
)

// Window defaults.
const (
	AppName       = "GoVis"
	DefaultWidth  = 960
	DefaultHeight = 640
)

// MainWindow is the main UI window implementing the ports.UI interface.
//
// The MainWindow follows the MVP pattern:
// - It's a "dumb view" that just displays data
// - All business logic is in the Presenter
// - User interactions are forwarded to the Presenter
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window
	logger *slog.Logger

	// UI components
	canvas       *VisualizerCanvas
	canvasArea   *widgets.TappableStack
	playButton   *widget.Button
	modeSelect   *widget.Select
	sensitivity  *widget.Slider
	schemeRadio  *widget.RadioGroup
	customColors *widget.Entry
	density      *widget.Slider
	rotation     *widget.Slider
	resetButton  *widget.Button
	trackInfo    *widget.Label
	status       *widget.Label

	// syncing is set while controls are updated programmatically so their
	// change callbacks are not echoed back to the presenter. UI goroutine only.
	syncing bool

	// mode is the mode last shown by SetSettings. UI goroutine only.
	mode domain.Mode

	// Lifecycle management
	closeOnce sync.Once

	// Presenter (set after construction)
	presenter *Presenter
}

// NewMainWindow creates a new main window.
func NewMainWindow(app fyneapp.App, logger *slog.Logger) *MainWindow {
	w := &MainWindow{
		app:    app,
		logger: logger.With(slog.String("component", "main_window")),
	}

	w.window = app.NewWindow(AppName)
	w.buildUI()
	w.window.Resize(fyneapp.NewSize(DefaultWidth, DefaultHeight))

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
	w.addShortcuts()
}

// Canvas returns the visualizer widget.
func (w *MainWindow) Canvas() *VisualizerCanvas {
	return w.canvas
}

// Window returns the underlying Fyne window.
func (w *MainWindow) Window() fyneapp.Window {
	return w.window
}

// buildUI constructs the UI components.
func (w *MainWindow) buildUI() {
	w.canvas = NewVisualizerCanvas()
	w.canvasArea = widgets.NewTappableStack(w.canvas, w.handleCanvasTap, w.modeMenu)

	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)

	modeNames := make([]string, 0, len(visualizer.Modes()))
	for _, m := range visualizer.Modes() {
		modeNames = append(modeNames, m.Name)
	}
	w.modeSelect = widget.NewSelect(modeNames, nil)

	w.sensitivity = widget.NewSlider(domain.MinSensitivity, domain.MaxSensitivity)
	w.sensitivity.Step = 1

	w.schemeRadio = widget.NewRadioGroup([]string{
		string(domain.SchemeTrack), string(domain.SchemeCustom), string(domain.SchemeSpectrum),
	}, nil)
	w.schemeRadio.Horizontal = true
	w.schemeRadio.Required = true

	w.customColors = widget.NewEntry()
	w.customColors.SetPlaceHolder("#ff0055, #00ccff")

	w.density = widget.NewSlider(domain.MinParticleDensity, domain.MaxParticleDensity)
	w.density.Step = 1

	w.rotation = widget.NewSlider(domain.MinRotationSpeed, domain.MaxRotationSpeed)
	w.rotation.Step = 0.1

	w.resetButton = widget.NewButtonWithIcon("Reset", theme.ViewRefreshIcon(), nil)

	w.trackInfo = widget.NewLabel("No track loaded")
	w.trackInfo.Truncation = fyneapp.TextTruncateEllipsis
	w.trackInfo.TextStyle = fyneapp.TextStyle{Bold: true}
	w.status = widget.NewLabel("")

	form := widget.NewForm(
		widget.NewFormItem("Mode", w.modeSelect),
		widget.NewFormItem("Sensitivity", w.sensitivity),
		widget.NewFormItem("Colors", w.schemeRadio),
		widget.NewFormItem("Custom", w.customColors),
		widget.NewFormItem("Density", w.density),
		widget.NewFormItem("Rotation", w.rotation),
	)
	panel := container.NewBorder(nil, w.resetButton, nil, nil, form)

	header := container.NewBorder(nil, nil, w.playButton, w.status, w.trackInfo)
	content := container.NewBorder(header, nil, nil, panel, w.canvasArea)
	w.window.SetContent(container.NewPadded(content))

	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

// wirePresenterHandlers connects UI events to presenter handlers.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}
	p := w.presenter

	w.playButton.OnTapped = p.OnPlayClicked
	w.resetButton.OnTapped = p.OnResetClicked

	w.modeSelect.OnChanged = func(name string) {
		if w.syncing {
			return
		}
		for _, m := range visualizer.Modes() {
			if m.Name == name {
				p.OnModeSelected(m.Mode)
				return
			}
		}
	}
	w.sensitivity.OnChanged = func(v float64) {
		if !w.syncing {
			p.OnSensitivityChanged(v)
		}
	}
	w.schemeRadio.OnChanged = func(v string) {
		if !w.syncing && v != "" {
			p.OnSchemeSelected(domain.ColorScheme(v))
		}
	}
	w.customColors.OnSubmitted = func(text string) {
		p.OnCustomColorsChanged(splitColors(text))
	}
	w.density.OnChangeEnded = func(v float64) {
		if !w.syncing {
			p.OnDensityChanged(v)
		}
	}
	w.rotation.OnChangeEnded = func(v float64) {
		if !w.syncing {
			p.OnRotationSpeedChanged(v)
		}
	}

	w.canvas.OnResize(p.OnCanvasResized)
}

// createMenu creates the application menu.
func (w *MainWindow) createMenu() []*fyneapp.Menu {
	openFile := fyneapp.NewMenuItem("Open", w.handleOpenFile)
	exitMenu := fyneapp.NewMenuItem("Exit", func() {
		w.window.Close()
	})
	file := fyneapp.NewMenu("File", openFile, fyneapp.NewMenuItemSeparator(), exitMenu)

	items := make([]*fyneapp.MenuItem, 0, len(visualizer.Modes()))
	for _, m := range visualizer.Modes() {
		mode := m.Mode
		items = append(items, fyneapp.NewMenuItem(m.Name, func() {
			if w.presenter != nil {
				w.presenter.OnModeSelected(mode)
			}
		}))
	}
	view := fyneapp.NewMenu("View", items...)

	help := fyneapp.NewMenu("Help", fyneapp.NewMenuItem("About", w.showAbout))

	return []*fyneapp.Menu{file, view, help}
}

// showAbout displays the About dialog.
func (w *MainWindow) showAbout() {
	text := widget.NewRichTextFromMarkdown(res.AboutContent)
	text.Wrapping = fyneapp.TextWrapWord
	d := dialog.NewCustom("About "+AppName, "Close", text, w.window)
	d.Resize(fyneapp.NewSize(420, 300))
	d.Show()
}

// handleCanvasTap toggles playback when the visualizer is clicked.
func (w *MainWindow) handleCanvasTap() {
	if w.presenter != nil {
		w.presenter.OnPlayClicked()
	}
}

// modeMenu builds the visualizer context menu with the current mode checked.
func (w *MainWindow) modeMenu() *fyneapp.Menu {
	if w.presenter == nil {
		return nil
	}
	items := make([]*fyneapp.MenuItem, 0, len(visualizer.Modes()))
	for _, m := range visualizer.Modes() {
		mode := m.Mode
		item := fyneapp.NewMenuItem(m.Name, func() {
			w.presenter.OnModeSelected(mode)
		})
		item.Checked = mode == w.mode
		items = append(items, item)
	}
	return fyneapp.NewMenu("Mode", items...)
}

// handleOpenFile handles the "Open" menu action.
func (w *MainWindow) handleOpenFile() {
	if w.presenter == nil {
		return
	}

	NewFileDialog(w.window, func(filePath string) {
		if err := w.presenter.OnFileOpened(filePath); err != nil {
			w.ShowError("Error", fmt.Sprintf("Failed to open file: %v", err))
		}
	}, w.logger).Show()
}

// addShortcuts binds space to play/pause and 1-5 to the modes.
func (w *MainWindow) addShortcuts() {
	modeKeys := []fyneapp.KeyName{fyneapp.Key1, fyneapp.Key2, fyneapp.Key3, fyneapp.Key4, fyneapp.Key5}

	w.window.Canvas().SetOnTypedKey(func(ev *fyneapp.KeyEvent) {
		if ev.Name == fyneapp.KeySpace {
			w.presenter.OnPlayClicked()
			return
		}
		for i, k := range modeKeys {
			if ev.Name == k && i < len(visualizer.Modes()) {
				w.presenter.OnModeSelected(visualizer.Modes()[i].Mode)
				return
			}
		}
	})
}

// Run shows the window and blocks until the application quits.
func (w *MainWindow) Run() error {
	w.window.ShowAndRun()
	return nil
}

// Quit closes the window and the application.
// It's safe to call multiple times (idempotent).
func (w *MainWindow) Quit() {
	w.closeOnce.Do(func() {
		fyneapp.Do(func() {
			w.window.Close()
			w.app.Quit()
		})
	})
}

// ports.UI implementation. Every method may be called from any goroutine.

// SetSettings reflects a settings snapshot in the control panel.
func (w *MainWindow) SetSettings(s domain.VisualizationSettings) {
	fyneapp.Do(func() {
		w.syncing = true
		defer func() { w.syncing = false }()

		w.mode = s.Mode

		for _, m := range visualizer.Modes() {
			if m.Mode == s.Mode {
				w.modeSelect.SetSelected(m.Name)
			}
		}
		w.sensitivity.SetValue(float64(s.Sensitivity))
		w.schemeRadio.SetSelected(string(s.ColorScheme))
		w.customColors.SetText(strings.Join(s.CustomColors, ", "))

		density, _ := s.EffectiveParticleDensity()
		w.density.SetValue(float64(density))
		speed, _ := s.EffectiveRotationSpeed()
		w.rotation.SetValue(speed)

		// density only matters for particles and rotation only for 3d
		setEnabled(w.density, s.Mode == domain.ModeParticles)
		setEnabled(w.rotation, s.Mode == domain.Mode3D)
		setEnabled(w.customColors, s.ColorScheme == domain.SchemeCustom)
	})
}

// SetPlayState updates the play/pause button state.
func (w *MainWindow) SetPlayState(playing bool) {
	fyneapp.Do(func() {
		if playing {
			w.playButton.SetIcon(theme.MediaPauseIcon())
		} else {
			w.playButton.SetIcon(theme.MediaPlayIcon())
		}
	})
}

// SetTrackInfo updates the displayed track title and artist.
func (w *MainWindow) SetTrackInfo(track domain.Track) {
	text := track.Title
	if track.Artist != "" && track.Title != "" {
		text = fmt.Sprintf("%s - %s", track.Artist, track.Title)
	}
	if text == "" {
		text = "No track loaded"
	}
	fyneapp.Do(func() {
		w.trackInfo.SetText(text)
	})
}

// SetLoopRunning updates the render status indicator.
func (w *MainWindow) SetLoopRunning(mode domain.Mode, running bool) {
	state := "idle"
	if running {
		state = "rendering"
	}
	fyneapp.Do(func() {
		w.status.SetText(fmt.Sprintf("%s · %s", mode, state))
	})
}

// ShowError displays an error dialog to the user.
func (w *MainWindow) ShowError(title, message string) {
	fyneapp.Do(func() {
		dialog.ShowInformation(title, message, w.window)
	})
}

func setEnabled(d fyneapp.Disableable, enabled bool) {
	if enabled {
		d.Enable()
	} else {
		d.Disable()
	}
}

func splitColors(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ",") {
		if c := strings.TrimSpace(part); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Verify interface implementation
var _ ports.UI = (*MainWindow)(nil)
