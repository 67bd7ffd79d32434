package fyne

import (
	"image"
	"sync"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/govis/internal/visualizer"
)

// VisualizerCanvas is a widget that shows the last presented frame of a
// visualizer surface. The animation loop draws; the widget only copies.
type VisualizerCanvas struct {
	widget.BaseWidget

	raster *canvas.Raster

	mu       sync.Mutex
	surface  *visualizer.Surface
	buf      *image.RGBA
	onResize func(width, height, scale float64)
}

// NewVisualizerCanvas creates an empty canvas.
func NewVisualizerCanvas() *VisualizerCanvas {
	c := &VisualizerCanvas{}
	c.raster = canvas.NewRaster(c.draw)
	c.ExtendBaseWidget(c)
	return c
}

// CreateRenderer implements fyne.Widget.
func (c *VisualizerCanvas) CreateRenderer() fyneapp.WidgetRenderer {
	return widget.NewSimpleRenderer(c.raster)
}

// MinSize keeps the visualizer usable when the window is small.
func (c *VisualizerCanvas) MinSize() fyneapp.Size {
	return fyneapp.NewSize(320, 180)
}

// SetSurface selects the surface to display. nil shows a black frame.
func (c *VisualizerCanvas) SetSurface(s *visualizer.Surface) {
	c.mu.Lock()
	c.surface = s
	c.mu.Unlock()
}

// OnResize registers fn to receive the logical size and pixel scale whenever
// the widget is resized.
func (c *VisualizerCanvas) OnResize(fn func(width, height, scale float64)) {
	c.mu.Lock()
	c.onResize = fn
	c.mu.Unlock()
}

// Resize implements fyne.CanvasObject.
func (c *VisualizerCanvas) Resize(size fyneapp.Size) {
	c.BaseWidget.Resize(size)

	c.mu.Lock()
	fn := c.onResize
	c.mu.Unlock()
	if fn != nil {
		fn(float64(size.Width), float64(size.Height), c.scale())
	}
}

// RequestRefresh schedules a redraw on the UI goroutine. It is safe to call
// from the frame dispatcher.
func (c *VisualizerCanvas) RequestRefresh() {
	fyneapp.Do(c.raster.Refresh)
}

func (c *VisualizerCanvas) scale() float64 {
	app := fyneapp.CurrentApp()
	if app == nil {
		return 1
	}
	cnv := app.Driver().CanvasForObject(c)
	if cnv == nil || cnv.Scale() <= 0 {
		return 1
	}
	return float64(cnv.Scale())
}

// draw is the raster generator function.
func (c *VisualizerCanvas) draw(w, h int) image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surface == nil || c.surface.Empty() {
		img := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0xff
		}
		return img
	}
	c.buf = c.surface.CopyTo(c.buf)
	return c.buf
}
