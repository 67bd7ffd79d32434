package fyne

import (
	"image"
	"image/color"
	"testing"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/govis/internal/visualizer"
)

func TestVisualizerCanvas_BlackWithoutSurface(t *testing.T) {
	test.NewApp()
	c := NewVisualizerCanvas()

	img := c.draw(4, 3)
	require.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	assert.Equal(t, color.RGBA{A: 0xff}, img.At(2, 1))
}

func TestVisualizerCanvas_ShowsPresentedFrame(t *testing.T) {
	test.NewApp()
	c := NewVisualizerCanvas()

	s := visualizer.NewSurface(8, 6, 1)
	cv := s.Canvas()
	cv.FillRect(0, 0, 8, 6, color.NRGBA{R: 0xff, A: 0xff})
	s.Present()
	c.SetSurface(s)

	img := c.draw(8, 6)
	assert.Equal(t, image.Rect(0, 0, 8, 6), img.Bounds())
	r, g, b, a := img.At(3, 3).RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0, 0xffff}, []uint32{r, g, b, a})

	// The same buffer is reused while the size is unchanged.
	again := c.draw(8, 6)
	assert.Same(t, img, again)
}

func TestVisualizerCanvas_ResizeCallback(t *testing.T) {
	test.NewApp()
	c := NewVisualizerCanvas()

	var got []float64
	c.OnResize(func(w, h, scale float64) {
		got = []float64{w, h, scale}
	})
	c.Resize(fyneapp.NewSize(120, 80))

	require.Len(t, got, 3)
	assert.Equal(t, 120.0, got[0])
	assert.Equal(t, 80.0, got[1])
	assert.Positive(t, got[2])
}

func TestVisualizerCanvas_MinSize(t *testing.T) {
	test.NewApp()
	assert.Equal(t, fyneapp.NewSize(320, 180), NewVisualizerCanvas().MinSize())
}

func TestSplitColors(t *testing.T) {
	assert.Equal(t, []string{"#fff", "#000000"}, splitColors(" #fff , ,#000000 "))
	assert.Empty(t, splitColors("  "))
}
