package visualizer

import (
	"image"
	"math"
	"sync"

	"github.com/google/uuid"
)

// Surface is a double-buffered pixel target owned by one animation loop.
// Renderers draw into the back buffer through Canvas; Present publishes it to
// the front buffer that the UI reads with Snapshot.
//
// Thread-safety: Resize, Canvas and Present are called by the owning loop;
// Snapshot and Size may be called from any goroutine.
type Surface struct {
	id string

	mu      sync.RWMutex
	width   float64
	height  float64
	ratio   float64
	back    *image.RGBA
	front   *image.RGBA
	version uint64
}

// NewSurface creates a surface of logical size width×height at the given pixel ratio.
func NewSurface(width, height, ratio float64) *Surface {
	s := &Surface{id: uuid.NewString()}
	s.Resize(width, height, ratio)
	return s
}

// ID returns a unique identifier for log correlation.
func (s *Surface) ID() string {
	return s.id
}

// Resize sets the logical size and pixel ratio and reallocates the buffers to
// physical size = logical × ratio. Returns false when nothing changed.
// Buffer content is discarded on a real resize.
func (s *Surface) Resize(width, height, ratio float64) bool {
	if !finite(ratio) || ratio <= 0 {
		ratio = 1
	}
	width = logicalSize(width)
	height = logicalSize(height)

	s.mu.Lock()
	defer s.mu.Unlock()

	pw, ph := physical(width, ratio), physical(height, ratio)
	if s.back != nil && s.width == width && s.height == height && s.ratio == ratio {
		return false
	}

	s.width, s.height, s.ratio = width, height, ratio
	if s.back == nil || s.back.Bounds().Dx() != pw || s.back.Bounds().Dy() != ph {
		s.back = image.NewRGBA(image.Rect(0, 0, pw, ph))
		s.front = image.NewRGBA(image.Rect(0, 0, pw, ph))
		s.version++
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// logicalSize maps negative and non-finite sizes to 0, which leaves the surface empty.
func logicalSize(v float64) float64 {
	if !finite(v) || v < 0 {
		return 0
	}
	return v
}

// Size returns the physical size in pixels.
func (s *Surface) Size() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.back.Bounds()
	return b.Dx(), b.Dy()
}

// LogicalSize returns the size in device-independent pixels.
func (s *Surface) LogicalSize() (float64, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

// PixelRatio returns the physical-to-logical scale.
func (s *Surface) PixelRatio() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ratio
}

// Version changes every time the buffers are reallocated.
func (s *Surface) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Empty reports whether the surface has no drawable pixels.
func (s *Surface) Empty() bool {
	w, h := s.Size()
	return w == 0 || h == 0
}

// Canvas returns a drawing context over the back buffer.
func (s *Surface) Canvas() *Canvas {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newCanvas(s.back, s.ratio)
}

// Present copies the back buffer to the front buffer.
// The back buffer is kept so renderers that composite over the previous frame keep working.
func (s *Surface) Present() {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.front.Pix, s.back.Pix)
}

// Snapshot returns a copy of the last presented frame.
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := image.NewRGBA(s.front.Bounds())
	copy(out.Pix, s.front.Pix)
	return out
}

// CopyTo writes the last presented frame into dst, reallocating it if the size differs.
// It returns the buffer that now holds the frame.
func (s *Surface) CopyTo(dst *image.RGBA) *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if dst == nil || dst.Bounds() != s.front.Bounds() {
		dst = image.NewRGBA(s.front.Bounds())
	}
	copy(dst.Pix, s.front.Pix)
	return dst
}

func physical(logical, ratio float64) int {
	return int(math.Round(logical * ratio))
}
