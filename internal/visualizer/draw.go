package visualizer

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Background is the color a cleared surface is filled with.
var Background = color.NRGBA{A: 255}

// Point is a position in logical (device-independent) pixels.
type Point struct {
	X, Y float64
}

// Canvas draws into a surface's back buffer.
// All coordinates are logical pixels; the canvas applies the surface pixel ratio.
type Canvas struct {
	img   *image.RGBA
	scale float64
	w, h  float64
	z     *vector.Rasterizer
}

func newCanvas(img *image.RGBA, scale float64) *Canvas {
	if scale <= 0 {
		scale = 1
	}
	b := img.Bounds()
	return &Canvas{
		img:   img,
		scale: scale,
		w:     float64(b.Dx()) / scale,
		h:     float64(b.Dy()) / scale,
		z:     vector.NewRasterizer(0, 0),
	}
}

// Width returns the logical width.
func (c *Canvas) Width() float64 { return c.w }

// Height returns the logical height.
func (c *Canvas) Height() float64 { return c.h }

// Image exposes the underlying buffer.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Clear fills the whole buffer with Background.
func (c *Canvas) Clear() {
	pix := c.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i+0] = Background.R
		pix[i+1] = Background.G
		pix[i+2] = Background.B
		pix[i+3] = Background.A
	}
}

// Fade moves every pixel toward the opaque col by alpha. Each channel moves at
// least one step per call, so repeated fades reach col exactly.
func (c *Canvas) Fade(col colorful.Color, alpha float64) {
	if alpha <= 0 {
		return
	}
	a := min(alpha, 1)
	t := withAlpha(col, 1)
	target := [4]uint8{t.R, t.G, t.B, t.A}
	pix := c.img.Pix
	for i := 0; i < len(pix); i += 4 {
		for k, v := range target {
			pix[i+k] = fadeChannel(pix[i+k], v, a)
		}
	}
}

func fadeChannel(v, target uint8, a float64) uint8 {
	out := uint8(float64(target)*a + float64(v)*(1-a) + 0.5)
	if out == v && v != target {
		if v > target {
			out--
		} else {
			out++
		}
	}
	return out
}

// FillRect fills an axis-aligned rectangle with partial coverage on fractional edges.
func (c *Canvas) FillRect(x, y, w, h float64, col color.NRGBA) {
	c.fillRect(x, y, w, h, func(float64) color.NRGBA { return col })
}

// FillRectGradient fills a rectangle whose color follows g vertically, with g's
// 0 mapped to logical y0 and 1 mapped to logical y1.
func (c *Canvas) FillRectGradient(x, y, w, h float64, g Gradient, y0, y1 float64) {
	span := y1 - y0
	c.fillRect(x, y, w, h, func(ly float64) color.NRGBA {
		t := 0.0
		if span != 0 {
			t = (ly - y0) / span
		}
		col, a := g.At(t)
		return withAlpha(col, a)
	})
}

// fillRect blends rows of a rectangle, asking colorAt for each row's color by logical y.
func (c *Canvas) fillRect(x, y, w, h float64, colorAt func(ly float64) color.NRGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	x0, y0 := x*c.scale, y*c.scale
	x1, y1 := (x+w)*c.scale, (y+h)*c.scale

	b := c.img.Bounds()
	px0 := max(int(math.Floor(x0)), b.Min.X)
	px1 := min(int(math.Ceil(x1)), b.Max.X)
	py0 := max(int(math.Floor(y0)), b.Min.Y)
	py1 := min(int(math.Ceil(y1)), b.Max.Y)

	for py := py0; py < py1; py++ {
		cy := overlap(float64(py), float64(py+1), y0, y1)
		if cy <= 0 {
			continue
		}
		col := colorAt((float64(py) + 0.5) / c.scale)
		for px := px0; px < px1; px++ {
			cov := cy * overlap(float64(px), float64(px+1), x0, x1)
			if cov > 0 {
				blend(c.img, px, py, col, cov)
			}
		}
	}
}

// FillPolygon fills a closed polygon with anti-aliased edges.
func (c *Canvas) FillPolygon(pts []Point, col color.NRGBA) {
	if len(pts) < 3 || col.A == 0 {
		return
	}
	c.raster(boundsOf(pts, 0), col, func(z *vector.Rasterizer, o Point) {
		c.subpath(z, o, pts)
	})
}

// FillCircle fills a disk.
func (c *Canvas) FillCircle(cx, cy, r float64, col color.NRGBA) {
	if r <= 0 || col.A == 0 {
		return
	}
	pts := circlePoints(cx, cy, r, c.segmentsFor(r))
	c.FillPolygon(pts, col)
}

// FillRadialGradient fills a disk of radius r whose color follows g from the
// center (0) outward (1). Pixels beyond g's last stop take its color.
func (c *Canvas) FillRadialGradient(cx, cy, r float64, g Gradient, opacity float64) {
	if r <= 0 {
		return
	}
	pcx, pcy, pr := cx*c.scale, cy*c.scale, r*c.scale
	b := c.img.Bounds()
	px0 := max(int(math.Floor(pcx-pr)), b.Min.X)
	px1 := min(int(math.Ceil(pcx+pr)), b.Max.X)
	py0 := max(int(math.Floor(pcy-pr)), b.Min.Y)
	py1 := min(int(math.Ceil(pcy+pr)), b.Max.Y)

	for py := py0; py < py1; py++ {
		for px := px0; px < px1; px++ {
			dx, dy := float64(px)+0.5-pcx, float64(py)+0.5-pcy
			d := math.Hypot(dx, dy)
			edge := clamp01(pr - d + 0.5)
			if edge <= 0 {
				continue
			}
			col, a := g.At(d / pr)
			blend(c.img, px, py, withAlpha(col, a*opacity), edge)
		}
	}
}

// StrokeLine strokes a single segment with round ends.
func (c *Canvas) StrokeLine(x0, y0, x1, y1, width float64, col color.NRGBA) {
	c.StrokePolyline([]Point{{x0, y0}, {x1, y1}}, false, width, col)
}

// StrokePolyline strokes connected segments with round joins.
// Overlapping parts of the stroke are covered once, so translucent strokes stay even.
func (c *Canvas) StrokePolyline(pts []Point, closed bool, width float64, col color.NRGBA) {
	if len(pts) < 2 || width <= 0 || col.A == 0 {
		return
	}
	half := width / 2
	c.raster(boundsOf(pts, half), col, func(z *vector.Rasterizer, o Point) {
		n := len(pts)
		segs := n - 1
		if closed {
			segs = n
		}
		// Every subpath is emitted with the same winding so overlaps add up
		// instead of cancelling.
		for i := 0; i < segs; i++ {
			a, b := pts[i], pts[(i+1)%n]
			dx, dy := b.X-a.X, b.Y-a.Y
			l := math.Hypot(dx, dy)
			if l == 0 {
				continue
			}
			nx, ny := -dy/l*half, dx/l*half
			c.subpath(z, o, []Point{
				{a.X + nx, a.Y + ny},
				{b.X + nx, b.Y + ny},
				{b.X - nx, b.Y - ny},
				{a.X - nx, a.Y - ny},
			})
		}
		seg := c.segmentsFor(half)
		for _, p := range pts {
			c.subpath(z, o, reversed(circlePoints(p.X, p.Y, half, seg)))
		}
	})
}

// DrawText draws a single line of text horizontally centered on x with its
// baseline at y. Glyphs are a fixed bitmap face and are not scaled.
func (c *Canvas) DrawText(x, y float64, text string, col color.NRGBA) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
	}
	w := d.MeasureString(text).Round()
	d.Dot = fixed.P(int(math.Round(x*c.scale))-w/2, int(math.Round(y*c.scale)))
	d.DrawString(text)
}

// raster prepares the rasterizer for the logical bounding box, lets build add
// subpaths (offset by o), and composites col over the clipped region.
func (c *Canvas) raster(lb [4]float64, col color.NRGBA, build func(z *vector.Rasterizer, o Point)) {
	r := image.Rect(
		int(math.Floor(lb[0]*c.scale)), int(math.Floor(lb[1]*c.scale)),
		int(math.Ceil(lb[2]*c.scale))+1, int(math.Ceil(lb[3]*c.scale))+1,
	).Intersect(c.img.Bounds())
	if r.Empty() {
		return
	}
	c.z.Reset(r.Dx(), r.Dy())
	build(c.z, Point{float64(r.Min.X), float64(r.Min.Y)})
	c.z.Draw(c.img, r, image.NewUniform(col), image.Point{})
}

// subpath adds a closed polygon to z, converting logical points to pixels relative to o.
func (c *Canvas) subpath(z *vector.Rasterizer, o Point, pts []Point) {
	for i, p := range pts {
		x := float32(p.X*c.scale - o.X)
		y := float32(p.Y*c.scale - o.Y)
		if i == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()
}

// segmentsFor picks a polygon resolution for a circle of logical radius r.
func (c *Canvas) segmentsFor(r float64) int {
	return max(12, min(128, int(2*math.Pi*r*c.scale/3)))
}

// circlePoints approximates a circle, counter-clockwise on screen.
func circlePoints(cx, cy, r float64, n int) []Point {
	pts := make([]Point, n)
	for i := range n {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = Point{cx + math.Cos(a)*r, cy + math.Sin(a)*r}
	}
	return pts
}

// arcPoints samples an arc from angle a0 to a1 (radians, screen orientation).
func arcPoints(cx, cy, r, a0, a1 float64, n int) []Point {
	pts := make([]Point, n+1)
	for i := 0; i <= n; i++ {
		a := a0 + (a1-a0)*float64(i)/float64(n)
		pts[i] = Point{cx + math.Cos(a)*r, cy + math.Sin(a)*r}
	}
	return pts
}

func reversed(pts []Point) []Point {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
	return pts
}

// boundsOf returns [minX, minY, maxX, maxY] grown by pad.
func boundsOf(pts []Point, pad float64) [4]float64 {
	b := [4]float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for _, p := range pts {
		b[0] = math.Min(b[0], p.X)
		b[1] = math.Min(b[1], p.Y)
		b[2] = math.Max(b[2], p.X)
		b[3] = math.Max(b[3], p.Y)
	}
	return [4]float64{b[0] - pad, b[1] - pad, b[2] + pad, b[3] + pad}
}

// overlap returns the length of [a0, a1] ∩ [b0, b1].
func overlap(a0, a1, b0, b1 float64) float64 {
	return math.Max(0, math.Min(a1, b1)-math.Max(a0, b0))
}

// blend composites col over the pixel at (x, y) scaled by coverage.
func blend(img *image.RGBA, x, y int, col color.NRGBA, coverage float64) {
	a := float64(col.A) / 255 * coverage
	if a <= 0 {
		return
	}
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	inv := 1 - a
	p[0] = uint8(float64(col.R)*a + float64(p[0])*inv + 0.5)
	p[1] = uint8(float64(col.G)*a + float64(p[1])*inv + 0.5)
	p[2] = uint8(float64(col.B)*a + float64(p[2])*inv + 0.5)
	p[3] = uint8(255*a + float64(p[3])*inv + 0.5)
}
