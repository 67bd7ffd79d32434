package scene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is a perspective camera.
type Camera struct {
	Position r3.Vec
	Target   r3.Vec
	Up       r3.Vec

	// FOV is the vertical field of view in degrees.
	FOV  float64
	Near float64
	Far  float64
}

// NewPerspectiveCamera creates a camera at position looking at the origin.
func NewPerspectiveCamera(fov float64, position r3.Vec) *Camera {
	return &Camera{
		Position: position,
		Up:       yAxis,
		FOV:      fov,
		Near:     0.1,
		Far:      1000,
	}
}

// LookAt aims the camera at target.
func (c *Camera) LookAt(target r3.Vec) {
	c.Target = target
}

// basis returns the camera's right, up and forward unit vectors.
func (c *Camera) basis() (right, up, forward r3.Vec) {
	forward = r3.Unit(r3.Sub(c.Target, c.Position))
	right = r3.Cross(forward, c.Up)
	if r3.Norm(right) == 0 {
		right = r3.Vec{X: 1}
	}
	right = r3.Unit(right)
	up = r3.Cross(right, forward)
	return right, up, forward
}

// view is a camera-space snapshot used to project many points.
type view struct {
	pos     r3.Vec
	right   r3.Vec
	up      r3.Vec
	forward r3.Vec
	focal   float64
	aspect  float64
	near    float64
	far     float64
	width   float64
	height  float64
}

func (c *Camera) view(width, height float64) view {
	r, u, f := c.basis()
	aspect := 1.0
	if height > 0 {
		aspect = width / height
	}
	return view{
		pos:     c.Position,
		right:   r,
		up:      u,
		forward: f,
		focal:   1 / math.Tan(c.FOV*math.Pi/360),
		aspect:  aspect,
		near:    c.Near,
		far:     c.Far,
		width:   width,
		height:  height,
	}
}

// Project maps a world point to screen coordinates on a width x height
// viewport. ok is false when the point lies outside the near and far planes.
func (c *Camera) Project(p r3.Vec, width, height float64) (x, y, depth float64, ok bool) {
	return c.view(width, height).project(p)
}

func (v view) project(p r3.Vec) (x, y, depth float64, ok bool) {
	d := r3.Sub(p, v.pos)
	depth = r3.Dot(d, v.forward)
	if depth < v.near || depth > v.far {
		return 0, 0, depth, false
	}
	nx := r3.Dot(d, v.right) * v.focal / v.aspect / depth
	ny := r3.Dot(d, v.up) * v.focal / depth
	x = (nx + 1) / 2 * v.width
	y = (1 - ny) / 2 * v.height
	return x, y, depth, true
}
