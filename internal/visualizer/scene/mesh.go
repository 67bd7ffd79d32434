package scene

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	yAxis = r3.Vec{Y: 1}
	r3One = r3.Vec{X: 1, Y: 1, Z: 1}
)

// Material describes how a mesh reacts to light.
type Material struct {
	Color             colorful.Color
	Emissive          colorful.Color
	EmissiveIntensity float64
	Specular          colorful.Color
	Shininess         float64
}

// PhongMaterial returns a material lit like a glossy plastic, glowing faintly
// in its own color.
func PhongMaterial(col colorful.Color, shininess float64) Material {
	return Material{
		Color:             col,
		Emissive:          colorful.Color{R: col.R * 0.3, G: col.G * 0.3, B: col.B * 0.3},
		EmissiveIntensity: 1,
		Specular:          colorful.Color{R: 1, G: 1, B: 1},
		Shininess:         shininess,
	}
}

// Mesh is a geometry placed in the world. Meshes are created and disposed
// through a Device.
type Mesh struct {
	Geometry *Geometry
	Material Material
	Position r3.Vec
	Scale    r3.Vec

	// Yaw rotates the mesh about the vertical axis, in radians.
	Yaw float64

	id       uint64
	disposed bool
}

// ID returns the device handle of the mesh.
func (m *Mesh) ID() uint64 { return m.id }

// Disposed reports whether the mesh has been released.
func (m *Mesh) Disposed() bool { return m.disposed }

// LookAt turns the mesh about the vertical axis so its local +Z faces target.
func (m *Mesh) LookAt(target r3.Vec) {
	d := r3.Sub(target, m.Position)
	if d.X == 0 && d.Z == 0 {
		return
	}
	m.Yaw = math.Atan2(d.X, d.Z)
}

// SetUniformScale scales the mesh equally along every axis.
func (m *Mesh) SetUniformScale(s float64) {
	m.Scale = r3.Vec{X: s, Y: s, Z: s}
}

// transform returns the world-space vertices of the mesh.
func (m *Mesh) transform() []r3.Vec {
	rot := r3.NewRotation(m.Yaw, yAxis)
	out := make([]r3.Vec, len(m.Geometry.Vertices))
	for i, v := range m.Geometry.Vertices {
		v = r3.Vec{X: v.X * m.Scale.X, Y: v.Y * m.Scale.Y, Z: v.Z * m.Scale.Z}
		out[i] = r3.Add(rot.Rotate(v), m.Position)
	}
	return out
}
