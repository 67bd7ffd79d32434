package scene

import (
	"cmp"
	"math"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// PointLight emits light in every direction from a position.
type PointLight struct {
	Position  r3.Vec
	Color     colorful.Color
	Intensity float64
}

// Scene is a set of meshes and the lights shining on them.
type Scene struct {
	Ambient          colorful.Color
	AmbientIntensity float64
	Lights           []PointLight

	meshes []*Mesh
}

// New creates an empty scene with white ambient light at the given intensity.
func New(ambient float64) *Scene {
	return &Scene{
		Ambient:          colorful.Color{R: 1, G: 1, B: 1},
		AmbientIntensity: ambient,
	}
}

// AddLight adds a white point light.
func (s *Scene) AddLight(position r3.Vec, intensity float64) {
	s.Lights = append(s.Lights, PointLight{
		Position:  position,
		Color:     colorful.Color{R: 1, G: 1, B: 1},
		Intensity: intensity,
	})
}

// Add puts meshes into the scene.
func (s *Scene) Add(meshes ...*Mesh) {
	s.meshes = append(s.meshes, meshes...)
}

// Meshes returns the meshes in insertion order.
func (s *Scene) Meshes() []*Mesh {
	return slices.Clone(s.meshes)
}

// Clear removes every mesh without disposing it.
func (s *Scene) Clear() {
	s.meshes = nil
}

// Face is one shaded polygon in screen space.
type Face struct {
	Points []r2.Vec
	Color  colorful.Color
	Depth  float64
}

// Render culls, shades and projects every visible face for a width x height
// viewport. Faces are ordered back to front so they can be painted in order.
// Disposed meshes are skipped.
func (s *Scene) Render(cam *Camera, width, height float64) []Face {
	v := cam.view(width, height)
	var faces []Face

	for _, m := range s.meshes {
		if m.disposed || m.Geometry == nil {
			continue
		}
		world := m.transform()
	face:
		for _, idx := range m.Geometry.Faces {
			poly := make([]r3.Vec, len(idx))
			for i, vi := range idx {
				poly[i] = world[vi]
			}
			normal := newellNormal(poly)
			if r3.Norm2(normal) == 0 {
				continue
			}
			center := centroid(poly)
			if r3.Dot(normal, r3.Sub(cam.Position, center)) <= 0 {
				continue
			}

			pts := make([]r2.Vec, len(poly))
			depth := 0.0
			for i, p := range poly {
				x, y, d, ok := v.project(p)
				if !ok {
					continue face
				}
				pts[i] = r2.Vec{X: x, Y: y}
				depth += d
			}

			faces = append(faces, Face{
				Points: pts,
				Color:  s.shade(m.Material, r3.Unit(normal), center, cam.Position),
				Depth:  depth / float64(len(poly)),
			})
		}
	}

	slices.SortStableFunc(faces, func(a, b Face) int {
		return cmp.Compare(b.Depth, a.Depth)
	})
	return faces
}

// shade applies Blinn-Phong lighting to a flat face.
func (s *Scene) shade(mat Material, n, at, eye r3.Vec) colorful.Color {
	r := s.Ambient.R * s.AmbientIntensity
	g := s.Ambient.G * s.AmbientIntensity
	b := s.Ambient.B * s.AmbientIntensity
	var sr, sg, sb float64

	toEye := r3.Unit(r3.Sub(eye, at))
	for _, l := range s.Lights {
		toLight := r3.Unit(r3.Sub(l.Position, at))
		diff := r3.Dot(n, toLight)
		if diff <= 0 {
			continue
		}
		diff *= l.Intensity
		r += l.Color.R * diff
		g += l.Color.G * diff
		b += l.Color.B * diff

		half := r3.Unit(r3.Add(toLight, toEye))
		spec := math.Pow(math.Max(0, r3.Dot(n, half)), mat.Shininess) * l.Intensity
		sr += l.Color.R * spec
		sg += l.Color.G * spec
		sb += l.Color.B * spec
	}

	e := mat.EmissiveIntensity
	return colorful.Color{
		R: mat.Color.R*r + mat.Specular.R*sr + mat.Emissive.R*e,
		G: mat.Color.G*g + mat.Specular.G*sg + mat.Emissive.G*e,
		B: mat.Color.B*b + mat.Specular.B*sb + mat.Emissive.B*e,
	}.Clamped()
}

// newellNormal returns the (unnormalized) normal of a planar polygon wound
// counter-clockwise around it.
func newellNormal(poly []r3.Vec) r3.Vec {
	var n r3.Vec
	for i, a := range poly {
		b := poly[(i+1)%len(poly)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

func centroid(poly []r3.Vec) r3.Vec {
	var c r3.Vec
	for _, p := range poly {
		c = r3.Add(c, p)
	}
	return r3.Scale(1/float64(len(poly)), c)
}
