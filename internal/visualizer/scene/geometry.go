// Package scene is a small software 3D pipeline: meshes, a perspective camera,
// flat Phong-style shading and painter's-order projection to 2D polygons.
package scene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Geometry is an indexed polygon mesh in local space.
// Faces are wound counter-clockwise when viewed from outside.
type Geometry struct {
	Vertices []r3.Vec
	Faces    [][]int
}

// BoxGeometry creates an axis-aligned box centered on the origin.
func BoxGeometry(width, height, depth float64) *Geometry {
	x, y, z := width/2, height/2, depth/2
	return &Geometry{
		Vertices: []r3.Vec{
			{X: -x, Y: -y, Z: z}, {X: x, Y: -y, Z: z}, {X: x, Y: y, Z: z}, {X: -x, Y: y, Z: z},
			{X: -x, Y: -y, Z: -z}, {X: x, Y: -y, Z: -z}, {X: x, Y: y, Z: -z}, {X: -x, Y: y, Z: -z},
		},
		Faces: [][]int{
			{0, 1, 2, 3}, // front
			{5, 4, 7, 6}, // back
			{4, 0, 3, 7}, // left
			{1, 5, 6, 2}, // right
			{3, 2, 6, 7}, // top
			{4, 5, 1, 0}, // bottom
		},
	}
}

// SphereGeometry creates a UV sphere centered on the origin.
func SphereGeometry(radius float64, widthSegments, heightSegments int) *Geometry {
	widthSegments = max(3, widthSegments)
	heightSegments = max(2, heightSegments)

	g := &Geometry{}
	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			g.Vertices = append(g.Vertices, r3.Vec{
				X: -radius * math.Cos(u*2*math.Pi) * math.Sin(v*math.Pi),
				Y: radius * math.Cos(v*math.Pi),
				Z: radius * math.Sin(u*2*math.Pi) * math.Sin(v*math.Pi),
			})
		}
	}

	row := widthSegments + 1
	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := iy*row + ix + 1
			b := iy*row + ix
			c := (iy+1)*row + ix
			d := (iy+1)*row + ix + 1
			switch {
			case iy == 0:
				g.Faces = append(g.Faces, []int{a, c, d})
			case iy == heightSegments-1:
				g.Faces = append(g.Faces, []int{a, b, c})
			default:
				g.Faces = append(g.Faces, []int{a, b, c, d})
			}
		}
	}
	return g
}
