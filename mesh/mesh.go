// Package mesh implements the triangle mesh preparation pass of the
// SDF generation pipeline: vertex welding, watertightness analysis
// and hole repair. Meshes are indexed: triangles store indices into a
// shared vertex buffer. Weld and Repair replace the mesh buffers in
// place; indices held by callers are invalid after either call.
package mesh

import (
	"fmt"

	"github.com/volgrid/sdfgen/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is an indexed triangle mesh.
type Mesh struct {
	Vertices  []r3.Vec
	Triangles [][3]int
}

// New assembles a mesh from vertex and triangle buffers. The mesh
// takes ownership of both slices.
func New(vertices []r3.Vec, triangles [][3]int) *Mesh {
	return &Mesh{Vertices: vertices, Triangles: triangles}
}

// NumVertices returns the vertex count.
func (m *Mesh) NumVertices() int { return len(m.Vertices) }

// NumTriangles returns the triangle count.
func (m *Mesh) NumTriangles() int { return len(m.Triangles) }

// Triangle returns the three vertex positions of triangle i in
// winding order.
func (m *Mesh) Triangle(i int) [3]r3.Vec {
	t := m.Triangles[i]
	return [3]r3.Vec{m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]}
}

// Bounds returns the axis aligned bounding box of the mesh vertices.
// The box of an empty mesh is empty (Min > Max).
func (m *Mesh) Bounds() d3.Box {
	bb := d3.EmptyBox()
	for _, v := range m.Vertices {
		bb = bb.Include(v)
	}
	return bb
}

// Validate checks triangle indices are within the vertex buffer and
// that no triangle repeats a vertex index.
func (m *Mesh) Validate() error {
	n := len(m.Vertices)
	for i, t := range m.Triangles {
		for _, v := range t {
			if v < 0 || v >= n {
				return fmt.Errorf("triangle %d: vertex index %d out of range [0,%d)", i, v, n)
			}
		}
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			return fmt.Errorf("triangle %d: degenerate indices %v", i, t)
		}
	}
	return nil
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Vertices:  make([]r3.Vec, len(m.Vertices)),
		Triangles: make([][3]int, len(m.Triangles)),
	}
	copy(c.Vertices, m.Vertices)
	copy(c.Triangles, m.Triangles)
	return c
}

// Normal returns the (non-unit) normal of triangle i from its
// winding, the cross product of its first two edges.
func (m *Mesh) Normal(i int) r3.Vec {
	t := m.Triangle(i)
	return r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0]))
}
