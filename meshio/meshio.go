// Package meshio loads and saves triangle meshes. STL files carry an
// unindexed triangle soup, OBJ files an indexed vertex/face list;
// both are returned as mesh.Mesh values. STL meshes keep one vertex
// per triangle corner, the pipeline's weld pass is what stitches
// them.
package meshio

import (
	"fmt"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/volgrid/sdfgen/mesh"
)

// Triangle is a triangle soup element, three vertices in winding
// order.
type Triangle [3]r3.Vec

// Normal returns the triangle's unit normal from its winding.
func (t Triangle) Normal() r3.Vec {
	e1 := r3.Sub(t[1], t[0])
	e2 := r3.Sub(t[2], t[0])
	return r3.Unit(r3.Cross(e1, e2))
}

// Format identifies a supported mesh file format.
type Format int

const (
	FormatSTL Format = iota
	FormatOBJ
)

func (f Format) String() string {
	switch f {
	case FormatSTL:
		return "stl"
	case FormatOBJ:
		return "obj"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatOf maps a file path to its mesh format by extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return FormatSTL, nil
	case ".obj":
		return FormatOBJ, nil
	}
	return 0, fmt.Errorf("meshio: unsupported mesh format %q", filepath.Ext(path))
}

// Load reads a mesh file, dispatching on the extension.
func Load(path string) (*mesh.Mesh, Format, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, 0, err
	}
	var m *mesh.Mesh
	switch format {
	case FormatSTL:
		m, err = LoadSTL(path)
	case FormatOBJ:
		m, err = LoadOBJ(path)
	}
	if err != nil {
		return nil, format, err
	}
	return m, format, nil
}

// ToMesh flattens a triangle soup into an indexed mesh with one
// vertex per triangle corner. No deduplication is performed.
func ToMesh(tris []Triangle) *mesh.Mesh {
	vertices := make([]r3.Vec, 0, 3*len(tris))
	triangles := make([][3]int, 0, len(tris))
	for _, t := range tris {
		n := len(vertices)
		vertices = append(vertices, t[0], t[1], t[2])
		triangles = append(triangles, [3]int{n, n + 1, n + 2})
	}
	return mesh.New(vertices, triangles)
}

// Soup expands an indexed mesh back into a triangle soup.
func Soup(m *mesh.Mesh) []Triangle {
	tris := make([]Triangle, m.NumTriangles())
	for i := range tris {
		tris[i] = Triangle(m.Triangle(i))
	}
	return tris
}
