package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/volgrid/sdfgen/internal/d3"
)

// Weld merges vertices closer than tol into a single vertex and
// remaps triangle indices onto the compacted vertex buffer. It
// returns the number of vertices removed. Triangles that collapse
// (two or more equal indices after remapping) are dropped. Winding
// of surviving triangles is preserved.
//
// Matching is first-found within the 3x3x3 spatial hash neighborhood
// of the vertex cell, not nearest-neighbor: when several existing
// vertices are within tol the scan-order winner takes the weld. This
// keeps the pass a single O(n) sweep.
//
// A tolerance <= 0 disables welding and returns 0.
func (m *Mesh) Weld(tol float64) int {
	if tol <= 0 {
		return 0
	}
	var (
		out    = make([]r3.Vec, 0, len(m.Vertices))
		remap  = make([]int, len(m.Vertices))
		hash   = make(map[[3]int][]int)
		tol2   = tol * tol
		welded = 0
	)
	for i, v := range m.Vertices {
		cell := d3.Cell(v, tol)
		found := -1
	scan:
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for dz := -1; dz <= 1; dz++ {
					key := [3]int{cell[0] + dx, cell[1] + dy, cell[2] + dz}
					for _, idx := range hash[key] {
						if r3.Norm2(r3.Sub(out[idx], v)) < tol2 {
							found = idx
							break scan
						}
					}
				}
			}
		}
		if found >= 0 {
			remap[i] = found
			welded++
			continue
		}
		idx := len(out)
		out = append(out, v)
		remap[i] = idx
		hash[cell] = append(hash[cell], idx)
	}

	kept := m.Triangles[:0]
	for _, t := range m.Triangles {
		t = [3]int{remap[t[0]], remap[t[1]], remap[t[2]]}
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			continue
		}
		kept = append(kept, t)
	}
	m.Vertices = out
	m.Triangles = kept
	return welded
}
