package field

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/volgrid/sdfgen/internal/d3"
	"github.com/volgrid/sdfgen/mesh"
)

// SDF evaluates the signed distance to a triangle mesh surface at
// arbitrary points. The sign comes from angle weighted pseudonormals,
// so it is only meaningful for watertight input; the pipeline's
// analysis step is what makes that precondition checkable.
//
// Evaluate is safe for concurrent use.
type SDF struct {
	tree     kdtree.Tree
	set      *triangleSet
	vertices []vertex
	// edgeN maps a canonical (min,max) vertex pair to the accumulated
	// edge pseudnormal, each incident face contributing pi times its
	// normal.
	edgeN map[[2]int]r3.Vec
	bb    d3.Box
	// rmax is the largest centroid to vertex distance over all
	// triangles. A triangle whose surface lies within d of a query has
	// its centroid within d+rmax, so it bounds the centroid ball that
	// must be verified exactly.
	rmax float64
}

// vertex couples a position with its angle weighted pseudonormal: the
// sum over incident triangles of the face normal scaled by the
// opening angle at the vertex.
type vertex struct {
	V r3.Vec
	N r3.Vec
}

// NewSDF builds the signed distance evaluator for a mesh. The mesh is
// expected to be welded already: vertices are taken as-is, no
// deduplication happens here.
func NewSDF(m *mesh.Mesh) (*SDF, error) {
	if m.NumTriangles() == 0 {
		return nil, errors.New("field: mesh has no triangles")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	s := &SDF{
		set:      &triangleSet{triangles: make([]kdTriangle, m.NumTriangles())},
		vertices: make([]vertex, m.NumVertices()),
		edgeN:    make(map[[2]int]r3.Vec, 3*m.NumTriangles()/2),
		bb:       m.Bounds(),
	}
	for i, v := range m.Vertices {
		s.vertices[i].V = v
	}
	for i, idx := range m.Triangles {
		tri := m.Triangle(i)
		norm := r3.Unit(r3.Cross(r3.Sub(tri[1], tri[0]), r3.Sub(tri[2], tri[0])))
		c := centroid(tri)
		s.set.triangles[i] = kdTriangle{
			C:        c,
			N:        r3.Scale(2*math.Pi, norm),
			Vertices: idx,
			T:        newFrame(tri),
			idx:      i,
			s:        s,
		}
		for _, v := range tri {
			s.rmax = math.Max(s.rmax, r3.Norm(r3.Sub(v, c)))
		}
		for j := range idx {
			// Opening angle at vertex j weights the face normal.
			s1 := r3.Sub(tri[j], tri[(j+1)%3])
			s2 := r3.Sub(tri[j], tri[(j+2)%3])
			alpha := math.Acos(r3.Cos(s1, s2))
			s.vertices[idx[j]].N = r3.Add(s.vertices[idx[j]].N, r3.Scale(alpha, norm))

			key := edgeKey(idx[j], idx[(j+1)%3])
			s.edgeN[key] = r3.Add(s.edgeN[key], r3.Scale(math.Pi, norm))
		}
	}
	s.tree = *kdtree.New(s.set, true)
	return s, nil
}

// Evaluate returns the signed distance from q to the mesh surface,
// negative inside.
//
// The tree is queried in two phases. Nearest finds the triangle with
// the nearest centroid, which bounds the surface distance from above
// but need not be the nearest surface. Every triangle whose surface
// could beat that bound has its centroid within bound+rmax of q, so
// that ball is gathered and verified triangle by triangle. Ties break
// toward the lower mesh index, keeping results independent of tree
// shape.
func (s *SDF) Evaluate(q r3.Vec) float64 {
	probe := kdTriangle{C: q}
	nearest, _ := s.tree.Nearest(&probe)
	best := nearest.(*kdTriangle)
	bestDist := best.distTo(q)

	reach := bestDist + s.rmax
	keep := kdtree.NewDistKeeper(reach * reach)
	s.tree.NearestSet(keep, &probe)
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		t := c.Comparable.(*kdTriangle)
		d := t.distTo(q)
		if d < bestDist || (d == bestDist && t.idx < best.idx) {
			best, bestDist = t, d
		}
	}
	return best.signedTo(q)
}

// Bounds returns the mesh bounding box.
func (s *SDF) Bounds() d3.Box { return s.bb }

func centroid(t [3]r3.Vec) r3.Vec {
	return r3.Scale(1./3., r3.Add(r3.Add(t[0], t[1]), t[2]))
}
