package field

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/volgrid/sdfgen/internal/d3"
)

// frame is the rigid transform that lays a triangle flat: the first
// edge on the X axis, the first vertex at the origin and the whole
// triangle in the XY plane. Its inverse is the transpose, so both
// directions are cheap.
type frame struct {
	x, y, z r3.Vec // rotation rows, orthonormal
	origin  r3.Vec
}

func newFrame(t [3]r3.Vec) frame {
	u2 := r3.Sub(t[1], t[0])
	u3 := r3.Sub(t[2], t[0])
	xc := r3.Unit(u2)
	yc := r3.Unit(r3.Sub(u3, r3.Scale(r3.Dot(xc, u3), xc)))
	return frame{
		x:      xc,
		y:      yc,
		z:      r3.Cross(xc, yc),
		origin: t[0],
	}
}

// to transforms a world point into the triangle's plane coordinates.
func (f frame) to(p r3.Vec) r3.Vec {
	d := r3.Sub(p, f.origin)
	return r3.Vec{X: r3.Dot(f.x, d), Y: r3.Dot(f.y, d), Z: r3.Dot(f.z, d)}
}

// from transforms triangle plane coordinates back into world space.
func (f frame) from(p r3.Vec) r3.Vec {
	v := r3.Add(r3.Scale(p.X, f.x), r3.Add(r3.Scale(p.Y, f.y), r3.Scale(p.Z, f.z)))
	return r3.Add(f.origin, v)
}

// kdTriangle is a mesh triangle stored in the kd tree, compared and
// partitioned by centroid. A kdTriangle with only its centroid set
// acts as a point query probe.
type kdTriangle struct {
	C        r3.Vec // centroid
	N        r3.Vec // pseudo face normal, scaled by 2*pi
	Vertices [3]int
	T        frame
	idx      int  // position in the source mesh, stable across tree builds
	s        *SDF // back reference for vertex positions and normals
}

func (t *kdTriangle) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(*kdTriangle)
	switch d {
	case 0:
		return t.C.X - q.C.X
	case 1:
		return t.C.Y - q.C.Y
	case 2:
		return t.C.Z - q.C.Z
	}
	panic("unreachable")
}

func (t *kdTriangle) Dims() int { return 3 }

// Distance returns the squared distance between centroids. The tree
// prunes subtrees by comparing this metric against centroid plane
// offsets, which is only sound for a plain point metric. Exact
// surface distances therefore never flow through the tree; Evaluate
// verifies a centroid neighborhood with distTo instead.
func (t *kdTriangle) Distance(c kdtree.Comparable) float64 {
	q := c.(*kdTriangle)
	return r3.Norm2(r3.Sub(t.C, q.C))
}

// distTo returns the unsigned distance from p to the triangle surface.
func (t *kdTriangle) distTo(p r3.Vec) float64 {
	closest, _ := t.closestTo(p)
	return r3.Norm(r3.Sub(p, closest))
}

// closestTo returns the closest point of the triangle to p and the
// feature it lies on. It carries no state, so concurrent queries
// against a shared tree are safe.
func (t *kdTriangle) closestTo(p r3.Vec) (r3.Vec, triangleFeature) {
	pxy := t.T.to(p)
	tri := t.vertices()
	var t2 [3]r2.Vec
	for i := range tri {
		v := t.T.to(tri[i])
		t2[i] = r2.Vec{X: v.X, Y: v.Y}
	}
	on2, feat := closestOnTriangle2(r2.Vec{X: pxy.X, Y: pxy.Y}, t2)
	return t.T.from(r3.Vec{X: on2.X, Y: on2.Y}), feat
}

// signedTo returns the distance from p to the triangle with the sign
// taken from the angle weighted pseudonormal of the closest feature:
// negative inside the surface, positive outside.
func (t *kdTriangle) signedTo(p r3.Vec) float64 {
	closest, feat := t.closestTo(p)
	dist := r3.Norm(r3.Sub(p, closest))
	var side float64
	switch {
	case feat <= featureV2:
		vert := t.s.vertices[t.Vertices[feat]]
		side = r3.Dot(vert.N, r3.Sub(p, vert.V))
	case feat <= featureE2:
		first := int(feat - featureE0)
		key := edgeKey(t.Vertices[first], t.Vertices[(first+1)%3])
		side = r3.Dot(t.s.edgeN[key], r3.Sub(p, closest))
	default:
		side = r3.Dot(t.N, r3.Sub(p, closest))
	}
	if side < 0 {
		return -dist
	}
	return dist
}

func (t *kdTriangle) vertices() [3]r3.Vec {
	return [3]r3.Vec{
		t.s.vertices[t.Vertices[0]].V,
		t.s.vertices[t.Vertices[1]].V,
		t.s.vertices[t.Vertices[2]].V,
	}
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// triangleSet adapts the triangle slice to kdtree.Interface.
type triangleSet struct {
	triangles []kdTriangle
}

func (s *triangleSet) Index(i int) kdtree.Comparable { return &s.triangles[i] }

func (s *triangleSet) Len() int { return len(s.triangles) }

func (s *triangleSet) Pivot(d kdtree.Dim) int {
	p := kdPlane{dim: int(d), triangles: s.triangles}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (s *triangleSet) Slice(start, end int) kdtree.Interface {
	return &triangleSet{triangles: s.triangles[start:end]}
}

func (s *triangleSet) Bounds() *kdtree.Bounding {
	min := kdTriangle{C: d3.Elem(math.MaxFloat64)}
	max := kdTriangle{C: d3.Elem(-math.MaxFloat64)}
	for i := range s.triangles {
		min.C = d3.MinElem(min.C, s.triangles[i].C)
		max.C = d3.MaxElem(max.C, s.triangles[i].C)
	}
	return &kdtree.Bounding{Min: &min, Max: &max}
}

// kdPlane sorts triangles along one centroid dimension for pivoting.
type kdPlane struct {
	dim       int
	triangles []kdTriangle
}

func (p kdPlane) Less(i, j int) bool {
	return p.triangles[i].Compare(&p.triangles[j], kdtree.Dim(p.dim)) < 0
}

func (p kdPlane) Swap(i, j int) {
	p.triangles[i], p.triangles[j] = p.triangles[j], p.triangles[i]
}

func (p kdPlane) Len() int { return len(p.triangles) }

func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.triangles = p.triangles[start:end]
	return p
}
