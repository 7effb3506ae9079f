package mesh_test

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/volgrid/sdfgen/mesh"
)

// cube returns an indexed unit cube with outward winding: 8 vertices,
// 12 triangles, 18 edges.
func cube() *mesh.Mesh {
	return mesh.New(
		[]r3.Vec{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 1, Y: 1, Z: 0},
			{X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1},
			{X: 1, Y: 0, Z: 1},
			{X: 1, Y: 1, Z: 1},
			{X: 0, Y: 1, Z: 1},
		},
		[][3]int{
			{0, 2, 1}, {0, 3, 2}, // bottom
			{4, 5, 6}, {4, 6, 7}, // top
			{0, 1, 5}, {0, 5, 4}, // front
			{3, 7, 6}, {3, 6, 2}, // back
			{0, 4, 7}, {0, 7, 3}, // left
			{1, 2, 6}, {1, 6, 5}, // right
		},
	)
}

// soup expands a mesh into a triangle soup with three fresh vertices
// per triangle, the shape STL loading produces.
func soup(m *mesh.Mesh) *mesh.Mesh {
	var (
		verts []r3.Vec
		tris  [][3]int
	)
	for i := range m.Triangles {
		t := m.Triangle(i)
		n := len(verts)
		verts = append(verts, t[0], t[1], t[2])
		tris = append(tris, [3]int{n, n + 1, n + 2})
	}
	return mesh.New(verts, tris)
}

func TestAnalyzeCube(t *testing.T) {
	r := cube().Analyze()
	if r.TotalEdges != 18 {
		t.Errorf("TotalEdges=%d, want 18", r.TotalEdges)
	}
	if r.BoundaryEdges != 0 || r.NonManifoldEdges != 0 || r.NumHoles != 0 {
		t.Errorf("boundary=%d nonmanifold=%d holes=%d, want all 0",
			r.BoundaryEdges, r.NonManifoldEdges, r.NumHoles)
	}
	if !r.Manifold || !r.Watertight {
		t.Errorf("manifold=%v watertight=%v, want both true", r.Manifold, r.Watertight)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	r := mesh.New(nil, nil).Analyze()
	if !r.Watertight || r.TotalEdges != 0 {
		t.Errorf("empty mesh: watertight=%v edges=%d", r.Watertight, r.TotalEdges)
	}
}

func TestAnalyzeSingleTriangle(t *testing.T) {
	m := mesh.New(
		[]r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}},
		[][3]int{{0, 1, 2}},
	)
	r := m.Analyze()
	if r.TotalEdges != 3 || r.BoundaryEdges != 3 {
		t.Errorf("edges=%d boundary=%d, want 3 and 3", r.TotalEdges, r.BoundaryEdges)
	}
	if r.NumHoles != 1 {
		t.Errorf("holes=%d, want 1", r.NumHoles)
	}
	if r.Watertight {
		t.Error("open triangle reported watertight")
	}
	if !r.Manifold {
		t.Error("open triangle reported non-manifold")
	}
}

func TestAnalyzeMissingTriangle(t *testing.T) {
	m := cube()
	m.Triangles = m.Triangles[1:] // drop one bottom triangle
	r := m.Analyze()
	if r.BoundaryEdges != 3 {
		t.Errorf("boundary=%d, want 3", r.BoundaryEdges)
	}
	if r.NumHoles != 1 {
		t.Errorf("holes=%d, want 1", r.NumHoles)
	}
	if r.Watertight {
		t.Error("holed cube reported watertight")
	}
}

func TestAnalyzeMissingFace(t *testing.T) {
	m := cube()
	m.Triangles = m.Triangles[2:] // drop the whole bottom face
	r := m.Analyze()
	if r.TotalEdges != 17 {
		t.Errorf("TotalEdges=%d, want 17", r.TotalEdges)
	}
	if r.BoundaryEdges != 4 || r.NumHoles != 1 {
		t.Errorf("boundary=%d holes=%d, want 4 and 1", r.BoundaryEdges, r.NumHoles)
	}
}

func TestAnalyzeNonManifoldEdge(t *testing.T) {
	m := cube()
	// A fin sharing the 0-1 edge makes it border three triangles.
	m.Vertices = append(m.Vertices, r3.Vec{X: 0.5, Y: -1, Z: 0.5})
	m.Triangles = append(m.Triangles, [3]int{0, 1, 8})
	r := m.Analyze()
	if r.NonManifoldEdges != 1 {
		t.Errorf("nonmanifold=%d, want 1", r.NonManifoldEdges)
	}
	if r.Manifold || r.Watertight {
		t.Errorf("manifold=%v watertight=%v, want both false", r.Manifold, r.Watertight)
	}
}

func TestWeldSoupCube(t *testing.T) {
	m := soup(cube())
	if m.NumVertices() != 36 {
		t.Fatalf("soup vertices=%d, want 36", m.NumVertices())
	}
	welded := m.Weld(1e-5)
	if welded != 28 {
		t.Errorf("welded=%d, want 28", welded)
	}
	if m.NumVertices() != 8 {
		t.Errorf("vertices=%d, want 8", m.NumVertices())
	}
	if m.NumTriangles() != 12 {
		t.Errorf("triangles=%d, want 12", m.NumTriangles())
	}
	r := m.Analyze()
	if !r.Watertight {
		t.Error("welded cube not watertight")
	}
}

func TestWeldZeroToleranceNoop(t *testing.T) {
	m := soup(cube())
	if welded := m.Weld(0); welded != 0 {
		t.Errorf("welded=%d with zero tolerance, want 0", welded)
	}
	if m.NumVertices() != 36 {
		t.Errorf("vertices=%d, want 36 untouched", m.NumVertices())
	}
}

func TestWeldDropsDegenerateTriangles(t *testing.T) {
	// Two of the three corners are within tolerance, so the triangle
	// collapses and must be removed.
	m := mesh.New(
		[]r3.Vec{
			{X: 0, Y: 0, Z: 0},
			{X: 1e-7, Y: 0, Z: 0},
			{X: 1, Y: 1, Z: 0},
		},
		[][3]int{{0, 1, 2}},
	)
	m.Weld(1e-5)
	if m.NumTriangles() != 0 {
		t.Errorf("triangles=%d, want 0 after collapse", m.NumTriangles())
	}
}

func TestWeldPreservesSeparatedVertices(t *testing.T) {
	m := cube()
	if welded := m.Weld(1e-5); welded != 0 {
		t.Errorf("welded=%d on clean cube, want 0", welded)
	}
}

func TestRepairQuadHole(t *testing.T) {
	m := cube()
	m.Triangles = m.Triangles[2:] // open the bottom face
	out := m.Repair(0)
	if out.HolesFilled != 1 {
		t.Errorf("holes filled=%d, want 1", out.HolesFilled)
	}
	if out.TrianglesAdded != 2 {
		t.Errorf("triangles added=%d, want 2", out.TrianglesAdded)
	}
	if !out.After.Watertight {
		t.Error("repaired cube not watertight")
	}
	if m.NumVertices() != 8 {
		t.Errorf("vertices=%d, repair must reuse existing vertices", m.NumVertices())
	}
}

func TestRepairTriangularHole(t *testing.T) {
	m := cube()
	m.Triangles = m.Triangles[1:]
	out := m.Repair(0)
	if out.HolesFilled != 1 || out.TrianglesAdded != 1 {
		t.Errorf("filled=%d added=%d, want 1 and 1", out.HolesFilled, out.TrianglesAdded)
	}
	if !out.After.Watertight {
		t.Error("repaired cube not watertight")
	}
}

func TestRepairWatertightNoop(t *testing.T) {
	m := cube()
	before := m.NumTriangles()
	out := m.Repair(0)
	if out.HolesFilled != 0 || out.TrianglesAdded != 0 {
		t.Errorf("repair touched a watertight mesh: %+v", out)
	}
	if m.NumTriangles() != before {
		t.Errorf("triangles=%d, want %d", m.NumTriangles(), before)
	}
}

func TestRepairWithWeld(t *testing.T) {
	m := soup(cube())
	m.Triangles = m.Triangles[1:]
	out := m.Repair(1e-5)
	if out.Welded == 0 {
		t.Error("weld pass did not run")
	}
	if !out.After.Watertight {
		t.Error("repaired soup not watertight")
	}
}

func TestBounds(t *testing.T) {
	b := cube().Bounds()
	if b.Min != (r3.Vec{}) || b.Max != (r3.Vec{X: 1, Y: 1, Z: 1}) {
		t.Errorf("bounds=%v %v, want unit box", b.Min, b.Max)
	}
}

func TestNormalOutward(t *testing.T) {
	m := cube()
	for i := range m.Triangles {
		n := m.Normal(i)
		c := m.Triangle(i)
		centroid := r3.Scale(1.0/3.0, r3.Add(c[0], r3.Add(c[1], c[2])))
		out := r3.Sub(centroid, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5})
		if r3.Dot(n, out) <= 0 {
			t.Errorf("triangle %d normal %v points inward", i, n)
		}
	}
}

func TestValidate(t *testing.T) {
	m := cube()
	if err := m.Validate(); err != nil {
		t.Fatalf("valid cube rejected: %v", err)
	}
	m.Triangles = append(m.Triangles, [3]int{0, 1, 99})
	if err := m.Validate(); err == nil {
		t.Fatal("out of range index accepted")
	}
}
