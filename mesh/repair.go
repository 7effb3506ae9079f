package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// nearDegenerate rejects ear candidates whose adjacent edges are
// collinear to within this normal length.
const nearDegenerate = 1e-12

// RepairOutcome summarizes a Repair call.
type RepairOutcome struct {
	// Welded vertices removed by the pre-repair weld pass.
	Welded int
	// HolesFilled is the number of boundary loops triangulated.
	HolesFilled int
	// TrianglesAdded appended to the mesh by triangulation.
	TrianglesAdded int
	// NonManifold is true when the mesh had non-manifold edges before
	// repair. Hole filling still runs but is not expected to reach
	// watertightness over non-manifold topology.
	NonManifold bool
	// After is the analysis of the repaired mesh. Callers must check
	// After.Watertight: repair degrades to "still has holes" rather
	// than failing.
	After Report
}

// Repair attempts to close every boundary loop of the mesh by greedy
// ear triangulation, appending the new triangles in place. weldTol
// greater than zero runs a weld pass first; zero disables it.
//
// Each ear is the first ring candidate whose two adjacent edges are
// not collinear. There is no convexity or containment test, so the
// fill is only well shaped for simple near-planar loops; skewed holes
// may close with poor triangles but still close.
func (m *Mesh) Repair(weldTol float64) RepairOutcome {
	var out RepairOutcome
	if weldTol > 0 {
		out.Welded = m.Weld(weldTol)
	}
	topo := m.analyze()
	if topo.report.Watertight {
		out.After = topo.report
		return out
	}
	out.NonManifold = !topo.report.Manifold
	for _, loop := range topo.loops {
		tris := m.triangulateLoop(loop)
		m.Triangles = append(m.Triangles, tris...)
		out.TrianglesAdded += len(tris)
		out.HolesFilled++
	}
	out.After = m.Analyze()
	return out
}

// triangulateLoop clips ears off the loop's vertex ring until three
// vertices remain, then emits the final triangle.
func (m *Mesh) triangulateLoop(loop []int) [][3]int {
	if len(loop) < 3 {
		return nil
	}
	ring := make([]int, len(loop))
	copy(ring, loop)
	tris := make([][3]int, 0, len(ring)-2)
	for len(ring) > 3 {
		clipped := false
		for i := range ring {
			prev := ring[(i+len(ring)-1)%len(ring)]
			next := ring[(i+1)%len(ring)]
			v0, v1, v2 := m.Vertices[prev], m.Vertices[ring[i]], m.Vertices[next]
			n := r3.Cross(r3.Sub(v1, v0), r3.Sub(v2, v1))
			if r3.Norm(n) < nearDegenerate {
				continue
			}
			tris = append(tris, [3]int{prev, ring[i], next})
			ring = append(ring[:i], ring[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			// Every candidate is collinear. Clip the second vertex
			// blindly; the loop still shrinks so this terminates.
			tris = append(tris, [3]int{ring[0], ring[1], ring[2]})
			ring = append(ring[:1], ring[2:]...)
		}
	}
	tris = append(tris, [3]int{ring[0], ring[1], ring[2]})
	return tris
}
