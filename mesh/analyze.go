package mesh

import (
	"sort"
)

// Report is a snapshot of the mesh's topological health. It is
// recomputed from scratch on every Analyze call; nothing in it is
// cached on the mesh.
type Report struct {
	TotalEdges       int
	BoundaryEdges    int
	NonManifoldEdges int
	// NumHoles is the number of closed boundary loops.
	NumHoles int
	// Manifold is true when no edge borders more than two triangles.
	Manifold bool
	// Watertight is true when the mesh is manifold and has no
	// boundary edges. An empty mesh is vacuously watertight.
	Watertight bool
}

// topology is the detailed analysis shared by Analyze and Repair:
// the edge adjacency map plus the traced boundary loops.
type topology struct {
	report Report
	// edges maps a canonical (min,max) vertex pair to the triangles
	// incident to it.
	edges map[[2]int][]int
	loops [][]int
}

// Analyze classifies every edge of the mesh as boundary, manifold
// interior or non-manifold and traces boundary edges into closed
// loops. It never fails; topological anomalies are reported, not
// returned as errors.
func (m *Mesh) Analyze() Report {
	return m.analyze().report
}

func canonical(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func (m *Mesh) analyze() topology {
	topo := topology{edges: make(map[[2]int][]int, 3*len(m.Triangles)/2)}
	for i, t := range m.Triangles {
		topo.edges[canonical(t[0], t[1])] = append(topo.edges[canonical(t[0], t[1])], i)
		topo.edges[canonical(t[1], t[2])] = append(topo.edges[canonical(t[1], t[2])], i)
		topo.edges[canonical(t[2], t[0])] = append(topo.edges[canonical(t[2], t[0])], i)
	}
	topo.report.TotalEdges = len(topo.edges)

	// Boundary edges are collected and sorted so the adjacency lists
	// below are populated in a reproducible order. The loop walk
	// takes the first eligible neighbor, so this ordering is the
	// tie-break at non-manifold boundary junctions.
	var boundary [][2]int
	for e, tris := range topo.edges {
		switch {
		case len(tris) == 1:
			topo.report.BoundaryEdges++
			boundary = append(boundary, e)
		case len(tris) > 2:
			topo.report.NonManifoldEdges++
		}
	}
	sort.Slice(boundary, func(i, j int) bool {
		if boundary[i][0] != boundary[j][0] {
			return boundary[i][0] < boundary[j][0]
		}
		return boundary[i][1] < boundary[j][1]
	})

	adj := make(map[int][]int, 2*len(boundary))
	var seeds []int
	for _, e := range boundary {
		if _, ok := adj[e[0]]; !ok {
			seeds = append(seeds, e[0])
		}
		if _, ok := adj[e[1]]; !ok {
			seeds = append(seeds, e[1])
		}
		adj[e[0]] = append(adj[e[0]], e[1])
		adj[e[1]] = append(adj[e[1]], e[0])
	}

	sort.Ints(seeds)

	visited := make(map[int]bool, len(adj))
	for _, seed := range seeds {
		if visited[seed] {
			continue
		}
		loop := traceLoop(seed, adj, visited)
		if len(loop) >= 3 {
			topo.loops = append(topo.loops, loop)
		}
	}

	topo.report.NumHoles = len(topo.loops)
	topo.report.Manifold = topo.report.NonManifoldEdges == 0
	topo.report.Watertight = topo.report.BoundaryEdges == 0 && topo.report.Manifold
	return topo
}

// traceLoop walks the boundary-edge subgraph from seed, moving to the
// first unvisited neighbor that is not the vertex it just came from,
// until the walk closes on the seed or runs out of candidates.
func traceLoop(seed int, adj map[int][]int, visited map[int]bool) []int {
	var loop []int
	current, prev := seed, -1
	for {
		loop = append(loop, current)
		visited[current] = true
		next := -1
		for _, n := range adj[current] {
			if n != prev && (!visited[n] || n == seed) {
				next = n
				break
			}
		}
		if next < 0 || next == seed {
			return loop
		}
		prev, current = current, next
	}
}
