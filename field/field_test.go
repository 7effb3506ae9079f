package field_test

import (
	"math"
	"sync"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/volgrid/sdfgen/field"
	"github.com/volgrid/sdfgen/grid"
	"github.com/volgrid/sdfgen/mesh"
)

// cube returns a unit cube mesh with outward winding.
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
			{0, 2, 1}, {0, 3, 2},
			{4, 5, 6}, {4, 6, 7},
			{0, 1, 5}, {0, 5, 4},
			{3, 7, 6}, {3, 6, 2},
			{0, 4, 7}, {0, 7, 3},
			{1, 2, 6}, {1, 6, 5},
		},
	)
}

// boxDistance is the analytic signed distance to the unit cube,
// negative inside.
func boxDistance(p r3.Vec) float64 {
	q := r3.Vec{
		X: math.Abs(p.X-0.5) - 0.5,
		Y: math.Abs(p.Y-0.5) - 0.5,
		Z: math.Abs(p.Z-0.5) - 0.5,
	}
	outside := r3.Norm(r3.Vec{
		X: math.Max(q.X, 0),
		Y: math.Max(q.Y, 0),
		Z: math.Max(q.Z, 0),
	})
	inside := math.Min(math.Max(q.X, math.Max(q.Y, q.Z)), 0)
	return outside + inside
}

func TestEvaluateCube(t *testing.T) {
	s, err := field.NewSDF(cube())
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		p    r3.Vec
		want float64
	}{
		{r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, -0.5},            // center
		{r3.Vec{X: 0.5, Y: 0.5, Z: 1.25}, 0.25},           // above a face
		{r3.Vec{X: 0.5, Y: 0.5, Z: -0.25}, 0.25},          // below a face
		{r3.Vec{X: 2, Y: 0.5, Z: 0.5}, 1},                 // beside a face
		{r3.Vec{X: 0.5, Y: 0.5, Z: 0.9}, -0.1},            // inside near a face
		{r3.Vec{X: 1.5, Y: 1.5, Z: 0.5}, math.Sqrt(0.5)},  // past an edge
		{r3.Vec{X: 1.5, Y: 1.5, Z: 1.5}, math.Sqrt(0.75)}, // past a corner
	}
	for _, tc := range cases {
		got := s.Evaluate(tc.p)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Evaluate(%v)=%g, want %g", tc.p, got, tc.want)
		}
	}
}

func TestEvaluateMatchesAnalytic(t *testing.T) {
	s, err := field.NewSDF(cube())
	if err != nil {
		t.Fatal(err)
	}
	// Sample a lattice around the cube, avoiding the surface itself
	// where the analytic sign is ambiguous.
	for x := -0.45; x < 1.5; x += 0.2 {
		for y := -0.45; y < 1.5; y += 0.2 {
			for z := -0.45; z < 1.5; z += 0.2 {
				p := r3.Vec{X: x, Y: y, Z: z}
				got := s.Evaluate(p)
				want := boxDistance(p)
				if math.Abs(got-want) > 1e-9 {
					t.Fatalf("Evaluate(%v)=%g, want %g", p, got, want)
				}
			}
		}
	}
}

// TestEvaluateRebuildConsistent guards the nearest triangle search
// against the shape of the kd tree. Queries near an edge between two
// faces have several plausible candidate triangles; pruning on
// centroids alone can hand back the wrong one depending on how the
// tree was partitioned, so the same probes must agree across many
// independently built evaluators.
func TestEvaluateRebuildConsistent(t *testing.T) {
	probes := []struct {
		p    r3.Vec
		want float64
	}{
		{r3.Vec{X: 0.85, Y: -0.05, Z: -0.05}, math.Sqrt(0.005)},
		{r3.Vec{X: -0.05, Y: 0.15, Z: 1.05}, math.Sqrt(0.005)},
		{r3.Vec{X: 0.85, Y: 0.05, Z: 0.05}, -0.05},
		{r3.Vec{X: 0.3, Y: 0.7, Z: 1.2}, 0.2},
	}
	for trial := 0; trial < 20; trial++ {
		s, err := field.NewSDF(cube())
		if err != nil {
			t.Fatal(err)
		}
		for _, tc := range probes {
			got := s.Evaluate(tc.p)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Fatalf("build %d: Evaluate(%v)=%g, want %g", trial, tc.p, got, tc.want)
			}
		}
	}
}

func TestEvaluateConcurrent(t *testing.T) {
	s, err := field.NewSDF(cube())
	if err != nil {
		t.Fatal(err)
	}
	probes := make([]r3.Vec, 64)
	serial := make([]float64, len(probes))
	for i := range probes {
		probes[i] = r3.Vec{
			X: -0.3 + 0.1*float64(i%8),
			Y: -0.3 + 0.2*float64(i/8),
			Z: 0.4,
		}
		serial[i] = s.Evaluate(probes[i])
	}
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, p := range probes {
				if got := s.Evaluate(p); got != serial[i] {
					t.Errorf("concurrent Evaluate(%v)=%g, serial got %g", p, got, serial[i])
				}
			}
		}()
	}
	wg.Wait()
}

func TestComputeCube(t *testing.T) {
	m := cube()
	spec, err := grid.FitCellSize(m.Bounds(), 0.1, 2)
	if err != nil {
		t.Fatal(err)
	}
	phi, err := field.Compute(m, spec, field.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(phi) != spec.NumCells() {
		t.Fatalf("len(phi)=%d, want %d", len(phi), spec.NumCells())
	}
	for k := 0; k < spec.Nz; k++ {
		for j := 0; j < spec.Ny; j++ {
			for i := 0; i < spec.Nx; i++ {
				idx := i + spec.Nx*(j+spec.Ny*k)
				want := boxDistance(spec.CellCenter(i, j, k))
				if math.Abs(float64(phi[idx])-want) > 1e-6 {
					t.Fatalf("cell (%d,%d,%d): phi=%g, want %g", i, j, k, phi[idx], want)
				}
			}
		}
	}
}

func TestComputeBandSweep(t *testing.T) {
	m := cube()
	spec, err := grid.FitCellSize(m.Bounds(), 0.07, 3)
	if err != nil {
		t.Fatal(err)
	}
	exact, err := field.Compute(m, spec, field.Options{ExactBand: 0})
	if err != nil {
		t.Fatal(err)
	}
	banded, err := field.Compute(m, spec, field.Options{ExactBand: 1})
	if err != nil {
		t.Fatal(err)
	}
	for idx := range exact {
		e, b := exact[idx], banded[idx]
		if (e < 0) != (b < 0) {
			t.Fatalf("cell %d: sign flip, exact %g banded %g", idx, e, b)
		}
		// The sweep overestimates but never undershoots the exact
		// magnitude.
		if math.Abs(float64(b)) < math.Abs(float64(e))-1e-5 {
			t.Fatalf("cell %d: banded %g undershoots exact %g", idx, b, e)
		}
	}
}

func TestComputeThreadsDeterministic(t *testing.T) {
	m := cube()
	spec, err := grid.FitCellSize(m.Bounds(), 0.1, 1)
	if err != nil {
		t.Fatal(err)
	}
	one, err := field.Compute(m, spec, field.Options{Threads: 1})
	if err != nil {
		t.Fatal(err)
	}
	many, err := field.Compute(m, spec, field.Options{Threads: 8})
	if err != nil {
		t.Fatal(err)
	}
	for i := range one {
		if one[i] != many[i] {
			t.Fatalf("cell %d: 1 thread %g, 8 threads %g", i, one[i], many[i])
		}
	}
}

func TestComputeInvalidGrid(t *testing.T) {
	m := cube()
	if _, err := field.Compute(m, grid.Spec{Dx: 0.1, Nx: 0, Ny: 4, Nz: 4}, field.Options{}); err == nil {
		t.Error("zero dimension accepted")
	}
	if _, err := field.Compute(m, grid.Spec{Dx: 0, Nx: 4, Ny: 4, Nz: 4}, field.Options{}); err == nil {
		t.Error("zero cell size accepted")
	}
	if _, err := field.Compute(mesh.New(nil, nil), grid.Spec{Dx: 0.1, Nx: 4, Ny: 4, Nz: 4}, field.Options{}); err == nil {
		t.Error("empty mesh accepted")
	}
}

func TestBackendResolve(t *testing.T) {
	if field.GPUAvailable() {
		t.Skip("GPU evaluator linked in")
	}
	if got := field.BackendAuto.Resolve(); got != field.BackendCPU {
		t.Errorf("auto resolved to %s, want cpu", got)
	}
	if got := field.BackendGPU.Resolve(); got != field.BackendCPU {
		t.Errorf("gpu resolved to %s, want cpu without an evaluator", got)
	}
	if got := field.BackendCPU.Resolve(); got != field.BackendCPU {
		t.Errorf("cpu resolved to %s", got)
	}
}

func BenchmarkEvaluate(b *testing.B) {
	s, err := field.NewSDF(cube())
	if err != nil {
		b.Fatal(err)
	}
	p := r3.Vec{X: 0.3, Y: 0.7, Z: 1.2}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Evaluate(p)
	}
}

// BenchmarkSDFXBox is the analytic baseline: sdfx evaluates a closed
// form box, no mesh involved, which bounds how fast Evaluate could
// ever be on the same shape.
func BenchmarkSDFXBox(b *testing.B) {
	box, err := sdf.Box3D(sdf.V3{X: 1, Y: 1, Z: 1}, 0)
	if err != nil {
		b.Fatal(err)
	}
	p := sdf.V3{X: 0.3, Y: 0.7, Z: 1.2}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		box.Evaluate(p)
	}
}
