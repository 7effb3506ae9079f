// Package field computes dense signed distance grids from triangle
// meshes. Distances come from exact closest-triangle queries against
// a kd tree in a band around the surface; cells beyond the band are
// filled by an outward sweep that extends the band values.
package field

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/volgrid/sdfgen/grid"
	"github.com/volgrid/sdfgen/internal/d3"
	"github.com/volgrid/sdfgen/internal/parallel"
	"github.com/volgrid/sdfgen/mesh"
)

// Backend selects the execution strategy of Compute.
type Backend int

const (
	// BackendAuto uses the GPU when one is available, else the CPU.
	BackendAuto Backend = iota
	BackendCPU
	BackendGPU
)

func (b Backend) String() string {
	switch b {
	case BackendAuto:
		return "auto"
	case BackendCPU:
		return "cpu"
	case BackendGPU:
		return "gpu"
	}
	return fmt.Sprintf("Backend(%d)", int(b))
}

// gpuEvaluate is installed by a GPU-enabled build of the kernel. The
// pure Go build has none, so GPU requests fall back to the CPU path.
var gpuEvaluate func(s *SDF, spec grid.Spec, opts Options) ([]float32, error)

// GPUAvailable reports whether a GPU evaluator is linked in.
func GPUAvailable() bool { return gpuEvaluate != nil }

// Resolve maps the requested backend to the one Compute will run.
// GPU selection is advisory: without a GPU evaluator both Auto and
// GPU resolve to CPU.
func (b Backend) Resolve() Backend {
	if b != BackendCPU && GPUAvailable() {
		return BackendGPU
	}
	return BackendCPU
}

// Options tune a Compute invocation.
type Options struct {
	// ExactBand is how many cells around the surface get exact
	// closest-triangle distances. Zero or negative computes every
	// cell exactly.
	ExactBand int
	Backend   Backend
	// Threads is the CPU worker count, 0 for GOMAXPROCS.
	Threads int
}

// Compute evaluates the signed distance at every cell center of the
// grid and returns the dense field, X fastest, so cell (i,j,k) is at
// index i + nx*(j + ny*k). The call is synchronous: it returns only
// once the whole grid is populated.
func Compute(m *mesh.Mesh, spec grid.Spec, opts Options) ([]float32, error) {
	if spec.Dx <= 0 || spec.Nx <= 0 || spec.Ny <= 0 || spec.Nz <= 0 {
		return nil, fmt.Errorf("field: invalid grid %dx%dx%d dx=%g", spec.Nx, spec.Ny, spec.Nz, spec.Dx)
	}
	s, err := NewSDF(m)
	if err != nil {
		return nil, err
	}
	if opts.Backend.Resolve() == BackendGPU {
		return gpuEvaluate(s, spec, opts)
	}
	return computeCPU(s, spec, opts)
}

func computeCPU(s *SDF, spec grid.Spec, opts Options) ([]float32, error) {
	phi := make([]float32, spec.NumCells())
	var exact []bool
	if opts.ExactBand > 0 {
		exact = markBand(s, spec, opts.ExactBand)
	}
	evaluateCells(s, spec, phi, exact, opts.Threads)
	if exact != nil {
		sweepOutward(spec, phi, exact)
	}
	return phi, nil
}

// markBand flags the cells within band cells of some triangle's
// bounding box. When the surface misses the grid entirely it returns
// nil, which makes the caller evaluate every cell exactly.
func markBand(s *SDF, spec grid.Spec, band int) []bool {
	mark := make([]bool, spec.NumCells())
	marked := 0
	for ti := range s.set.triangles {
		tri := s.set.triangles[ti].vertices()
		lo, hi := tri[0], tri[0]
		for _, v := range tri[1:] {
			lo = d3.MinElem(lo, v)
			hi = d3.MaxElem(hi, v)
		}
		i0, j0, k0 := cellOf(spec, lo, -band)
		i1, j1, k1 := cellOf(spec, hi, band)
		for k := max(k0, 0); k <= min(k1, spec.Nz-1); k++ {
			for j := max(j0, 0); j <= min(j1, spec.Ny-1); j++ {
				for i := max(i0, 0); i <= min(i1, spec.Nx-1); i++ {
					idx := i + spec.Nx*(j+spec.Ny*k)
					if !mark[idx] {
						mark[idx] = true
						marked++
					}
				}
			}
		}
	}
	if marked == 0 || marked == len(mark) {
		return nil
	}
	return mark
}

// evaluateCells computes exact signed distances, one z slab per task.
// A nil exact mask evaluates everything.
func evaluateCells(s *SDF, spec grid.Spec, phi []float32, exact []bool, threads int) {
	pool := parallel.New(threads)
	for k := 0; k < spec.Nz; k++ {
		k := k
		pool.Submit(func() {
			for j := 0; j < spec.Ny; j++ {
				for i := 0; i < spec.Nx; i++ {
					idx := i + spec.Nx*(j+spec.Ny*k)
					if exact != nil && !exact[idx] {
						continue
					}
					phi[idx] = float32(s.Evaluate(spec.CellCenter(i, j, k)))
				}
			}
		})
	}
	pool.Close()
}

// sweepOutward fills cells outside the exact band breadth-first from
// the band shell. Each cell takes the smallest neighbor magnitude
// plus one cell size and inherits that neighbor's sign, so far-field
// values stay monotone and sign-consistent with the exact region.
func sweepOutward(spec grid.Spec, phi []float32, known []bool) {
	nx, ny, nz := spec.Nx, spec.Ny, spec.Nz
	queued := make([]bool, len(phi))
	var queue []int

	neighbors := func(idx int, fn func(n int)) {
		i := idx % nx
		j := (idx / nx) % ny
		k := idx / (nx * ny)
		if i > 0 {
			fn(idx - 1)
		}
		if i < nx-1 {
			fn(idx + 1)
		}
		if j > 0 {
			fn(idx - nx)
		}
		if j < ny-1 {
			fn(idx + nx)
		}
		if k > 0 {
			fn(idx - nx*ny)
		}
		if k < nz-1 {
			fn(idx + nx*ny)
		}
	}

	for idx := range known {
		if !known[idx] {
			continue
		}
		neighbors(idx, func(n int) {
			if !known[n] && !queued[n] {
				queued[n] = true
				queue = append(queue, n)
			}
		})
	}
	dx := float32(spec.Dx)
	for head := 0; head < len(queue); head++ {
		idx := queue[head]
		best := float32(math.MaxFloat32)
		sign := float32(1)
		neighbors(idx, func(n int) {
			if !known[n] {
				if !queued[n] {
					queued[n] = true
					queue = append(queue, n)
				}
				return
			}
			mag := phi[n]
			neg := mag < 0
			if neg {
				mag = -mag
			}
			if mag+dx < best {
				best = mag + dx
				if neg {
					sign = -1
				} else {
					sign = 1
				}
			}
		})
		phi[idx] = sign * best
		known[idx] = true
	}
}

func cellOf(spec grid.Spec, p r3.Vec, expand int) (i, j, k int) {
	i = int(math.Floor((p.X-spec.Origin.X)/spec.Dx)) + expand
	j = int(math.Floor((p.Y-spec.Origin.Y)/spec.Dx)) + expand
	k = int(math.Floor((p.Z-spec.Origin.Z)/spec.Dx)) + expand
	return i, j, k
}
