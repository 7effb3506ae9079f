// Package sdfgen converts triangle meshes into dense signed distance
// grids. The pipeline welds near-coincident vertices, analyzes the
// mesh for watertightness, optionally fills holes, fits a sampling
// grid to the mesh bounds and hands the result to the distance-field
// kernel.
package sdfgen

import (
	"errors"
	"fmt"

	"github.com/volgrid/sdfgen/field"
	"github.com/volgrid/sdfgen/grid"
	"github.com/volgrid/sdfgen/mesh"
	"github.com/volgrid/sdfgen/meshio"
)

// FitMode selects how the sampling grid is derived from the mesh
// bounds.
type FitMode int

const (
	// FitCellSize derives dimensions from a caller-supplied cell
	// size, growing the mesh box by the padding.
	FitCellSize FitMode = iota
	// FitProportional derives the cell size from the X resolution
	// and the remaining dimensions from the mesh aspect ratio.
	FitProportional
	// FitManual uses the requested dimensions on every axis, with
	// the cell size set by the coarsest axis.
	FitManual
)

func (m FitMode) String() string {
	switch m {
	case FitCellSize:
		return "cell size"
	case FitProportional:
		return "proportional resolution"
	case FitManual:
		return "manual resolution"
	}
	return fmt.Sprintf("FitMode(%d)", int(m))
}

// DefaultWeldTolerance stitches the per-corner vertices of STL
// triangle soups without collapsing real geometry.
const DefaultWeldTolerance = 1e-5

// Options configure a pipeline run.
type Options struct {
	// FitMode and its parameters: Dx for FitCellSize, Nx for
	// FitProportional, Nx/Ny/Nz for FitManual.
	FitMode    FitMode
	Dx         float64
	Nx, Ny, Nz int
	// Padding cells around the mesh on every side, minimum 1.
	Padding int
	// WeldTolerance for the initial weld pass; <= 0 skips welding.
	WeldTolerance float64
	// Repair fills boundary loops when the analysis finds holes.
	Repair bool
	// ExactBand is forwarded to the kernel; see field.Options.
	ExactBand int
	Backend   field.Backend
	// Threads for the CPU kernel path, 0 for GOMAXPROCS.
	Threads int
}

// Result carries the outcome of every pipeline stage so callers can
// diagnose exactly which stage degraded.
type Result struct {
	Mesh   *mesh.Mesh
	Welded int
	// Report is the analysis after welding and, when repair ran,
	// after repair.
	Report mesh.Report
	// PreRepair is the analysis that triggered repair. Equal to
	// Report when no repair ran.
	PreRepair mesh.Report
	Repaired  mesh.RepairOutcome
	Spec      grid.Spec
	// Phi is the dense distance field, X fastest.
	Phi []float32
	// Backend the kernel actually ran on.
	Backend field.Backend
}

// Run executes the full pipeline on an already-loaded mesh. The mesh
// is mutated in place by welding and repair.
func Run(m *mesh.Mesh, opts Options) (*Result, error) {
	res, err := Prepare(m, opts)
	if err != nil {
		return nil, err
	}
	res.Backend = opts.Backend.Resolve()
	res.Phi, err = field.Compute(m, res.Spec, field.Options{
		ExactBand: opts.ExactBand,
		Backend:   opts.Backend,
		Threads:   opts.Threads,
	})
	if err != nil {
		return nil, fmt.Errorf("distance field kernel: %w", err)
	}
	return res, nil
}

// RunFile loads the mesh at path and executes the pipeline on it.
func RunFile(path string, opts Options) (*Result, error) {
	m, _, err := meshio.Load(path)
	if err != nil {
		return nil, err
	}
	return Run(m, opts)
}

// Prepare runs every stage up to but not including the kernel: weld,
// analyze, repair and grid fitting. Topological anomalies are never
// errors; they are reported in the Result. Invalid grid requests are
// errors and abort before any expensive work.
func Prepare(m *mesh.Mesh, opts Options) (*Result, error) {
	if m == nil || m.NumTriangles() == 0 {
		return nil, errors.New("sdfgen: mesh has no triangles")
	}
	res := &Result{Mesh: m}
	res.Welded = m.Weld(opts.WeldTolerance)
	res.Report = m.Analyze()
	res.PreRepair = res.Report
	if opts.Repair && !res.Report.Watertight {
		// Welding already ran; repair only triangulates.
		res.Repaired = m.Repair(0)
		res.Report = res.Repaired.After
	}

	// Hole filling reuses existing vertices so bounds cannot grow,
	// but welding replaces the vertex buffer; fit against the
	// current buffer.
	bounds := m.Bounds()
	var err error
	switch opts.FitMode {
	case FitCellSize:
		res.Spec, err = grid.FitCellSize(bounds, opts.Dx, opts.Padding)
	case FitProportional:
		res.Spec, err = grid.FitResolutionProportional(bounds, opts.Nx, opts.Padding)
	case FitManual:
		res.Spec, err = grid.FitResolutionManual(bounds, opts.Nx, opts.Ny, opts.Nz, opts.Padding)
	default:
		err = fmt.Errorf("sdfgen: unknown fit mode %d", opts.FitMode)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}
