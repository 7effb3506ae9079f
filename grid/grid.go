// Package grid reconciles a user resolution or cell-size request with
// a mesh bounding box, producing the origin, cell size and dimensions
// the distance-field kernel samples over.
package grid

import (
	"fmt"
	"math"

	"github.com/volgrid/sdfgen/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Spec is a fitted sampling grid: Nx*Ny*Nz cells of uniform size Dx
// anchored at Origin. The box [Origin, Origin+(Nx,Ny,Nz)*Dx] contains
// the padded mesh bounds.
type Spec struct {
	Origin     r3.Vec
	Dx         float64
	Nx, Ny, Nz int
}

// NumCells returns the total cell count of the grid.
func (s Spec) NumCells() int { return s.Nx * s.Ny * s.Nz }

// Bounds returns the box spanned by the grid.
func (s Spec) Bounds() d3.Box {
	ext := r3.Vec{X: float64(s.Nx), Y: float64(s.Ny), Z: float64(s.Nz)}
	return d3.Box{
		Min: s.Origin,
		Max: r3.Add(s.Origin, r3.Scale(s.Dx, ext)),
	}
}

// CellCenter returns the world position of the center of cell (i,j,k).
func (s Spec) CellCenter(i, j, k int) r3.Vec {
	return r3.Add(s.Origin, r3.Vec{
		X: (float64(i) + 0.5) * s.Dx,
		Y: (float64(j) + 0.5) * s.Dx,
		Z: (float64(k) + 0.5) * s.Dx,
	})
}

func (s Spec) validate() error {
	if s.Dx <= 0 || math.IsNaN(s.Dx) || math.IsInf(s.Dx, 0) {
		return fmt.Errorf("grid: computed cell size %g is not positive and finite", s.Dx)
	}
	if s.Nx <= 0 || s.Ny <= 0 || s.Nz <= 0 {
		return fmt.Errorf("grid: dimensions %dx%dx%d must be positive", s.Nx, s.Ny, s.Nz)
	}
	return nil
}

// FitCellSize fits a grid of the given cell size around bounds. The
// box is grown by padding cells of size dx on every side and the
// dimensions derived by rounding the grown box up to whole cells.
// Padding below 1 is clamped up to 1.
func FitCellSize(bounds d3.Box, dx float64, padding int) (Spec, error) {
	if dx <= 0 {
		return Spec{}, fmt.Errorf("grid: cell size %g must be positive", dx)
	}
	if bounds.Empty() {
		return Spec{}, fmt.Errorf("grid: empty mesh bounds")
	}
	padding = clampPadding(padding)
	pad := float64(padding) * dx
	grown := bounds.Enlarge(d3.Elem(2 * pad))
	size := grown.Size()
	s := Spec{
		Origin: grown.Min,
		Dx:     dx,
		Nx:     cellsUp(size.X, dx),
		Ny:     cellsUp(size.Y, dx),
		Nz:     cellsUp(size.Z, dx),
	}
	return s, s.validate()
}

// cellsUp returns the number of cells of size dx covering extent,
// rounding up. An extent within relative 1e-9 of a whole multiple of
// dx counts as exact, so accumulated floating point error in the
// padded extent cannot inflate the grid by a cell.
func cellsUp(extent, dx float64) int {
	n := extent / dx
	if r := math.Round(n); math.Abs(n-r) <= 1e-9*math.Max(1, n) {
		return int(r)
	}
	return int(math.Ceil(n))
}

// FitResolutionProportional fits a grid with nx cells along X. The
// cell size is chosen so the mesh spans nx minus two padding bands,
// and the Y and Z dimensions are derived from the mesh aspect ratio.
// The grid is centered on the mesh, so the resulting bounds bound the
// requested grid, not the mesh.
func FitResolutionProportional(bounds d3.Box, nx, padding int) (Spec, error) {
	if nx <= 0 {
		return Spec{}, fmt.Errorf("grid: resolution %d must be a positive integer", nx)
	}
	if bounds.Empty() {
		return Spec{}, fmt.Errorf("grid: empty mesh bounds")
	}
	padding = clampPadding(padding)
	if nx <= 2*padding {
		return Spec{}, fmt.Errorf("grid: resolution %d leaves no cells after 2x%d padding", nx, padding)
	}
	size := bounds.Size()
	dx := size.X / float64(nx-2*padding)
	ny := int(size.Y/dx+0.5) + 2*padding
	nz := int(size.Z/dx+0.5) + 2*padding
	return center(bounds, dx, nx, ny, nz)
}

// FitResolutionManual fits a grid with the exact requested
// dimensions. The cell size is the maximum of the three per-axis fits
// so the mesh fits inside every axis; anisotropic requests therefore
// resolve to the coarsest axis. The grid is centered on the mesh.
func FitResolutionManual(bounds d3.Box, nx, ny, nz, padding int) (Spec, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return Spec{}, fmt.Errorf("grid: dimensions %dx%dx%d must be positive integers", nx, ny, nz)
	}
	if bounds.Empty() {
		return Spec{}, fmt.Errorf("grid: empty mesh bounds")
	}
	padding = clampPadding(padding)
	if nx <= 2*padding || ny <= 2*padding || nz <= 2*padding {
		return Spec{}, fmt.Errorf("grid: dimensions %dx%dx%d leave no cells after 2x%d padding", nx, ny, nz, padding)
	}
	size := bounds.Size()
	dx := math.Max(size.X/float64(nx-2*padding),
		math.Max(size.Y/float64(ny-2*padding), size.Z/float64(nz-2*padding)))
	return center(bounds, dx, nx, ny, nz)
}

// center recomputes the origin so the grid extent is centered on the
// mesh center.
func center(bounds d3.Box, dx float64, nx, ny, nz int) (Spec, error) {
	ext := r3.Vec{X: float64(nx) * dx, Y: float64(ny) * dx, Z: float64(nz) * dx}
	s := Spec{
		Origin: r3.Sub(bounds.Center(), r3.Scale(0.5, ext)),
		Dx:     dx,
		Nx:     nx,
		Ny:     ny,
		Nz:     nz,
	}
	return s, s.validate()
}

func clampPadding(p int) int {
	if p < 1 {
		return 1
	}
	return p
}
