// Package sdfio serializes dense signed distance grids: a compact
// binary volume format for downstream tooling and VTK XML ImageData
// for visualization.
package sdfio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/volgrid/sdfgen/grid"
)

// Binary volume layout: a 36 byte header followed by nx*ny*nz
// float32 distances, X fastest, all little-endian.
var sdfMagic = [4]byte{'S', 'D', 'F', '1'}

const sdfVersion = 1

type sdfHeader struct {
	Magic      [4]byte
	Version    uint32
	Nx, Ny, Nz uint32
	Origin     [3]float32
	Dx         float32
}

// WriteSDF writes the grid and its distances to w.
func WriteSDF(w io.Writer, spec grid.Spec, phi []float32) error {
	if len(phi) != spec.NumCells() {
		return fmt.Errorf("sdfio: %d distances for a %dx%dx%d grid", len(phi), spec.Nx, spec.Ny, spec.Nz)
	}
	h := sdfHeader{
		Magic:   sdfMagic,
		Version: sdfVersion,
		Nx:      uint32(spec.Nx),
		Ny:      uint32(spec.Ny),
		Nz:      uint32(spec.Nz),
		Origin: [3]float32{
			float32(spec.Origin.X),
			float32(spec.Origin.Y),
			float32(spec.Origin.Z),
		},
		Dx: float32(spec.Dx),
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, phi)
}

// ReadSDF reads a binary volume written by WriteSDF.
func ReadSDF(r io.Reader) (grid.Spec, []float32, error) {
	var h sdfHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return grid.Spec{}, nil, fmt.Errorf("sdfio: reading header: %w", err)
	}
	if h.Magic != sdfMagic {
		return grid.Spec{}, nil, errors.New("sdfio: bad magic, not an SDF volume")
	}
	if h.Version != sdfVersion {
		return grid.Spec{}, nil, fmt.Errorf("sdfio: unsupported version %d", h.Version)
	}
	// The dimensions come straight off the wire. Bound them before the
	// allocation below so a corrupt header cannot overflow NumCells or
	// demand an absurd buffer.
	const maxDim = 1 << 21
	if h.Nx > maxDim || h.Ny > maxDim || h.Nz > maxDim {
		return grid.Spec{}, nil, fmt.Errorf("sdfio: implausible grid %dx%dx%d", h.Nx, h.Ny, h.Nz)
	}
	const maxCells = 1 << 31
	if n := uint64(h.Nx) * uint64(h.Ny) * uint64(h.Nz); n > maxCells {
		return grid.Spec{}, nil, fmt.Errorf("sdfio: grid of %d cells exceeds the %d cell limit", n, uint64(maxCells))
	}
	spec := grid.Spec{
		Origin: r3.Vec{
			X: float64(h.Origin[0]),
			Y: float64(h.Origin[1]),
			Z: float64(h.Origin[2]),
		},
		Dx: float64(h.Dx),
		Nx: int(h.Nx),
		Ny: int(h.Ny),
		Nz: int(h.Nz),
	}
	if spec.Dx <= 0 || spec.Nx <= 0 || spec.Ny <= 0 || spec.Nz <= 0 {
		return grid.Spec{}, nil, fmt.Errorf("sdfio: degenerate grid %dx%dx%d dx=%g", spec.Nx, spec.Ny, spec.Nz, spec.Dx)
	}
	phi := make([]float32, spec.NumCells())
	if err := binary.Read(r, binary.LittleEndian, phi); err != nil {
		return grid.Spec{}, nil, fmt.Errorf("sdfio: reading %d distances: %w", len(phi), err)
	}
	return spec, phi, nil
}

// SaveSDF writes the binary volume to path.
func SaveSDF(path string, spec grid.Spec, phi []float32) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fp.Close()
	w := bufio.NewWriterSize(fp, 1<<20)
	if err := WriteSDF(w, spec, phi); err != nil {
		return err
	}
	return w.Flush()
}

// LoadSDF reads the binary volume at path.
func LoadSDF(path string) (grid.Spec, []float32, error) {
	fp, err := os.Open(path)
	if err != nil {
		return grid.Spec{}, nil, err
	}
	defer fp.Close()
	return ReadSDF(bufio.NewReaderSize(fp, 1<<20))
}

// InsideCount returns how many cells are inside the surface
// (negative distance).
func InsideCount(phi []float32) int {
	n := 0
	for _, v := range phi {
		if v < 0 {
			n++
		}
	}
	return n
}

// FileSize returns the size in bytes of the binary volume for the
// given grid.
func FileSize(spec grid.Spec) int64 {
	const headerSize = 36
	return headerSize + int64(spec.NumCells())*4
}

// MinMax returns the smallest and largest distances in the field.
func MinMax(phi []float32) (lo, hi float32) {
	lo, hi = float32(math.MaxFloat32), float32(-math.MaxFloat32)
	for _, v := range phi {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
