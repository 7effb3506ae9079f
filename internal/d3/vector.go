package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// R3 vector element-wise helpers shared by the mesh, grid and field
// packages.

// Elem returns a vector with all components set to sides.
func Elem(sides float64) r3.Vec {
	return r3.Vec{
		X: sides,
		Y: sides,
		Z: sides,
	}
}

// MinElem return a vector with the minimum components of two vectors.
func MinElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

// MaxElem return a vector with the maximum components of two vectors.
func MaxElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}

// Cell returns the integer cell coordinate of v on a uniform lattice
// with the given cell size. Used by the vertex welder's spatial hash.
func Cell(v r3.Vec, size float64) [3]int {
	inv := 1 / size
	return [3]int{
		int(math.Floor(v.X * inv)),
		int(math.Floor(v.Y * inv)),
		int(math.Floor(v.Z * inv)),
	}
}
