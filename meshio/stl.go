package meshio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/volgrid/sdfgen/mesh"
)

// LoadSTL reads an STL file, ASCII or binary, into a mesh with one
// vertex per triangle corner. Normal mismatches between the stored
// and computed triangle normals are tolerated: models from many
// exporters carry stale normals.
func LoadSTL(path string) (*mesh.Mesh, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	tris, err := ReadSTL(fp)
	if err != nil && !errors.Is(err, errNormalMismatch) {
		return nil, fmt.Errorf("meshio: reading %s: %w", path, err)
	}
	return ToMesh(tris), nil
}

// SaveSTL writes the mesh to path in binary STL format.
func SaveSTL(path string, m *mesh.Mesh) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fp.Close()
	w := bufio.NewWriter(fp)
	if err := WriteSTL(w, Soup(m)); err != nil {
		return err
	}
	return w.Flush()
}

// ReadSTL reads triangles from STL data, auto-detecting the ASCII
// format by its "solid" prefix. A returned errNormalMismatch wraps a
// successful read whose stored normals disagree with the vertices.
func ReadSTL(r io.Reader) ([]Triangle, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(5)
	if err != nil {
		return nil, fmt.Errorf("reading STL header: %w", err)
	}
	if string(head) == "solid" {
		return readASCIISTL(br)
	}
	return readBinarySTL(br)
}

// WriteSTL writes triangles to w in binary STL format.
func WriteSTL(w io.Writer, tris []Triangle) error {
	if len(tris) == 0 {
		return errors.New("empty triangle slice")
	}
	header := stlHeader{Count: uint32(len(tris))}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	var d stlTriangle
	var b [stlTriangleSize]byte
	for _, t := range tris {
		n := t.Normal()
		d.Normal = f32From3(n)
		d.Vertex1 = f32From3(t[0])
		d.Vertex2 = f32From3(t[1])
		d.Vertex3 = f32From3(t[2])
		d.put(b[:])
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}
	return nil
}

// stlHeader defines the binary STL file header.
type stlHeader struct {
	_     [80]uint8
	Count uint32
}

const stlTriangleSize = 50

// stlTriangle defines the triangle record within a binary STL file.
type stlTriangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
	_       uint16 // attribute byte count
}

var errNormalMismatch = errors.New("triangle normal not approximately equal to normal calculated from vertices")

func readBinarySTL(r io.Reader) (output []Triangle, readErr error) {
	var header stlHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errors.New("encountered EOF while reading STL header")
		}
		return nil, fmt.Errorf("STL header read failed: %w", err)
	}
	if header.Count == 0 {
		return nil, errors.New("STL header indicates 0 triangles present")
	}
	var (
		buf        [stlTriangleSize]byte
		d          stlTriangle
		i          int
		mismatches int
	)
	defer func() {
		if readErr != nil && !errors.Is(readErr, errNormalMismatch) {
			readErr = fmt.Errorf("%d/%d STL triangles read: %w", i+1, header.Count, readErr)
		}
	}()
	for i = 0; i < int(header.Count); i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		d.get(buf[:])
		if err := d.validate(); err != nil {
			if !errors.Is(err, errNormalMismatch) {
				return nil, err
			}
			mismatches++
			if mismatches > 10_000 {
				// May still be a valid model, return what was read.
				return output, fmt.Errorf("too many normal vector mismatches (%d)", mismatches)
			}
			readErr = err
		}
		output = append(output, d.toTriangle())
	}
	return output, readErr
}

func readASCIISTL(r io.Reader) ([]Triangle, error) {
	scanner := bufio.NewScanner(r)
	var (
		tris []Triangle
		tri  Triangle
		nv   int
	)
	for scanner.Scan() {
		fields := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "vertex":
			if len(fields) < 4 {
				return nil, fmt.Errorf("malformed STL vertex line %q", scanner.Text())
			}
			v, err := parse3(fields[1:4])
			if err != nil {
				return nil, err
			}
			if nv < 3 {
				tri[nv] = v
			}
			nv++
		case "endfacet":
			if nv != 3 {
				return nil, fmt.Errorf("STL facet has %d vertices, want 3", nv)
			}
			tris = append(tris, tri)
			nv = 0
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(tris) == 0 {
		return nil, errors.New("ASCII STL contains no facets")
	}
	return tris, nil
}

func parse3(fields []string) (r3.Vec, error) {
	var v [3]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("parsing STL coordinate %q: %w", f, err)
		}
		v[i] = x
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}

func (t stlTriangle) put(b []byte) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to marshal stlTriangle")
	}
	put3F32(b, t.Normal)
	put3F32(b[12:], t.Vertex1)
	put3F32(b[24:], t.Vertex2)
	put3F32(b[36:], t.Vertex3)
	binary.LittleEndian.PutUint16(b[48:], 0)
}

func (t *stlTriangle) get(b []byte) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to unmarshal stlTriangle")
	}
	get3F32(b, &t.Normal)
	get3F32(b[12:], &t.Vertex1)
	get3F32(b[24:], &t.Vertex2)
	get3F32(b[36:], &t.Vertex3)
}

func put3F32(b []byte, f [3]float32) {
	_ = b[11] // early bounds check
	binary.LittleEndian.PutUint32(b, math.Float32bits(f[0]))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(f[1]))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(f[2]))
}

func get3F32(b []byte, f *[3]float32) {
	_ = b[11] // early bounds check
	f[0] = math.Float32frombits(binary.LittleEndian.Uint32(b))
	f[1] = math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
	f[2] = math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))
}

func (t stlTriangle) validate() error {
	const normTol = 5e-2
	if bad3F32(t.Normal) {
		return errors.New("inf/NaN STL triangle normal")
	}
	if bad3F32(t.Vertex1) || bad3F32(t.Vertex2) || bad3F32(t.Vertex3) {
		return errors.New("inf/NaN STL triangle vertex")
	}
	calc := f32From3(t.toTriangle().Normal())
	neg := [3]float32{-calc[0], -calc[1], -calc[2]}
	zero := [3]float32{}
	if t.Normal == zero {
		// Exporters writing zero normals delegate them to the reader.
		return nil
	}
	if !equalWithin3F32(calc, t.Normal, normTol) && !equalWithin3F32(neg, t.Normal, normTol) {
		return errNormalMismatch
	}
	return nil
}

func bad3F32(f [3]float32) bool {
	return math32.IsNaN(f[0]) || math32.IsInf(f[0], 0) ||
		math32.IsNaN(f[1]) || math32.IsInf(f[1], 0) ||
		math32.IsNaN(f[2]) || math32.IsInf(f[2], 0)
}

func equalWithin3F32(a, b [3]float32, tol float32) bool {
	return math32.Abs(a[0]-b[0]) <= tol &&
		math32.Abs(a[1]-b[1]) <= tol &&
		math32.Abs(a[2]-b[2]) <= tol
}

func f32From3(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func r3From3F32(f [3]float32) r3.Vec {
	return r3.Vec{X: float64(f[0]), Y: float64(f[1]), Z: float64(f[2])}
}

func (t stlTriangle) toTriangle() Triangle {
	return Triangle{
		r3From3F32(t.Vertex1),
		r3From3F32(t.Vertex2),
		r3From3F32(t.Vertex3),
	}
}
