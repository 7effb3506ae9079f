package meshio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/volgrid/sdfgen/mesh"
)

// LoadOBJ reads a Wavefront OBJ file into an indexed mesh. Only
// vertex and face records are consumed; texture coordinates, normals
// and groups are skipped. Faces with more than three vertices are
// fan-triangulated around their first vertex.
func LoadOBJ(path string) (*mesh.Mesh, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	m, err := ReadOBJ(fp)
	if err != nil {
		return nil, fmt.Errorf("meshio: reading %s: %w", path, err)
	}
	return m, nil
}

// ReadOBJ reads OBJ data from r.
func ReadOBJ(r io.Reader) (*mesh.Mesh, error) {
	var (
		vertices  []r3.Vec
		triangles [][3]int
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", line)
			}
			v, err := parse3(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			vertices = append(vertices, v)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", line)
			}
			idx := make([]int, 0, len(fields)-1)
			for _, f := range fields[1:] {
				i, err := objIndex(f, len(vertices))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				idx = append(idx, i)
			}
			for i := 1; i+1 < len(idx); i++ {
				triangles = append(triangles, [3]int{idx[0], idx[i], idx[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(triangles) == 0 {
		return nil, errors.New("OBJ contains no faces")
	}
	m := mesh.New(vertices, triangles)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// objIndex resolves an OBJ face vertex reference ("7", "7/1", or
// "7//3") to a 0-based vertex index. Negative references count back
// from the most recent vertex.
func objIndex(field string, numVertices int) (int, error) {
	if slash := strings.IndexByte(field, '/'); slash >= 0 {
		field = field[:slash]
	}
	i, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("parsing face index %q: %w", field, err)
	}
	switch {
	case i > 0 && i <= numVertices:
		return i - 1, nil
	case i < 0 && -i <= numVertices:
		return numVertices + i, nil
	}
	return 0, fmt.Errorf("face index %d out of range (%d vertices)", i, numVertices)
}
