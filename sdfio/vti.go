package sdfio

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/volgrid/sdfgen/grid"
)

// VTK XML ImageData output. The format is a small XML container; no
// Go VTK binding exists, so the document is assembled directly.

type vtiFile struct {
	XMLName   xml.Name     `xml:"VTKFile"`
	Type      string       `xml:"type,attr"`
	Version   string       `xml:"version,attr"`
	ByteOrder string       `xml:"byte_order,attr"`
	Image     vtiImageData `xml:"ImageData"`
}

type vtiImageData struct {
	WholeExtent string   `xml:"WholeExtent,attr"`
	Origin      string   `xml:"Origin,attr"`
	Spacing     string   `xml:"Spacing,attr"`
	Piece       vtiPiece `xml:"Piece"`
}

type vtiPiece struct {
	Extent    string       `xml:"Extent,attr"`
	PointData vtiPointData `xml:"PointData"`
}

type vtiPointData struct {
	Scalars string       `xml:"Scalars,attr"`
	Array   vtiDataArray `xml:"DataArray"`
}

type vtiDataArray struct {
	Type   string `xml:"type,attr"`
	Name   string `xml:"Name,attr"`
	Format string `xml:"format,attr"`
	Data   string `xml:",chardata"`
}

// WriteVTI writes the grid as a VTK XML ImageData volume with one
// "Distance" scalar per point.
func WriteVTI(w io.Writer, spec grid.Spec, phi []float32) error {
	if len(phi) != spec.NumCells() {
		return fmt.Errorf("sdfio: %d distances for a %dx%dx%d grid", len(phi), spec.Nx, spec.Ny, spec.Nz)
	}
	extent := fmt.Sprintf("0 %d 0 %d 0 %d", spec.Nx-1, spec.Ny-1, spec.Nz-1)
	var data strings.Builder
	data.Grow(12 * len(phi))
	for i, v := range phi {
		if i > 0 {
			data.WriteByte(' ')
		}
		data.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	doc := vtiFile{
		Type:      "ImageData",
		Version:   "0.1",
		ByteOrder: "LittleEndian",
		Image: vtiImageData{
			WholeExtent: extent,
			Origin:      fmt.Sprintf("%g %g %g", spec.Origin.X, spec.Origin.Y, spec.Origin.Z),
			Spacing:     fmt.Sprintf("%g %g %g", spec.Dx, spec.Dx, spec.Dx),
			Piece: vtiPiece{
				Extent: extent,
				PointData: vtiPointData{
					Scalars: "Distance",
					Array: vtiDataArray{
						Type:   "Float32",
						Name:   "Distance",
						Format: "ascii",
						Data:   data.String(),
					},
				},
			},
		},
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// SaveVTI writes the VTK volume to path.
func SaveVTI(path string, spec grid.Spec, phi []float32) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fp.Close()
	w := bufio.NewWriterSize(fp, 1<<20)
	if err := WriteVTI(w, spec, phi); err != nil {
		return err
	}
	return w.Flush()
}
