package main

import (
	"testing"

	"github.com/volgrid/sdfgen"
	"github.com/volgrid/sdfgen/grid"
	"github.com/volgrid/sdfgen/meshio"
)

func TestFitRequestSTL(t *testing.T) {
	var opts sdfgen.Options
	if err := fitRequest(&opts, meshio.FormatSTL, []float64{128}); err != nil {
		t.Fatal(err)
	}
	if opts.FitMode != sdfgen.FitProportional || opts.Nx != 128 {
		t.Errorf("got mode=%v nx=%d", opts.FitMode, opts.Nx)
	}

	// A small second value is legacy padding.
	opts = sdfgen.Options{}
	if err := fitRequest(&opts, meshio.FormatSTL, []float64{128, 4}); err != nil {
		t.Fatal(err)
	}
	if opts.FitMode != sdfgen.FitProportional || opts.Padding != 4 {
		t.Errorf("got mode=%v padding=%d", opts.FitMode, opts.Padding)
	}

	// A large second value is not padding and is ignored.
	opts = sdfgen.Options{}
	if err := fitRequest(&opts, meshio.FormatSTL, []float64{128, 64}); err != nil {
		t.Fatal(err)
	}
	if opts.Padding != 0 {
		t.Errorf("padding=%d, want 0", opts.Padding)
	}

	opts = sdfgen.Options{}
	if err := fitRequest(&opts, meshio.FormatSTL, []float64{64, 96, 128}); err != nil {
		t.Fatal(err)
	}
	if opts.FitMode != sdfgen.FitManual || opts.Nx != 64 || opts.Ny != 96 || opts.Nz != 128 {
		t.Errorf("got mode=%v dims=%dx%dx%d", opts.FitMode, opts.Nx, opts.Ny, opts.Nz)
	}

	opts = sdfgen.Options{}
	if err := fitRequest(&opts, meshio.FormatSTL, []float64{64, 96, 128, 2}); err != nil {
		t.Fatal(err)
	}
	if opts.Padding != 2 {
		t.Errorf("trailing padding=%d, want 2", opts.Padding)
	}
}

func TestFitRequestOBJ(t *testing.T) {
	var opts sdfgen.Options
	if err := fitRequest(&opts, meshio.FormatOBJ, []float64{0.25}); err != nil {
		t.Fatal(err)
	}
	if opts.FitMode != sdfgen.FitCellSize || opts.Dx != 0.25 {
		t.Errorf("got mode=%v dx=%g", opts.FitMode, opts.Dx)
	}

	opts = sdfgen.Options{}
	if err := fitRequest(&opts, meshio.FormatOBJ, []float64{0.25, 3}); err != nil {
		t.Fatal(err)
	}
	if opts.Padding != 3 {
		t.Errorf("padding=%d, want 3", opts.Padding)
	}
}

func TestOutputName(t *testing.T) {
	spec := grid.Spec{Nx: 64, Ny: 96, Nz: 128}
	cases := []struct {
		input string
		mode  sdfgen.FitMode
		vti   bool
		want  string
	}{
		{"model.stl", sdfgen.FitProportional, false, "model_sdf_64x96x128.sdf"},
		{"model.stl", sdfgen.FitManual, true, "model_sdf_64x96x128.vti"},
		{"part.obj", sdfgen.FitCellSize, false, "part.sdf"},
		{"part.obj", sdfgen.FitCellSize, true, "part.vti"},
	}
	for _, tc := range cases {
		if got := outputName(tc.input, tc.mode, spec, tc.vti); got != tc.want {
			t.Errorf("outputName(%q, %v, vti=%v)=%q, want %q", tc.input, tc.mode, tc.vti, got, tc.want)
		}
	}
}

func TestBasename(t *testing.T) {
	cases := map[string]string{
		"mesh.stl":     "mesh",
		"dir/mesh.obj": "dir/mesh",
		"noext":        "noext",
		".hidden":      ".hidden",
	}
	for in, want := range cases {
		if got := basename(in); got != want {
			t.Errorf("basename(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestPick(t *testing.T) {
	if pick(0, 3) != 3 || pick(5, 3) != 5 {
		t.Error("pick int")
	}
	if pickF(0, 1e-5) != 1e-5 || pickF(2e-4, 1e-5) != 2e-4 {
		t.Error("pick float")
	}
}
