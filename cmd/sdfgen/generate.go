package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/volgrid/sdfgen"
	"github.com/volgrid/sdfgen/field"
	"github.com/volgrid/sdfgen/grid"
	"github.com/volgrid/sdfgen/meshio"
	"github.com/volgrid/sdfgen/sdfio"
)

var (
	genForceCPU  bool
	genFix       bool
	genVTI       bool
	genThreads   int
	genPadding   int
	genWeldTol   float64
	genExactBand int
	genOutput    string
)

var generateCmd = &cobra.Command{
	Use:   "generate <mesh> <dims>...",
	Short: "Compute a signed distance field volume from a mesh",
	Long: `Compute a dense signed distance field. The grid request depends on
the input format:

  OBJ: sdfgen generate mesh.obj <dx> [padding]     cell size mode
  STL: sdfgen generate mesh.stl <Nx>               proportional mode
  STL: sdfgen generate mesh.stl <Nx> <Ny> <Nz>     manual mode

Proportional mode derives Ny and Nz from the mesh aspect ratio;
manual mode fits the mesh with a single cell size chosen by the
coarsest axis. The volume is written as binary SDF, or as VTK
ImageData with --vti.`,
	Args: cobra.RangeArgs(2, 5),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().BoolVar(&genForceCPU, "cpu", false, "force CPU backend (skip GPU)")
	generateCmd.Flags().BoolVar(&genFix, "fix", false, "repair non-watertight meshes (fill holes)")
	generateCmd.Flags().BoolVar(&genVTI, "vti", false, "write VTK ImageData instead of binary SDF")
	generateCmd.Flags().IntVarP(&genThreads, "threads", "t", 0, "CPU thread count (0=auto)")
	generateCmd.Flags().IntVarP(&genPadding, "padding", "p", 0, "padding cells around mesh (min 1)")
	generateCmd.Flags().Float64Var(&genWeldTol, "weld-tol", 0, "weld tolerance (0 uses the configured default)")
	generateCmd.Flags().IntVar(&genExactBand, "exact-band", 0, "cells with exact distance around the surface")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "output path (default derived from input)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	path := args[0]
	dims := make([]float64, 0, len(args)-1)
	for _, a := range args[1:] {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("invalid grid dimension %q: %w", a, err)
		}
		dims = append(dims, v)
	}

	m, format, err := meshio.Load(path)
	if err != nil {
		return err
	}

	opts := sdfgen.Options{
		Padding:       pick(genPadding, cfg.Padding),
		WeldTolerance: pickF(genWeldTol, cfg.WeldTolerance),
		Repair:        genFix,
		ExactBand:     pick(genExactBand, cfg.ExactBand),
		Threads:       pick(genThreads, cfg.Threads),
	}
	if genForceCPU || cfg.ForceCPU {
		opts.Backend = field.BackendCPU
	}
	if err := fitRequest(&opts, format, dims); err != nil {
		return err
	}

	fmt.Println("========================================")
	fmt.Println("sdfgen - SDF Generation Tool")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Printf("Mode: %s (%s)\n", opts.FitMode, format)
	fmt.Printf("Input: %s (%d vertices, %d triangles)\n", path, m.NumVertices(), m.NumTriangles())
	fmt.Printf("Padding: %d cells\n", opts.Padding)
	if opts.Threads == 0 {
		fmt.Println("Threads: auto")
	} else {
		fmt.Printf("Threads: %d\n", opts.Threads)
	}

	res, err := sdfgen.Prepare(m, opts)
	if err != nil {
		return err
	}
	if res.Welded > 0 {
		fmt.Printf("\nWelded %d duplicate vertices\n", res.Welded)
		fmt.Printf("Mesh now has %d vertices, %d triangles\n", m.NumVertices(), m.NumTriangles())
	}
	printAnalysis(res.PreRepair)
	if genFix && res.Repaired.HolesFilled > 0 {
		fmt.Println("\nMesh repair (--fix):")
		fmt.Printf("  Filled %d holes with %d triangles\n", res.Repaired.HolesFilled, res.Repaired.TrianglesAdded)
		if res.Report.Watertight {
			fmt.Println("  Mesh is now watertight")
		} else {
			fmt.Printf("  WARNING: mesh still has %d holes after repair\n", res.Report.NumHoles)
		}
	}

	spec := res.Spec
	bounds := spec.Bounds()
	fmt.Println("\nComputing signed distance field...")
	fmt.Printf("  Bounds: (%.6g %.6g %.6g) to (%.6g %.6g %.6g)\n",
		bounds.Min.X, bounds.Min.Y, bounds.Min.Z, bounds.Max.X, bounds.Max.Y, bounds.Max.Z)
	fmt.Printf("  Cell size (dx): %.6g\n", spec.Dx)
	fmt.Printf("  Grid dimensions: %d x %d x %d\n", spec.Nx, spec.Ny, spec.Nz)
	fmt.Printf("  Total cells: %d\n", spec.NumCells())
	fmt.Printf("  Backend: %s\n", opts.Backend.Resolve())

	phi, err := field.Compute(m, spec, field.Options{
		ExactBand: opts.ExactBand,
		Backend:   opts.Backend,
		Threads:   opts.Threads,
	})
	if err != nil {
		return fmt.Errorf("distance field kernel: %w", err)
	}
	fmt.Println("SDF computation complete.")

	out := genOutput
	if out == "" {
		out = outputName(path, opts.FitMode, spec, genVTI)
	}
	if genVTI {
		err = sdfio.SaveVTI(out, spec, phi)
	} else {
		err = sdfio.SaveSDF(out, spec, phi)
	}
	if err != nil {
		return err
	}

	inside := sdfio.InsideCount(phi)
	total := spec.NumCells()
	lo, hi := sdfio.MinMax(phi)
	fmt.Println("\n========================================")
	fmt.Println("Output Summary")
	fmt.Println("========================================")
	fmt.Printf("File: %s\n", out)
	fmt.Printf("Dimensions: %d x %d x %d\n", spec.Nx, spec.Ny, spec.Nz)
	fmt.Printf("Grid spacing (dx): %.6g\n", spec.Dx)
	fmt.Printf("Distance range: [%.6g, %.6g]\n", lo, hi)
	fmt.Printf("Inside cells: %d / %d (%.1f%%)\n", inside, total, 100*float64(inside)/float64(total))
	if !genVTI {
		fmt.Printf("File size: %.1f MB\n", float64(sdfio.FileSize(spec))/(1024*1024))
	}
	fmt.Println("Processing complete.")
	return nil
}

// fitRequest maps the positional dimension arguments onto a fit mode
// following the input format: OBJ takes a cell size, STL a grid
// resolution. A trailing small value after the resolution is taken
// as padding for compatibility with older invocations.
func fitRequest(opts *sdfgen.Options, format meshio.Format, dims []float64) error {
	switch format {
	case meshio.FormatOBJ:
		opts.FitMode = sdfgen.FitCellSize
		opts.Dx = dims[0]
		if len(dims) >= 2 {
			opts.Padding = int(dims[1])
		}
	case meshio.FormatSTL:
		switch {
		case len(dims) <= 2:
			opts.FitMode = sdfgen.FitProportional
			opts.Nx = int(dims[0])
			if len(dims) == 2 && dims[1] < 20 {
				opts.Padding = int(dims[1])
			}
		default:
			opts.FitMode = sdfgen.FitManual
			opts.Nx = int(dims[0])
			opts.Ny = int(dims[1])
			opts.Nz = int(dims[2])
			if len(dims) >= 4 {
				opts.Padding = int(dims[3])
			}
		}
	}
	return nil
}

func outputName(input string, mode sdfgen.FitMode, spec grid.Spec, vti bool) string {
	base := basename(input)
	if mode != sdfgen.FitCellSize {
		base = fmt.Sprintf("%s_sdf_%dx%dx%d", base, spec.Nx, spec.Ny, spec.Nz)
	}
	if vti {
		return base + ".vti"
	}
	return base + ".sdf"
}

func pick(flag, def int) int {
	if flag != 0 {
		return flag
	}
	return def
}

func pickF(flag, def float64) float64 {
	if flag != 0 {
		return flag
	}
	return def
}
