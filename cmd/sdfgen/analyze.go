package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/volgrid/sdfgen/mesh"
	"github.com/volgrid/sdfgen/meshio"
)

var analyzeWeldTol float64

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Check a mesh for watertightness",
	Long: `Weld the mesh and report its edge classification: boundary edges
(hole rims), non-manifold edges, hole count, and whether the mesh is
watertight. A non-watertight mesh yields an ill-defined sign field.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().Float64Var(&analyzeWeldTol, "weld-tol", 0, "weld tolerance (0 uses the configured default)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	m, format, err := meshio.Load(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Input: %s (%s, %d vertices, %d triangles)\n",
		args[0], format, m.NumVertices(), m.NumTriangles())

	tol := analyzeWeldTol
	if tol == 0 {
		tol = cfg.WeldTolerance
	}
	if welded := m.Weld(tol); welded > 0 {
		fmt.Printf("Welded %d duplicate vertices\n", welded)
		fmt.Printf("Mesh now has %d vertices, %d triangles\n", m.NumVertices(), m.NumTriangles())
	}
	printAnalysis(m.Analyze())
	return nil
}

func printAnalysis(r mesh.Report) {
	fmt.Println()
	fmt.Println("Mesh Analysis:")
	fmt.Printf("  Total edges:        %d\n", r.TotalEdges)
	fmt.Printf("  Boundary edges:     %d", r.BoundaryEdges)
	if r.BoundaryEdges > 0 {
		fmt.Print(" (holes detected)")
	}
	fmt.Println()
	fmt.Printf("  Non-manifold edges: %d", r.NonManifoldEdges)
	if r.NonManifoldEdges > 0 {
		fmt.Print(" (problem)")
	}
	fmt.Println()
	fmt.Printf("  Number of holes:    %d\n", r.NumHoles)
	fmt.Printf("  Is manifold:        %s\n", yesno(r.Manifold))
	fmt.Printf("  Is watertight:      %s\n", yesno(r.Watertight))
	if !r.Watertight {
		fmt.Println()
		fmt.Fprintln(os.Stderr, "  WARNING: Mesh is not watertight. SDF sign determination may be incorrect.")
		fmt.Fprintln(os.Stderr, "           Use --fix to attempt automatic hole filling.")
	}
}

func yesno(b bool) string {
	if b {
		return "yes"
	}
	return "NO"
}
