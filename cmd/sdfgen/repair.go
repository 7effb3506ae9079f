package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/volgrid/sdfgen/meshio"
)

var repairOut string

var repairCmd = &cobra.Command{
	Use:   "repair [file]",
	Short: "Fill holes in a mesh and write the repaired STL",
	Long: `Weld the mesh, triangulate every boundary loop and write the result
as a binary STL. Repair is best effort: non-manifold topology is
reported but not fixed, and loops that resist triangulation are left
open.`,
	Args: cobra.ExactArgs(1),
	RunE: runRepair,
}

func init() {
	rootCmd.AddCommand(repairCmd)
	repairCmd.Flags().StringVarP(&repairOut, "output", "o", "", "output path (default <input>_repaired.stl)")
}

func runRepair(cmd *cobra.Command, args []string) error {
	m, format, err := meshio.Load(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Input: %s (%s, %d vertices, %d triangles)\n",
		args[0], format, m.NumVertices(), m.NumTriangles())

	outcome := m.Repair(cfg.WeldTolerance)
	if outcome.Welded > 0 {
		fmt.Printf("Welded %d duplicate vertices\n", outcome.Welded)
	}
	if outcome.NonManifold {
		fmt.Println("WARNING: mesh has non-manifold edges, repair may not succeed")
	}
	if outcome.HolesFilled == 0 {
		fmt.Println("Mesh is already watertight, no repair needed")
	} else {
		fmt.Printf("Filled %d holes with %d triangles\n", outcome.HolesFilled, outcome.TrianglesAdded)
		if outcome.After.Watertight {
			fmt.Println("Mesh is now watertight")
		} else {
			fmt.Printf("WARNING: mesh still has %d holes after repair\n", outcome.After.NumHoles)
		}
	}

	out := repairOut
	if out == "" {
		out = basename(args[0]) + "_repaired.stl"
	}
	if err := meshio.SaveSTL(out, m); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d triangles)\n", out, m.NumTriangles())
	return nil
}

func basename(path string) string {
	if i := strings.LastIndexByte(path, '.'); i > 0 {
		return path[:i]
	}
	return path
}
