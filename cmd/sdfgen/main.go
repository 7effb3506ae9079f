package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/volgrid/sdfgen/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "sdfgen",
	Short: "Generate signed distance fields from triangle meshes",
	Long: `sdfgen converts triangle meshes (STL, OBJ) into dense signed
distance field volumes. Meshes are welded and checked for
watertightness first; non-watertight meshes can be repaired by
filling boundary loops before the distance field is computed.`,
	Version: version,
}

var (
	configPath string
	cfg        config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "defaults file (default ~/.sdfgen.yaml)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		return err
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
