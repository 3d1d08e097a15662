package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "arborctl",
		Short: "Offline tooling for arbor tree stores",
		Long: `arborctl inspects and maintains a directory of persisted KD-trees in
embedded mode, without a running daemon.

Do not point it at a directory a daemon is actively serving: both sides
write whole tree files and the last writer wins.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("dir", "bin", "Tree storage directory")
	rootCmd.PersistentFlags().String("config", "", "YAML config file")
	rootCmd.PersistentFlags().Int64("max-memory-mb", 1024, "Resident tree memory budget")
	rootCmd.PersistentFlags().String("compression", "none", "Blob compression (none|zstd|lz4)")
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")

	rootCmd.AddCommand(
		NewInitCmd(),
		NewInsertCmd(),
		NewQueryCmd(),
		NewStatusCmd(),
	)

	return rootCmd
}

func parsePoint(args []string) ([]float64, error) {
	point := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("coordinate %q is not a number", a)
		}
		point[i] = v
	}
	return point, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
