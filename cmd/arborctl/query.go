package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func NewQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <tree> <coordinate>...",
		Short: "Find the nearest points in a tree",
		Long: `Find the n points in the named tree closest to the given point,
printed nearest first, one point per line.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runQuery,
	}
	cmd.Flags().IntP("neighbors", "n", 1, "Number of neighbors to return")
	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	point, err := parsePoint(args[1:])
	if err != nil {
		return err
	}
	n, _ := cmd.Flags().GetInt("neighbors")

	forest, err := openForest(cmd)
	if err != nil {
		return err
	}
	defer forest.Close()

	points, err := forest.Nearest(cmd.Context(), args[0], point, n)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd, points)
	}

	out := cmd.OutOrStdout()
	for _, p := range points {
		coords := make([]string, len(p))
		for i, c := range p {
			coords[i] = strconv.FormatFloat(c, 'g', -1, 64)
		}
		fmt.Fprintln(out, strings.Join(coords, " "))
	}
	return nil
}
