package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List every persisted tree",
		Long: `List every tree in the storage directory with its record count.
Trees are described from their file headers; none is loaded.`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	forest, err := openForest(cmd)
	if err != nil {
		return err
	}
	defer forest.Close()

	st, err := forest.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		trees := make([]map[string]any, len(st.Trees))
		for i, ts := range st.Trees {
			var last any
			if !ts.LastAccessed.IsZero() {
				last = int64(time.Since(ts.LastAccessed).Seconds())
			}
			trees[i] = map[string]any{
				"tree_name":             ts.Name,
				"num_records":           ts.Records,
				"in_memory":             ts.InMemory,
				"last_accessed_seconds": last,
			}
		}
		return writeJSON(cmd, map[string]any{
			"active_trees": st.ActiveTrees,
			"trees":        trees,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d known tree(s)\n", st.ActiveTrees)
	for _, ts := range st.Trees {
		fmt.Fprintf(out, "  %-32s %d records\n", ts.Name, ts.Records)
	}
	return nil
}
