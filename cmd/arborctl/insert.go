package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewInsertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insert <tree> <coordinate>...",
		Short: "Insert a point into a tree",
		Long: `Insert a point into the named tree, creating the tree on first use.
The updated tree is persisted before the command returns.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runInsert,
	}
}

func runInsert(cmd *cobra.Command, args []string) error {
	point, err := parsePoint(args[1:])
	if err != nil {
		return err
	}

	forest, err := openForest(cmd)
	if err != nil {
		return err
	}
	defer forest.Close()

	res, err := forest.Insert(cmd.Context(), args[0], point)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd, map[string]any{
			"tree_name":   res.Tree,
			"num_records": res.Records,
			"dimension":   res.Dimension,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "inserted into %s (%d records, dimension %d)\n",
		res.Tree, res.Records, res.Dimension)
	return nil
}
