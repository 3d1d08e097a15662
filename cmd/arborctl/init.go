package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create and verify a tree storage directory",
		Long: `Create the storage directory if it does not exist and verify it is
readable. Existing trees are left untouched.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	forest, err := openForest(cmd)
	if err != nil {
		return err
	}
	defer forest.Close()

	st, err := forest.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd, map[string]any{
			"directory": s.Directory,
			"trees":     st.ActiveTrees,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "initialized %s (%d existing tree(s))\n",
		s.Directory, st.ActiveTrees)
	return nil
}
