package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WillCodeCo/solver-util/treestore"
)

// newIndexCmd exposes the original migrate_solution_tree_store.py /
// index_solution_tree_store.py scripts' two entrypoints: "rebuild"
// (recompute everything from stored meta blobs) and "build" (consolidate
// whatever partial index/* blobs concurrent writers have left on disk into
// a single saved index, without touching meta).
func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild or consolidate a store's index",
	}
	cmd.AddCommand(newIndexRebuildCmd())
	cmd.AddCommand(newIndexBuildCmd())
	return cmd
}

func newIndexRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild <path>",
		Short: "Recompute the index from scratch against stored meta and config blobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := treestore.CreateEmpty(args[0])
			if err != nil {
				return err
			}
			if err := store.RebuildIndex(); err != nil {
				return err
			}
			key, err := store.SaveIndex()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rebuilt index (%d entries) saved as %s\n", store.Index().Size(), key)
			return nil
		},
	}
}

func newIndexBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build <path>",
		Short: "Merge every on-disk partial index and save the result as one blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := treestore.OpenAndMerge(args[0])
			if err != nil {
				return err
			}
			key, err := store.SaveIndex()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "built consolidated index (%d entries) as %s\n", store.Index().Size(), key)
			return nil
		},
	}
}
