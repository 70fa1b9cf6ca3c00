package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WillCodeCo/solver-util/treestore"
)

func newStoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Create, inspect, and maintain a solution-tree store directory",
	}
	cmd.AddCommand(newStoreInitCmd())
	cmd.AddCommand(newStoreInspectCmd())
	cmd.AddCommand(newStoreRebuildIndexCmd())
	cmd.AddCommand(newStoreCleanUpCmd())
	return cmd
}

func newStoreInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <path>",
		Short: "Create an empty store at path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := treestore.CreateEmpty(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized store at %s\n", store.Path())
			return nil
		},
	}
}

func newStoreInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <path>",
		Short: "Print summary counts for every blob prefix and the in-memory index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := treestore.OpenAndMerge(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "store: %s\n", store.Path())
			fmt.Fprintf(out, "index entries: %d\n", store.Index().Size())
			indexBlobs, err := store.IndexBlobKeys()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "index blobs on disk: %d\n", len(indexBlobs))
			return nil
		},
	}
}

func newStoreRebuildIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-index <path>",
		Short: "Rebuild the index from every stored solution-tree-meta blob",
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
			fmt.Fprintf(cmd.OutOrStdout(), "rebuilt index with %d entries, saved as %s\n", store.Index().Size(), key)
			return nil
		},
	}
}

func newStoreCleanUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean-up <path>",
		Short: "Merge on-disk indexes, save the current index, and cull smaller stale ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := treestore.OpenAndMerge(args[0])
			if err != nil {
				return err
			}
			if _, err := store.SaveIndex(); err != nil {
				return err
			}
			if err := store.CleanUpIndexes(); err != nil {
				return err
			}
			keys, err := store.IndexBlobKeys()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "clean-up complete: %d index blob(s) remain\n", len(keys))
			return nil
		},
	}
}
