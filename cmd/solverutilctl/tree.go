package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WillCodeCo/solver-util/treestore"
)

func newTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Inspect a stored solution tree",
	}
	cmd.AddCommand(newTreeShowCmd())
	return cmd
}

func newTreeShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <store-path> <tree-key>",
		Short: "Decode a stored tree and print its nodes in BFS order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := treestore.CreateEmpty(args[0])
			if err != nil {
				return err
			}
			tree, err := store.GetSolutionTree(args[1])
			if err != nil {
				return err
			}
			nodes, err := tree.BFSTraversal(-1)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d nodes\n", len(nodes))
			for _, n := range nodes {
				label := n.ActionSequence().String()
				if label == "" {
					label = "(root)"
				}
				kind := "decision"
				if n.IsLeaf() {
					kind = "leaf"
				}
				fmt.Fprintf(out, "  %-24s depth=%d %s options=%d\n", label, n.Depth(), kind, len(n.SolvedSpot().Options))
			}
			return nil
		},
	}
}
