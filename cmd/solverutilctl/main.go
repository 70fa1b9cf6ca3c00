// Command solverutilctl inspects and maintains an on-disk solution-tree
// store: it wraps treestore/blobstore for humans at the shell, the way the
// teacher's own "opal" binary wraps its planner/executor for scripts.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if hint := suggestionFor(err.Error(), allCommandNames(root)); hint != "" {
			fmt.Fprintf(os.Stderr, "did you mean %q?\n", hint)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:                "solverutilctl",
		Short:              "Inspect and maintain a solver-util solution-tree store",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
	}
	root.AddCommand(newStoreCmd())
	root.AddCommand(newTreeCmd())
	root.AddCommand(newIndexCmd())
	root.AddCommand(newIPCCmd())
	return root
}

// allCommandNames flattens every command and subcommand name under root,
// the candidate set fuzzy suggestions are ranked against.
func allCommandNames(cmd *cobra.Command) []string {
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
		names = append(names, allCommandNames(c)...)
	}
	return names
}
