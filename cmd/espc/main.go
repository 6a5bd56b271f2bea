// Command espc compiles and resolves ESP policy source files, the
// command-line front end over compiler.Compile, resolver.Resolve, and the
// bounded batch driver in internal/batch.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "espc",
		Short:         "Compile and resolve ESP endpoint state policies",
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCompileCommand())
	root.AddCommand(newScanCommand())
	root.AddCommand(newDiffCommand())
	return root
}
