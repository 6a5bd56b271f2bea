package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/esp-lang/espcore/internal/batch"
	"github.com/esp-lang/espcore/internal/config"
)

func newScanCommand() *cobra.Command {
	f := &runFlags{}
	var includeGlobs, excludeGlobs []string

	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Discover and compile every .esp file under a directory tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			files, err := batch.Discover(root, includeGlobs, excludeGlobs)
			if err != nil {
				return fmt.Errorf("discovering files: %w", err)
			}
			lim := config.Load()
			files = batch.FilterBySize(files, lim.MaxFileBytes)
			if len(files) == 0 {
				fmt.Fprintln(os.Stderr, "no .esp files found")
				return nil
			}

			runner, db, err := buildRunner(f)
			if err != nil {
				return err
			}
			defer closeDB(db)

			outcomes := runner.Run(context.Background(), files)
			code := runner.Print(outcomes)
			if code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
	bindRunFlags(cmd, f)
	cmd.Flags().StringSliceVar(&includeGlobs, "include", nil, "Include glob patterns (default **/*.esp).")
	cmd.Flags().StringSliceVar(&excludeGlobs, "exclude", nil, "Exclude glob patterns.")
	return cmd
}
