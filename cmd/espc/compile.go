package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func newCompileCommand() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "compile <file>...",
		Short: "Compile and resolve one or more ESP files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, db, err := buildRunner(f)
			if err != nil {
				return err
			}
			defer closeDB(db)

			outcomes := runner.Run(context.Background(), args)
			code := runner.Print(outcomes)
			if code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
	bindRunFlags(cmd, f)
	return cmd
}
