package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newDiffCommand() *cobra.Command {
	f := &runFlags{showDiff: true}
	cmd := &cobra.Command{
		Use:   "diff <file>",
		Short: "Compile a file and show what changed since its last cached run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, db, err := buildRunner(f)
			if err != nil {
				return err
			}
			defer closeDB(db)

			outcomes := runner.Run(context.Background(), args)
			runner.Print(outcomes)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print object/run/criteria counts.")
	cmd.Flags().BoolVar(&f.colorDiff, "color", false, "Colorize diff output.")
	cmd.Flags().StringVar(&f.dsn, "db", "", "Cache database DSN, overrides ESPC_DATABASE_DSN.")
	return cmd
}
