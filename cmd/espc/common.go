package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/esp-lang/espcore/internal/cli"
	"github.com/esp-lang/espcore/internal/config"
	"github.com/esp-lang/espcore/internal/store"
)

// runFlags are the output/concurrency flags shared by compile and scan.
type runFlags struct {
	verbose    bool
	jsonOutput bool
	yamlOutput bool
	showDiff   bool
	colorDiff  bool
	workers    int
	noCache    bool
	dsn        string
}

func bindRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print object/run/criteria counts per file.")
	cmd.Flags().BoolVarP(&f.jsonOutput, "json", "j", false, "Output results as JSON.")
	cmd.Flags().BoolVarP(&f.yamlOutput, "yaml", "y", false, "Output results as YAML.")
	cmd.Flags().BoolVarP(&f.showDiff, "diff", "D", false, "Show a unified diff against the last cached run.")
	cmd.Flags().BoolVar(&f.colorDiff, "color", false, "Colorize diff output.")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Concurrent workers, 0 means all available CPUs.")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "Disable the compilation cache.")
	cmd.Flags().StringVar(&f.dsn, "db", "", "Cache database DSN, overrides ESPC_DATABASE_DSN.")
}

// buildRunner loads config.Limits, optionally connects the cache database,
// and returns a configured cli.Runner ready to process files.
func buildRunner(f *runFlags) (*cli.Runner, *gorm.DB, error) {
	lim := config.Load()
	if f.workers != 0 {
		lim.Workers = f.workers
	}
	if f.dsn != "" {
		lim.DatabaseDSN = f.dsn
	}

	var db *gorm.DB
	if !f.noCache {
		var err error
		db, err = store.Connect(lim.DatabaseDSN, false)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting cache database: %w", err)
		}
	}

	runner := cli.NewRunner(lim, nil, db)
	runner.Verbose = f.verbose
	runner.JSONOutput = f.jsonOutput
	runner.YAMLOutput = f.yamlOutput
	runner.ShowDiff = f.showDiff
	runner.ColorDiff = f.colorDiff
	return runner, db, nil
}

func closeDB(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
