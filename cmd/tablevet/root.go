package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tablevet/tablevet/internal/config"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "tablevet",
	Short: "Checkpoint-driven database table validation",
	Long: `Tablevet runs pre-configured validation checkpoints against database
tables and reports pass/fail status.

A project keeps its configuration under a single directory (./tablevet
by default): datasource connections in tablevet.yaml, expectation
suites in suites/, and checkpoint definitions in checkpoints/. Running
a checkpoint evaluates every expectation in its suite against the
target table, records the outcome, and regenerates the Data Docs HTML
report under uncommitted/data_docs/.

Typical usage:
  tablevet init                # scaffold the configuration directory
  tablevet run                 # run the default checkpoint
  tablevet run taxi_daily      # run a named checkpoint
  tablevet history             # show recent validation runs`,
	SilenceUsage: true,
}

// Execute runs the root command, exiting 1 on any error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", config.DefaultDir, "Project configuration directory")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(versionCmd)
}
