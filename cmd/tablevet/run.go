package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tablevet/tablevet/internal/checkpoint"
	"github.com/tablevet/tablevet/internal/config"
	"github.com/tablevet/tablevet/internal/project"
	"github.com/tablevet/tablevet/internal/watch"
)

var runWatch bool

// errValidationFailed marks a clean run whose expectations did not all
// hold, as opposed to an execution error.
var errValidationFailed = errors.New("validation failed")

var runCmd = &cobra.Command{
	Use:   "run [checkpoint]",
	Short: "Run a validation checkpoint",
	Long: `Run a pre-configured validation checkpoint against its table.

With no argument, runs the project's default checkpoint: the
default_checkpoint from tablevet.yaml, or the only checkpoint defined.

The outcome maps to the process exit code: 0 when every expectation
held, 1 on validation failure or any error. Each run is recorded in the
run history and published to the Data Docs site.

With --watch, stays running and re-validates whenever a suite or
checkpoint file changes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "Re-run the checkpoint when configuration files change")
}

func runRun(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runWatch {
		return runWatchLoop(ctx, name)
	}

	_, err := runOnce(ctx, name)
	return err
}

// runOnce performs a single validation run: prerequisite check, context
// load, checkpoint lookup and execution, and outcome reporting.
func runOnce(ctx context.Context, name string) (*checkpoint.Results, error) {
	if err := config.CheckPrerequisites(configDir); err != nil {
		return nil, err
	}
	color.Green("✓ Configuration directory found, proceeding with validation")

	pctx, err := project.Load(configDir)
	if err != nil {
		return nil, err
	}
	defer pctx.Close()

	if name == "" {
		name, err = pctx.DefaultCheckpointName()
		if err != nil {
			return nil, err
		}
	}

	fmt.Printf("Running checkpoint %q...\n", name)
	results, err := pctx.RunCheckpoint(ctx, name)
	if err != nil {
		return nil, err
	}

	fmt.Print(results.Summary())
	fmt.Printf("Results available in Data Docs at: %s\n", pctx.DataDocsIndexPath())

	if !results.Success {
		color.Yellow("⚠ Validation failed - check Data Docs for details")
		return results, fmt.Errorf("%w: %d of %d expectations not met", errValidationFailed,
			results.Statistics.Unsuccessful, results.Statistics.Evaluated)
	}

	color.Green("✓ Validation successful!")
	return results, nil
}

// runWatchLoop validates once, then re-validates whenever a suite or
// checkpoint file changes, until interrupted.
func runWatchLoop(ctx context.Context, name string) error {
	// Failures don't stop the loop in watch mode.
	if _, err := runOnce(ctx, name); err != nil && !errors.Is(err, errValidationFailed) {
		return err
	}

	dirs := []string{
		config.SuitesDir(configDir),
		config.CheckpointsDir(configDir),
	}

	fmt.Println("Watching for configuration changes (Ctrl-C to stop)...")
	err := watch.Dirs(ctx, dirs, watch.DefaultDebounce, func() {
		fmt.Println()
		if _, err := runOnce(ctx, name); err != nil && !errors.Is(err, errValidationFailed) {
			color.Red("✗ %v", err)
		}
		fmt.Println("Watching for configuration changes (Ctrl-C to stop)...")
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
