package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tablevet/tablevet/internal/project"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Rebuild the Data Docs site from run history",
	Long: `Regenerate the Data Docs HTML report from the stored run history.

Runs are published to Data Docs automatically after each 'tablevet run';
this command rebuilds the whole site, for example after deleting it or
upgrading tablevet.`,
	Args: cobra.NoArgs,
	RunE: runDocs,
}

func runDocs(cmd *cobra.Command, args []string) error {
	pctx, err := project.Load(configDir)
	if err != nil {
		return err
	}
	defer pctx.Close()

	if err := pctx.BuildDataDocs(); err != nil {
		return err
	}

	fmt.Printf("Data Docs rebuilt at: %s\n", pctx.DataDocsIndexPath())
	return nil
}
