package main

import (
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tablevet/tablevet/internal/project"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List checkpoints and expectation suites",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	pctx, err := project.Load(configDir)
	if err != nil {
		return err
	}
	defer pctx.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Checkpoint", "Datasource", "Table", "Suite", "Expectations"})

	for _, name := range pctx.CheckpointNames() {
		cp, err := pctx.Checkpoint(name)
		if err != nil {
			return err
		}
		expectations := "?"
		if suite, err := pctx.Suite(cp.Suite); err == nil {
			expectations = strconv.Itoa(len(suite.Expectations))
		}
		table.Append([]string{cp.Name, cp.Datasource, cp.Table, cp.Suite, expectations})
	}

	table.Render()
	return nil
}
