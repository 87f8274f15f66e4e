package main

import (
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tablevet/tablevet/internal/project"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent validation runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to show (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	pctx, err := project.Load(configDir)
	if err != nil {
		return err
	}
	defer pctx.Close()

	runs, err := pctx.ListRuns(historyLimit)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Started", "Checkpoint", "Table", "Status", "Expectations", "Failed", "Run ID"})

	for _, r := range runs {
		status := "FAIL"
		if r.Success {
			status = "PASS"
		}
		table.Append([]string{
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Checkpoint,
			r.TableName,
			status,
			strconv.Itoa(r.Evaluated),
			strconv.Itoa(r.Failed),
			r.ID,
		})
	}

	table.Render()
	return nil
}
