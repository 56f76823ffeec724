// Package jobs implements the job inspection commands.
package jobs

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/legalharvest/cmd/common"
)

const defaultListLimit = 50

// Command returns the jobs command with its subcommands.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect scraping jobs",
	}
	cmd.AddCommand(listCommand())
	return cmd
}

func listCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored scraping jobs",
		RunE: func(c *cobra.Command, _ []string) error {
			cfgFile, _ := c.Flags().GetString("config")
			return runList(c, cfgFile, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultListLimit, "maximum number of jobs to show")

	return cmd
}

func runList(c *cobra.Command, cfgFile string, limit int) error {
	deps, err := common.NewDeps(cfgFile)
	if err != nil {
		return err
	}

	services, err := common.NewServices(c.Context(), deps)
	if err != nil {
		return err
	}
	defer services.Close()

	stored, err := services.Jobs.List(c.Context(), limit, 0)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Job ID", "Status", "Strategy", "Total", "Completed", "Failed", "Created"})

	for _, job := range stored {
		t.AppendRow(table.Row{
			job.ID,
			job.Status,
			job.Strategy,
			job.TotalItems,
			job.CompletedItems,
			job.FailedItems,
			job.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	t.Render()
	return nil
}
