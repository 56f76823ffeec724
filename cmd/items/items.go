// Package items implements the item inspection commands.
package items

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/legalharvest/cmd/common"
)

const (
	defaultThreshold = 0.4
	defaultLimit     = 50
	titlePreviewLen  = 60
)

// Command returns the items command with its subcommands.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Inspect scraped items",
	}
	cmd.AddCommand(lowQualityCommand())
	return cmd
}

func lowQualityCommand() *cobra.Command {
	var (
		threshold float64
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "low-quality",
		Short: "List items rated below a score threshold",
		RunE: func(c *cobra.Command, _ []string) error {
			cfgFile, _ := c.Flags().GetString("config")
			return runLowQuality(c, cfgFile, threshold, limit)
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", defaultThreshold, "score ceiling for listed items")
	cmd.Flags().IntVar(&limit, "limit", defaultLimit, "maximum number of items to show")

	return cmd
}

func runLowQuality(c *cobra.Command, cfgFile string, threshold float64, limit int) error {
	deps, err := common.NewDeps(cfgFile)
	if err != nil {
		return err
	}

	services, err := common.NewServices(c.Context(), deps)
	if err != nil {
		return err
	}
	defer services.Close()

	found, err := services.Engine.LowQualityItems(c.Context(), threshold, limit)
	if err != nil {
		return fmt.Errorf("list low quality items: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Item ID", "Score", "Status", "Title", "URL"})

	for _, item := range found {
		t.AppendRow(table.Row{
			item.ID,
			fmt.Sprintf("%.3f", item.RatingScore),
			item.Status,
			preview(item.Title),
			item.URL,
		})
	}

	t.Render()
	fmt.Fprintf(c.OutOrStdout(), "%d items below %.2f\n", len(found), threshold)
	return nil
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= titlePreviewLen {
		return s
	}
	return string(runes[:titlePreviewLen]) + "..."
}
