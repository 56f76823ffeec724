// Package rate implements the rating engine commands.
package rate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/legalharvest/cmd/common"
)

// Command returns the rate command with its subcommands.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Run the content rating engine",
	}
	cmd.AddCommand(sweepCommand())
	return cmd
}

func sweepCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Rate one batch of unrated items",
		RunE: func(c *cobra.Command, _ []string) error {
			cfgFile, _ := c.Flags().GetString("config")
			return runSweep(c, cfgFile, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "batch size (0 uses the configured sweep limit)")

	return cmd
}

func runSweep(c *cobra.Command, cfgFile string, limit int) error {
	deps, err := common.NewDeps(cfgFile)
	if err != nil {
		return err
	}

	services, err := common.NewServices(c.Context(), deps)
	if err != nil {
		return err
	}
	defer services.Close()

	result, err := services.Engine.RateAllUnrated(c.Context(), limit)
	if err != nil {
		return fmt.Errorf("rating sweep: %w", err)
	}

	fmt.Fprintf(c.OutOrStdout(), "Sweep finished: rated=%d failed=%d\n",
		result.Rated, result.Failed)
	return nil
}
