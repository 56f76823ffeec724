// Package cmd implements the command-line interface for the legal
// document harvesting service.
package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/legalharvest/cmd/httpd"
	"github.com/jonesrussell/legalharvest/cmd/items"
	cmdjobs "github.com/jonesrussell/legalharvest/cmd/jobs"
	"github.com/jonesrussell/legalharvest/cmd/rate"
	"github.com/jonesrussell/legalharvest/cmd/scrape"
)

const version = "1.0.0"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "legalharvest",
		Short: "Legal document scraping and content rating service",
		Long: `Legal Harvest crawls legal-document sources, extracts and
stores their content, and rates every stored document against a
weighted set of quality criteria.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment overrides reach viper.
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or /etc/legalharvest/config.yaml)",
	)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("legalharvest version %s\n", version)
		},
	})

	rootCmd.AddCommand(httpd.Command())
	rootCmd.AddCommand(scrape.Command())
	rootCmd.AddCommand(cmdjobs.Command())
	rootCmd.AddCommand(items.Command())
	rootCmd.AddCommand(rate.Command())
}
