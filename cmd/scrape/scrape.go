// Package scrape implements the one-shot scraping command.
package scrape

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/legalharvest/cmd/common"
	"github.com/jonesrussell/legalharvest/internal/domain"
	"github.com/jonesrussell/legalharvest/internal/jobs"
)

// Command returns the scrape command.
func Command() *cobra.Command {
	var (
		strategy string
		keywords []string
		maxDepth int
		delay    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scrape <url>...",
		Short: "Run one scraping job and wait for it to finish",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfgFile, _ := c.Flags().GetString("config")
			return run(c, args, runParams{
				strategy: strategy,
				keywords: keywords,
				maxDepth: maxDepth,
				delay:    delay,
				cfgFile:  cfgFile,
			})
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "general", "extraction strategy (general, legal_documents, news_articles, academic_papers, government_sites)")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "keywords to record in job metadata")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 1, "link-follow depth")
	cmd.Flags().DurationVar(&delay, "delay", 0, "pause between requests (0 uses the configured default)")

	return cmd
}

type runParams struct {
	strategy string
	keywords []string
	maxDepth int
	delay    time.Duration
	cfgFile  string
}

func run(c *cobra.Command, urls []string, params runParams) error {
	deps, err := common.NewDeps(params.cfgFile)
	if err != nil {
		return err
	}

	services, err := common.NewServices(c.Context(), deps)
	if err != nil {
		return err
	}
	defer services.Close()

	jobID, err := services.Manager.StartJob(jobs.StartParams{
		URLs:     urls,
		Strategy: domain.ParseStrategy(params.strategy),
		Keywords: params.keywords,
		MaxDepth: params.maxDepth,
		Delay:    params.delay,
	})
	if err != nil {
		return fmt.Errorf("start job: %w", err)
	}

	fmt.Fprintf(c.OutOrStdout(), "Started job %s with %d URLs\n", jobID, len(urls))

	if err := services.Manager.Wait(jobID); err != nil {
		return fmt.Errorf("wait for job: %w", err)
	}

	status, err := services.Manager.GetStatus(jobID)
	if err != nil {
		return fmt.Errorf("final status: %w", err)
	}

	fmt.Fprintf(c.OutOrStdout(),
		"Job %s finished: status=%s total=%d completed=%d failed=%d\n",
		status.JobID, status.Status, status.TotalItems,
		status.CompletedItems, status.FailedItems)
	return nil
}
