// Package httpd implements the HTTP server command for the harvesting
// service.
package httpd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/legalharvest/cmd/common"
	"github.com/jonesrussell/legalharvest/internal/api"
	"github.com/jonesrussell/legalharvest/internal/logger"
	"github.com/jonesrussell/legalharvest/internal/maintenance"
)

const (
	signalChannelBufferSize = 1
	errorChannelBufferSize  = 1
	defaultShutdownTimeout  = 30 * time.Second
)

// Command returns the httpd command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Start the HTTP API server",
		Long:  "Start the HTTP API server exposing the scraping and rating endpoints.",
		RunE: func(c *cobra.Command, _ []string) error {
			cfgFile, _ := c.Flags().GetString("config")
			return Start(c.Context(), cfgFile)
		},
	}
}

// Start runs the HTTP server until interrupted, with graceful shutdown
// on SIGINT or SIGTERM.
func Start(ctx context.Context, cfgFile string) error {
	deps, err := common.NewDeps(cfgFile)
	if err != nil {
		return err
	}

	services, err := common.NewServices(ctx, deps)
	if err != nil {
		return err
	}
	defer services.Close()

	scheduler := startScheduler(deps, services)

	server, errChan := startHTTPServer(deps, services)

	return runUntilInterrupt(deps.Logger, server, scheduler, errChan)
}

// startScheduler starts the background cleanup and rating sweep tasks.
// A schedule error disables maintenance but does not stop the server.
func startScheduler(deps *common.Deps, services *common.Services) *maintenance.Scheduler {
	scheduler := maintenance.NewScheduler(
		services.Manager,
		services.Engine,
		maintenance.Config{CleanupAfter: deps.Config.Scraper.CleanupAfter},
		deps.Logger,
	)
	if err := scheduler.Start(); err != nil {
		deps.Logger.Error("Failed to start maintenance scheduler", "error", err)
		return nil
	}
	return scheduler
}

func startHTTPServer(deps *common.Deps, services *common.Services) (*http.Server, chan error) {
	scraping := api.NewScrapingHandler(services.Manager, services.Items)
	ratingH := api.NewRatingHandler(services.Engine, services.Ratings)
	router := api.SetupRouter(deps.Logger, scraping, ratingH)

	server := api.NewHTTPServer(deps.Config.Server, router)

	deps.Logger.Info("Starting HTTP server", "addr", deps.Config.Server.Address)
	errChan := make(chan error, errorChannelBufferSize)
	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	return server, errChan
}

// runUntilInterrupt blocks until the server fails or a shutdown signal
// arrives.
func runUntilInterrupt(
	log logger.Interface,
	server *http.Server,
	scheduler *maintenance.Scheduler,
	errChan chan error,
) error {
	sigChan := make(chan os.Signal, signalChannelBufferSize)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case serverErr := <-errChan:
		log.Error("Server error", "error", serverErr)
		return fmt.Errorf("server error: %w", serverErr)
	case sig := <-sigChan:
		return shutdown(log, server, scheduler, sig)
	}
}

func shutdown(
	log logger.Interface,
	server *http.Server,
	scheduler *maintenance.Scheduler,
	sig os.Signal,
) error {
	log.Info("Shutdown signal received", "signal", sig.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if scheduler != nil {
		log.Info("Stopping maintenance scheduler")
		scheduler.Stop()
	}

	log.Info("Stopping HTTP server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to stop server", "error", err)
		return fmt.Errorf("stop server: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
