package api

import (
	"net/http"
	"time"

	"github.com/jonesrussell/legalharvest/internal/config"
)

const readHeaderTimeout = 10 * time.Second

// NewHTTPServer wraps the router in an http.Server with the configured
// timeouts applied.
func NewHTTPServer(cfg *config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
