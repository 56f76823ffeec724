// Package api implements the HTTP API for the scraping and rating
// services.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/legalharvest/internal/logger"
)

// SetupRouter creates and configures the Gin router with all routes.
func SetupRouter(
	log logger.Interface,
	scraping *ScrapingHandler,
	ratingH *RatingHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	router.GET("/health", healthHandler(scraping, ratingH))

	v1 := router.Group("/api/v1")

	s := v1.Group("/scraping")
	s.POST("/jobs", scraping.CreateJob)
	s.GET("/jobs", scraping.ListJobs)
	s.GET("/jobs/:id", scraping.GetJob)
	s.POST("/jobs/:id/stop", scraping.StopJob)
	s.POST("/stop", scraping.StopAll)
	s.POST("/cleanup", scraping.Cleanup)
	s.GET("/items", scraping.ListItems)
	s.GET("/statistics", scraping.Statistics)

	r := v1.Group("/rating")
	r.POST("/items/:id", ratingH.RateItem)
	r.POST("/items/:id/re-evaluate", ratingH.ReEvaluateItem)
	r.POST("/unrated", ratingH.RateUnrated)
	r.GET("/summary", ratingH.Summary)
	r.GET("/items/:id/history", ratingH.ItemHistory)
	r.GET("/low-quality", ratingH.LowQuality)

	return router
}

// healthHandler reports liveness plus a small snapshot of both
// services.
func healthHandler(scraping *ScrapingHandler, ratingH *RatingHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses := scraping.jobs.ListJobs()
		active := 0
		for _, s := range statuses {
			if !s.Status.Terminal() {
				active++
			}
		}

		services := gin.H{
			"scraping": gin.H{
				"active_jobs": active,
				"total_jobs":  len(statuses),
			},
		}
		if summary, err := ratingH.summary.Summary(c.Request.Context()); err == nil {
			services["rating"] = gin.H{
				"total_rated":   summary.TotalRated,
				"average_score": summary.AverageScore,
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services":  services,
		})
	}
}

// loggingMiddleware creates a middleware that logs HTTP requests.
func loggingMiddleware(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		log.Info("HTTP Request",
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// corsMiddleware adds CORS headers to allow frontend access.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
