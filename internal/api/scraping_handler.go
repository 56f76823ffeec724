package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/legalharvest/internal/database"
	"github.com/jonesrussell/legalharvest/internal/domain"
	"github.com/jonesrussell/legalharvest/internal/jobs"
)

const (
	defaultItemsLimit = 100
	maxItemsLimit     = 1000
	defaultCleanupDay = 7
	// contentPreviewLen bounds item content in listing responses.
	contentPreviewLen = 500
)

// JobController is the job orchestration surface the handler needs.
type JobController interface {
	StartJob(params jobs.StartParams) (string, error)
	GetStatus(jobID string) (*jobs.Status, error)
	ListJobs() []*jobs.Status
	StopJob(jobID string) bool
	StopAll() int
	CleanupOldJobs(olderThan time.Duration) int
}

// ItemReader reads scraped items and their aggregate statistics.
type ItemReader interface {
	List(ctx context.Context, jobID string, limit, offset int) ([]*domain.ScrapedItem, error)
	Statistics(ctx context.Context) (*database.ItemStatistics, error)
}

// ScrapingHandler handles scraping-related HTTP requests.
type ScrapingHandler struct {
	jobs  JobController
	items ItemReader
}

// NewScrapingHandler creates a new scraping handler.
func NewScrapingHandler(jobController JobController, items ItemReader) *ScrapingHandler {
	return &ScrapingHandler{jobs: jobController, items: items}
}

// CreateJobRequest is the body for starting a scrape job.
type CreateJobRequest struct {
	URLs         []string `json:"urls" binding:"required"`
	Strategy     string   `json:"strategy"`
	Keywords     []string `json:"keywords"`
	ContentTypes []string `json:"content_types"`
	MaxDepth     int      `json:"max_depth"`
	// DelaySeconds is the pause between requests, in seconds.
	DelaySeconds float64 `json:"delay_between_requests"`
}

// CreateJob handles POST /api/v1/scraping/jobs.
func (h *ScrapingHandler) CreateJob(c *gin.Context) {
	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	jobID, err := h.jobs.StartJob(jobs.StartParams{
		URLs:         req.URLs,
		Strategy:     domain.ParseStrategy(req.Strategy),
		Keywords:     req.Keywords,
		ContentTypes: req.ContentTypes,
		MaxDepth:     req.MaxDepth,
		Delay:        time.Duration(req.DelaySeconds * float64(time.Second)),
	})
	if err != nil {
		if errors.Is(err, jobs.ErrNoURLs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "At least one URL is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start scraping job"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"job_id":  jobID,
		"status":  "started",
		"message": fmt.Sprintf("Scraping job started with %d URLs", len(req.URLs)),
	})
}

// ListJobs handles GET /api/v1/scraping/jobs.
func (h *ScrapingHandler) ListJobs(c *gin.Context) {
	statuses := h.jobs.ListJobs()
	c.JSON(http.StatusOK, gin.H{
		"jobs":  statuses,
		"total": len(statuses),
	})
}

// GetJob handles GET /api/v1/scraping/jobs/:id.
func (h *ScrapingHandler) GetJob(c *gin.Context) {
	id := c.Param("id")

	status, err := h.jobs.GetStatus(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, status)
}

// StopJob handles POST /api/v1/scraping/jobs/:id/stop.
func (h *ScrapingHandler) StopJob(c *gin.Context) {
	id := c.Param("id")

	if !h.jobs.StopJob(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found or already finished"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id": id,
		"status": "stopped",
	})
}

// StopAll handles POST /api/v1/scraping/stop.
func (h *ScrapingHandler) StopAll(c *gin.Context) {
	stopped := h.jobs.StopAll()
	c.JSON(http.StatusOK, gin.H{
		"stopped_count": stopped,
		"message":       fmt.Sprintf("Stopped %d jobs", stopped),
	})
}

// Cleanup handles POST /api/v1/scraping/cleanup.
func (h *ScrapingHandler) Cleanup(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(defaultCleanupDay)))
	if err != nil || days < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days parameter"})
		return
	}

	removed := h.jobs.CleanupOldJobs(time.Duration(days) * 24 * time.Hour)
	c.JSON(http.StatusOK, gin.H{
		"removed": removed,
		"days":    days,
	})
}

// ListItems handles GET /api/v1/scraping/items. Content is truncated
// to a preview; full content stays retrievable from storage.
func (h *ScrapingHandler) ListItems(c *gin.Context) {
	jobID := c.Query("job_id")
	limit := queryInt(c, "limit", defaultItemsLimit)
	if limit < 1 || limit > maxItemsLimit {
		limit = defaultItemsLimit
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	items, err := h.items.List(c.Request.Context(), jobID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve items"})
		return
	}

	for _, item := range items {
		item.Content = truncate(item.Content, contentPreviewLen)
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

// Statistics handles GET /api/v1/scraping/statistics.
func (h *ScrapingHandler) Statistics(c *gin.Context) {
	stats, err := h.items.Statistics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statistics"})
		return
	}

	statuses := h.jobs.ListJobs()
	active := 0
	for _, s := range statuses {
		if !s.Status.Terminal() {
			active++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_items":           stats.TotalItems,
		"status_distribution":   stats.StatusDistribution,
		"language_distribution": stats.LanguageDistribution,
		"average_rating":        stats.AverageRating,
		"active_jobs":           active,
		"total_jobs":            len(statuses),
	})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
