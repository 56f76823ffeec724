package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/legalharvest/internal/database"
	"github.com/jonesrussell/legalharvest/internal/domain"
	"github.com/jonesrussell/legalharvest/internal/rating"
)

// Rater is the rating engine surface the handler needs.
type Rater interface {
	ReEvaluateItem(ctx context.Context, itemID, evaluator string) (*domain.RatingResult, error)
	RateAllUnrated(ctx context.Context, limit int) (*rating.SweepResult, error)
	LowQualityItems(ctx context.Context, threshold float64, limit int) ([]*domain.ScrapedItem, error)
	ItemHistory(ctx context.Context, itemID string) ([]*domain.RatingHistoryEntry, error)
}

// SummaryReader reads corpus-wide rating statistics.
type SummaryReader interface {
	Summary(ctx context.Context) (*database.RatingSummary, error)
}

// RatingHandler handles rating-related HTTP requests.
type RatingHandler struct {
	engine  Rater
	summary SummaryReader
}

// NewRatingHandler creates a new rating handler.
func NewRatingHandler(engine Rater, summary SummaryReader) *RatingHandler {
	return &RatingHandler{engine: engine, summary: summary}
}

// RateItem handles POST /api/v1/rating/items/:id.
func (h *RatingHandler) RateItem(c *gin.Context) {
	h.rate(c, rating.EvaluatorAuto)
}

// ReEvaluateItem handles POST /api/v1/rating/items/:id/re-evaluate.
func (h *RatingHandler) ReEvaluateItem(c *gin.Context) {
	h.rate(c, rating.EvaluatorManual)
}

func (h *RatingHandler) rate(c *gin.Context, evaluator string) {
	id := c.Param("id")

	result, err := h.engine.ReEvaluateItem(c.Request.Context(), id, evaluator)
	if err != nil {
		if errors.Is(err, rating.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rate item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item_id":       id,
		"rating_result": result,
	})
}

// RateUnrated handles POST /api/v1/rating/unrated.
func (h *RatingHandler) RateUnrated(c *gin.Context) {
	limit := queryInt(c, "limit", 0)

	res, err := h.engine.RateAllUnrated(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rate unrated items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rated_count":  res.Rated,
		"failed_count": res.Failed,
	})
}

// Summary handles GET /api/v1/rating/summary.
func (h *RatingHandler) Summary(c *gin.Context) {
	summary, err := h.summary.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rating summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ItemHistory handles GET /api/v1/rating/items/:id/history.
func (h *RatingHandler) ItemHistory(c *gin.Context) {
	id := c.Param("id")

	history, err := h.engine.ItemHistory(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rating history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item_id":       id,
		"history":       history,
		"total_changes": len(history),
	})
}

// LowQuality handles GET /api/v1/rating/low-quality.
func (h *RatingHandler) LowQuality(c *gin.Context) {
	threshold, err := strconv.ParseFloat(c.DefaultQuery("threshold", "0.4"), 64)
	if err != nil || threshold < 0 || threshold > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid threshold parameter"})
		return
	}
	limit := queryInt(c, "limit", 50)

	items, err := h.engine.LowQualityItems(c.Request.Context(), threshold, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve low quality items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"threshold":   threshold,
		"total_items": len(items),
		"items":       items,
	})
}
