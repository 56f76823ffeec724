// Package rating evaluates scraped item quality across six weighted
// criteria and maintains the per-item rating history.
package rating

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jonesrussell/legalharvest/internal/config"
	"github.com/jonesrussell/legalharvest/internal/database"
	"github.com/jonesrussell/legalharvest/internal/domain"
	"github.com/jonesrussell/legalharvest/internal/logger"
)

// historyEpsilon is the smallest score change worth a history entry.
const historyEpsilon = 0.01

// Default evaluator identities.
const (
	EvaluatorAuto   = "auto"
	EvaluatorManual = "manual"
)

// ErrItemNotFound indicates the referenced item does not exist.
var ErrItemNotFound = errors.New("item not found")

// ItemStore is the item persistence surface the engine needs.
type ItemStore interface {
	GetByID(ctx context.Context, id string) (*domain.ScrapedItem, error)
	UpdateRating(ctx context.Context, id string, score float64) error
	ListUnrated(ctx context.Context, limit int) ([]*domain.ScrapedItem, error)
	ListLowQuality(ctx context.Context, threshold float64, limit int) ([]*domain.ScrapedItem, error)
}

// ResultStore persists rating results and their change history.
type ResultStore interface {
	CreateResult(ctx context.Context, result *domain.RatingResult) error
	AppendHistory(ctx context.Context, entry *domain.RatingHistoryEntry) error
	HistoryByItem(ctx context.Context, itemID string) ([]*domain.RatingHistoryEntry, error)
}

// Engine scores items and records the outcome.
type Engine struct {
	items   ItemStore
	results ResultStore
	rules   *ruleset
	cfg     *config.RatingConfig
	log     logger.Interface
}

// NewEngine compiles the configured pattern sets and returns a ready
// engine. Pattern compilation errors are configuration errors and fail
// construction.
func NewEngine(
	items ItemStore,
	results ResultStore,
	cfg *config.RatingConfig,
	log logger.Interface,
) (*Engine, error) {
	rules, err := compileRules(cfg)
	if err != nil {
		return nil, fmt.Errorf("compile rating rules: %w", err)
	}
	return &Engine{
		items:   items,
		results: results,
		rules:   rules,
		cfg:     cfg,
		log:     log.WithComponent("rating"),
	}, nil
}

// Evaluate scores an item without persisting anything.
func (e *Engine) Evaluate(item *domain.ScrapedItem, evaluator string) *domain.RatingResult {
	now := time.Now().UTC()
	w := e.cfg.Weights

	scores := map[domain.Criterion]float64{
		domain.CriterionSourceCredibility:   e.rules.sourceCredibility(item),
		domain.CriterionContentCompleteness: e.rules.contentCompleteness(item),
		domain.CriterionExtractionAccuracy:  e.rules.extractionAccuracy(item),
		domain.CriterionDataFreshness:       e.rules.dataFreshness(item, now),
		domain.CriterionContentRelevance:    e.rules.contentRelevance(item),
		domain.CriterionTechnicalQuality:    e.rules.technicalQuality(item),
	}

	rounded := make(domain.JSONBScores, len(scores))
	for criterion, score := range scores {
		rounded[string(criterion)] = round3(score)
	}

	// The overall score is the weighted sum of the stored criterion
	// scores, so the two stay reconcilable after persistence.
	overall := rounded[string(domain.CriterionSourceCredibility)]*w.SourceCredibility +
		rounded[string(domain.CriterionContentCompleteness)]*w.ContentCompleteness +
		rounded[string(domain.CriterionExtractionAccuracy)]*w.ExtractionAccuracy +
		rounded[string(domain.CriterionDataFreshness)]*w.DataFreshness +
		rounded[string(domain.CriterionContentRelevance)]*w.ContentRelevance +
		rounded[string(domain.CriterionTechnicalQuality)]*w.TechnicalQuality

	return &domain.RatingResult{
		ItemID:         item.ID,
		OverallScore:   overall,
		CriteriaScores: rounded,
		Level:          e.level(overall),
		Confidence:     round3(confidence(scores)),
		Timestamp:      now,
		Evaluator:      evaluator,
	}
}

// RateItem evaluates an item and persists the result: a new immutable
// rating row, the item's rating score and status, and a history entry
// when the score moved by more than the epsilon.
func (e *Engine) RateItem(
	ctx context.Context,
	item *domain.ScrapedItem,
	evaluator string,
) (*domain.RatingResult, error) {
	result := e.Evaluate(item, evaluator)

	if err := e.results.CreateResult(ctx, result); err != nil {
		return nil, fmt.Errorf("store rating for %s: %w", item.ID, err)
	}

	oldScore := item.RatingScore
	if err := e.items.UpdateRating(ctx, item.ID, result.OverallScore); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, item.ID)
		}
		return nil, fmt.Errorf("update rating for %s: %w", item.ID, err)
	}

	if math.Abs(oldScore-result.OverallScore) > historyEpsilon {
		entry := &domain.RatingHistoryEntry{
			ItemID:       item.ID,
			OldScore:     oldScore,
			NewScore:     result.OverallScore,
			ChangeReason: "re-evaluation",
			Timestamp:    result.Timestamp,
			Evaluator:    evaluator,
		}
		if err := e.results.AppendHistory(ctx, entry); err != nil {
			return nil, fmt.Errorf("append history for %s: %w", item.ID, err)
		}
	}

	e.log.Info("rated item",
		"item_id", item.ID,
		"level", result.Level,
		"score", result.OverallScore)
	return result, nil
}

// ReEvaluateItem loads an item by id and rates it again.
func (e *Engine) ReEvaluateItem(
	ctx context.Context,
	itemID, evaluator string,
) (*domain.RatingResult, error) {
	item, err := e.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		return nil, fmt.Errorf("load item %s: %w", itemID, err)
	}
	return e.RateItem(ctx, item, evaluator)
}

// SweepResult summarizes one bulk rating pass.
type SweepResult struct {
	Rated  int `json:"rated"`
	Failed int `json:"failed"`
}

// RateAllUnrated rates every item that never received a score, up to
// limit (or the configured batch limit when limit is not positive),
// pausing between items. Per-item failures are counted, not fatal;
// context cancellation stops the sweep early.
func (e *Engine) RateAllUnrated(ctx context.Context, limit int) (*SweepResult, error) {
	if limit <= 0 {
		limit = e.cfg.SweepLimit
	}
	items, err := e.items.ListUnrated(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list unrated items: %w", err)
	}

	res := &SweepResult{}
	for i, item := range items {
		if i > 0 && e.cfg.SweepPause > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(e.cfg.SweepPause):
			}
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		if _, err := e.RateItem(ctx, item, EvaluatorAuto); err != nil {
			e.log.WithError(err).Warn("failed to rate item", "item_id", item.ID)
			res.Failed++
			continue
		}
		res.Rated++
	}

	e.log.Info("rating sweep finished", "rated", res.Rated, "failed", res.Failed)
	return res, nil
}

// LowQualityItems lists rated items scoring below the threshold,
// worst first.
func (e *Engine) LowQualityItems(
	ctx context.Context,
	threshold float64,
	limit int,
) ([]*domain.ScrapedItem, error) {
	if threshold <= 0 {
		threshold = 0.4
	}
	if limit <= 0 {
		limit = 50
	}
	return e.items.ListLowQuality(ctx, threshold, limit)
}

// ItemHistory returns the recorded score changes of one item, newest
// first.
func (e *Engine) ItemHistory(ctx context.Context, itemID string) ([]*domain.RatingHistoryEntry, error) {
	return e.results.HistoryByItem(ctx, itemID)
}

// level maps an overall score onto its discrete rating bucket.
func (e *Engine) level(score float64) domain.RatingLevel {
	t := e.cfg.Thresholds
	switch {
	case score >= t.Excellent:
		return domain.RatingExcellent
	case score >= t.Good:
		return domain.RatingGood
	case score >= t.Average:
		return domain.RatingAverage
	case score >= t.Poor:
		return domain.RatingPoor
	default:
		return domain.RatingUnrated
	}
}

// confidence is high when the criteria agree with each other: one
// minus the standard deviation of the six scores, floored at 0.5.
func confidence(scores map[domain.Criterion]float64) float64 {
	if len(scores) == 0 {
		return 0
	}

	mean := 0.0
	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))

	variance := 0.0
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
	}
	variance /= float64(len(scores))

	return math.Max(0.5, 1.0-math.Sqrt(variance))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
