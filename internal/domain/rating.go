package domain

import (
	"time"
)

// Criterion names the six independent quality signals evaluated per item.
type Criterion string

// Rating criteria.
const (
	CriterionSourceCredibility   Criterion = "source_credibility"
	CriterionContentCompleteness Criterion = "content_completeness"
	CriterionExtractionAccuracy  Criterion = "extraction_accuracy"
	CriterionDataFreshness       Criterion = "data_freshness"
	CriterionContentRelevance    Criterion = "content_relevance"
	CriterionTechnicalQuality    Criterion = "technical_quality"
)

// Criteria lists all rating criteria in weight order.
var Criteria = []Criterion{
	CriterionSourceCredibility,
	CriterionContentCompleteness,
	CriterionExtractionAccuracy,
	CriterionDataFreshness,
	CriterionContentRelevance,
	CriterionTechnicalQuality,
}

// RatingLevel is the discrete quality bucket derived from an overall score.
type RatingLevel string

// Rating levels.
const (
	RatingExcellent RatingLevel = "excellent"
	RatingGood      RatingLevel = "good"
	RatingAverage   RatingLevel = "average"
	RatingPoor      RatingLevel = "poor"
	RatingUnrated   RatingLevel = "unrated"
)

// RatingResult is one immutable rating evaluation of an item.
// Multiple results may exist per item over time.
type RatingResult struct {
	ID             int64       `db:"id" json:"-"`
	ItemID         string      `db:"item_id" json:"item_id"`
	OverallScore   float64     `db:"overall_score" json:"overall_score"`
	CriteriaScores JSONBScores `db:"criteria_scores" json:"criteria_scores"`
	Level          RatingLevel `db:"rating_level" json:"rating_level"`
	Confidence     float64     `db:"confidence" json:"confidence"`
	Timestamp      time.Time   `db:"timestamp" json:"timestamp"`
	Evaluator      string      `db:"evaluator" json:"evaluator"`
	Notes          *string     `db:"notes" json:"notes,omitempty"`
}

// RatingHistoryEntry records a score change of more than the history
// epsilon. Append-only.
type RatingHistoryEntry struct {
	ID           int64     `db:"id" json:"-"`
	ItemID       string    `db:"item_id" json:"item_id"`
	OldScore     float64   `db:"old_score" json:"old_score"`
	NewScore     float64   `db:"new_score" json:"new_score"`
	ChangeReason string    `db:"change_reason" json:"change_reason"`
	Timestamp    time.Time `db:"timestamp" json:"timestamp"`
	Evaluator    string    `db:"evaluator" json:"evaluator"`
}
