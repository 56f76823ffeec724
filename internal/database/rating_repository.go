package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/legalharvest/internal/domain"
)

// recentWindow is the lookback window for the recent-ratings count.
const recentWindow = 24 * time.Hour

// RatingRepository handles database operations for rating results and history.
type RatingRepository struct {
	db *sqlx.DB
}

// NewRatingRepository creates a new rating repository.
func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// CreateResult appends an immutable rating result.
func (r *RatingRepository) CreateResult(ctx context.Context, result *domain.RatingResult) error {
	query := `
		INSERT INTO rating_results (item_id, overall_score, criteria_scores,
			rating_level, confidence, timestamp, evaluator, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx, query,
		result.ItemID, result.OverallScore, result.CriteriaScores,
		result.Level, result.Confidence, result.Timestamp, result.Evaluator, result.Notes,
	).Scan(&result.ID)
	if err != nil {
		return fmt.Errorf("failed to create rating result: %w", err)
	}

	return nil
}

// AppendHistory appends a rating change entry.
func (r *RatingRepository) AppendHistory(ctx context.Context, entry *domain.RatingHistoryEntry) error {
	query := `
		INSERT INTO rating_history (item_id, old_score, new_score, change_reason, timestamp, evaluator)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx, query,
		entry.ItemID, entry.OldScore, entry.NewScore,
		entry.ChangeReason, entry.Timestamp, entry.Evaluator,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to append rating history: %w", err)
	}

	return nil
}

// HistoryByItem retrieves the change history of one item, newest first.
func (r *RatingRepository) HistoryByItem(
	ctx context.Context,
	itemID string,
) ([]*domain.RatingHistoryEntry, error) {
	var entries []*domain.RatingHistoryEntry
	query := `
		SELECT id, item_id, old_score, new_score, change_reason, timestamp, evaluator
		FROM rating_history
		WHERE item_id = $1
		ORDER BY timestamp DESC
	`

	if err := r.db.SelectContext(ctx, &entries, query, itemID); err != nil {
		return nil, fmt.Errorf("failed to get rating history: %w", err)
	}

	return entries, nil
}

// RatingSummary holds corpus-wide rating statistics.
type RatingSummary struct {
	TotalRated        int                `json:"total_rated"`
	AverageScore      float64            `json:"average_score"`
	MinScore          float64            `json:"min_score"`
	MaxScore          float64            `json:"max_score"`
	AverageConfidence float64            `json:"average_confidence"`
	LevelDistribution map[string]int     `json:"rating_level_distribution"`
	CriteriaAverages  map[string]float64 `json:"criteria_averages"`
	RecentRatings24h  int                `json:"recent_ratings_24h"`
}

// Summary aggregates all persisted rating results.
func (r *RatingRepository) Summary(ctx context.Context) (*RatingSummary, error) {
	summary := &RatingSummary{
		LevelDistribution: make(map[string]int),
		CriteriaAverages:  make(map[string]float64),
	}

	var stats struct {
		Total         int             `db:"total"`
		AvgScore      sql.NullFloat64 `db:"avg_score"`
		MinScore      sql.NullFloat64 `db:"min_score"`
		MaxScore      sql.NullFloat64 `db:"max_score"`
		AvgConfidence sql.NullFloat64 `db:"avg_confidence"`
	}
	err := r.db.GetContext(ctx, &stats, `
		SELECT COUNT(*) AS total,
			AVG(overall_score) AS avg_score,
			MIN(overall_score) AS min_score,
			MAX(overall_score) AS max_score,
			AVG(confidence) AS avg_confidence
		FROM rating_results
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate rating results: %w", err)
	}

	summary.TotalRated = stats.Total
	summary.AverageScore = stats.AvgScore.Float64
	summary.MinScore = stats.MinScore.Float64
	summary.MaxScore = stats.MaxScore.Float64
	summary.AverageConfidence = stats.AvgConfidence.Float64

	if err = r.levelDistribution(ctx, summary.LevelDistribution); err != nil {
		return nil, err
	}
	if err = r.criteriaAverages(ctx, summary.CriteriaAverages); err != nil {
		return nil, err
	}

	since := time.Now().UTC().Add(-recentWindow)
	if err = r.db.GetContext(ctx, &summary.RecentRatings24h,
		`SELECT COUNT(*) FROM rating_results WHERE timestamp > $1`, since); err != nil {
		return nil, fmt.Errorf("failed to count recent ratings: %w", err)
	}

	return summary, nil
}

// levelDistribution fills dest with per-level result counts.
func (r *RatingRepository) levelDistribution(ctx context.Context, dest map[string]int) error {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT rating_level, COUNT(*) FROM rating_results GROUP BY rating_level`)
	if err != nil {
		return fmt.Errorf("failed to count rating levels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var level string
		var count int
		if scanErr := rows.Scan(&level, &count); scanErr != nil {
			return fmt.Errorf("failed to scan rating level count: %w", scanErr)
		}
		dest[level] = count
	}

	return rows.Err()
}

// criteriaAverages averages each criterion over all persisted results.
// Averaged in SQL over the JSONB criterion maps.
func (r *RatingRepository) criteriaAverages(ctx context.Context, dest map[string]float64) error {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT kv.key, AVG(kv.value::float8)
		FROM rating_results, jsonb_each_text(criteria_scores) AS kv
		GROUP BY kv.key
	`)
	if err != nil {
		return fmt.Errorf("failed to average criteria: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var avg float64
		if scanErr := rows.Scan(&key, &avg); scanErr != nil {
			return fmt.Errorf("failed to scan criterion average: %w", scanErr)
		}
		dest[key] = avg
	}

	return rows.Err()
}
