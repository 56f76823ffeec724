package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/legalharvest/internal/domain"
)

// itemSelectColumns lists columns for SELECT queries on scraped_items.
const itemSelectColumns = `id, url, title, content, metadata, timestamp, source_url,
	rating_score, processing_status, error_message, strategy_used,
	content_hash, word_count, language, domain`

// ItemRepository handles database operations for scraped items.
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new item repository.
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create inserts a scraped item, replacing an existing row with the same id.
func (r *ItemRepository) Create(ctx context.Context, item *domain.ScrapedItem) error {
	query := `
		INSERT INTO scraped_items (id, url, title, content, metadata, timestamp, source_url,
			rating_score, processing_status, error_message, strategy_used,
			content_hash, word_count, language, domain)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			processing_status = EXCLUDED.processing_status,
			content_hash = EXCLUDED.content_hash,
			word_count = EXCLUDED.word_count
	`

	_, err := r.db.ExecContext(
		ctx, query,
		item.ID, item.URL, item.Title, item.Content, item.Metadata, item.Timestamp,
		item.SourceURL, item.RatingScore, item.Status, item.ErrorMsg, item.Strategy,
		item.ContentHash, item.WordCount, item.Language, item.Domain,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	return nil
}

// GetByID retrieves an item by its ID.
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*domain.ScrapedItem, error) {
	var item domain.ScrapedItem
	query := `SELECT ` + itemSelectColumns + ` FROM scraped_items WHERE id = $1`

	err := r.db.GetContext(ctx, &item, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return &item, nil
}

// List retrieves items newest first, optionally filtered by originating job.
func (r *ItemRepository) List(
	ctx context.Context,
	jobID string,
	limit, offset int,
) ([]*domain.ScrapedItem, error) {
	var items []*domain.ScrapedItem
	var query string
	var args []any

	if jobID != "" {
		query = `
			SELECT ` + itemSelectColumns + `
			FROM scraped_items
			WHERE metadata->>'job_id' = $1
			ORDER BY timestamp DESC
			LIMIT $2 OFFSET $3
		`
		args = []any{jobID, limit, offset}
	} else {
		query = `
			SELECT ` + itemSelectColumns + `
			FROM scraped_items
			ORDER BY timestamp DESC
			LIMIT $1 OFFSET $2
		`
		args = []any{limit, offset}
	}

	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return items, nil
}

// UpdateRating sets an item's stored score and marks it rated.
func (r *ItemRepository) UpdateRating(ctx context.Context, id string, score float64) error {
	query := `
		UPDATE scraped_items
		SET rating_score = $2, processing_status = $3
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, score, domain.ItemStatusRated)
	if err != nil {
		return fmt.Errorf("failed to update item rating: %w", err)
	}

	if rows, rowsErr := res.RowsAffected(); rowsErr == nil && rows == 0 {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}

	return nil
}

// ListUnrated retrieves items that have never received a rating.
func (r *ItemRepository) ListUnrated(ctx context.Context, limit int) ([]*domain.ScrapedItem, error) {
	var items []*domain.ScrapedItem
	query := `
		SELECT ` + itemSelectColumns + `
		FROM scraped_items
		WHERE rating_score = 0 AND processing_status != $1
		ORDER BY timestamp ASC
		LIMIT $2
	`

	if err := r.db.SelectContext(ctx, &items, query, domain.ItemStatusRated, limit); err != nil {
		return nil, fmt.Errorf("failed to list unrated items: %w", err)
	}

	return items, nil
}

// ListLowQuality retrieves rated items scoring below the threshold,
// worst first.
func (r *ItemRepository) ListLowQuality(
	ctx context.Context,
	threshold float64,
	limit int,
) ([]*domain.ScrapedItem, error) {
	var items []*domain.ScrapedItem
	query := `
		SELECT ` + itemSelectColumns + `
		FROM scraped_items
		WHERE rating_score < $1 AND rating_score > 0
		ORDER BY rating_score ASC
		LIMIT $2
	`

	if err := r.db.SelectContext(ctx, &items, query, threshold, limit); err != nil {
		return nil, fmt.Errorf("failed to list low quality items: %w", err)
	}

	return items, nil
}

// ItemStatistics holds corpus-wide scraping statistics.
type ItemStatistics struct {
	TotalItems           int
	StatusDistribution   map[string]int
	LanguageDistribution map[string]int
	AverageRating        float64
}

// Statistics aggregates item counts by status and language plus the
// average non-zero rating.
func (r *ItemRepository) Statistics(ctx context.Context) (*ItemStatistics, error) {
	stats := &ItemStatistics{
		StatusDistribution:   make(map[string]int),
		LanguageDistribution: make(map[string]int),
	}

	if err := r.db.GetContext(ctx, &stats.TotalItems,
		`SELECT COUNT(*) FROM scraped_items`); err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	if err := countsByColumn(ctx, r.db, "processing_status", stats.StatusDistribution); err != nil {
		return nil, err
	}
	if err := countsByColumn(ctx, r.db, "language", stats.LanguageDistribution); err != nil {
		return nil, err
	}

	var avg sql.NullFloat64
	if err := r.db.GetContext(ctx, &avg,
		`SELECT AVG(rating_score) FROM scraped_items WHERE rating_score > 0`); err != nil {
		return nil, fmt.Errorf("failed to average ratings: %w", err)
	}
	stats.AverageRating = avg.Float64

	return stats, nil
}

// countsByColumn fills dest with per-value row counts for the given column.
func countsByColumn(ctx context.Context, db *sqlx.DB, column string, dest map[string]int) error {
	// column is one of two compile-time constants, never user input.
	query := fmt.Sprintf(
		`SELECT %s AS value, COUNT(*) AS count FROM scraped_items GROUP BY %s`, column, column)

	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to count by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var value string
		var count int
		if scanErr := rows.Scan(&value, &count); scanErr != nil {
			return fmt.Errorf("failed to scan %s count: %w", column, scanErr)
		}
		dest[value] = count
	}

	return rows.Err()
}
