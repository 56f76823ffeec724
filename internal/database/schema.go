package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements creates the record store tables when missing.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS scrape_jobs (
		id TEXT PRIMARY KEY,
		urls JSONB NOT NULL,
		strategy TEXT NOT NULL DEFAULT 'general',
		keywords JSONB,
		content_types JSONB,
		max_depth INTEGER NOT NULL DEFAULT 1,
		delay_ns BIGINT NOT NULL DEFAULT 0,
		timeout_ns BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		status TEXT NOT NULL DEFAULT 'pending',
		total_items INTEGER NOT NULL DEFAULT 0,
		completed_items INTEGER NOT NULL DEFAULT 0,
		failed_items INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS scraped_items (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		metadata JSONB NOT NULL DEFAULT '{}',
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		source_url TEXT NOT NULL DEFAULT '',
		rating_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		processing_status TEXT NOT NULL DEFAULT 'pending',
		error_message TEXT,
		strategy_used TEXT NOT NULL DEFAULT 'general',
		content_hash TEXT NOT NULL DEFAULT '',
		word_count INTEGER NOT NULL DEFAULT 0,
		language TEXT NOT NULL DEFAULT 'unknown',
		domain TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS rating_results (
		id BIGSERIAL PRIMARY KEY,
		item_id TEXT NOT NULL,
		overall_score DOUBLE PRECISION NOT NULL,
		criteria_scores JSONB NOT NULL DEFAULT '{}',
		rating_level TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		evaluator TEXT NOT NULL DEFAULT 'auto',
		notes TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS rating_history (
		id BIGSERIAL PRIMARY KEY,
		item_id TEXT NOT NULL,
		old_score DOUBLE PRECISION NOT NULL,
		new_score DOUBLE PRECISION NOT NULL,
		change_reason TEXT NOT NULL DEFAULT '',
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		evaluator TEXT NOT NULL DEFAULT 'auto'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scraped_items_rating ON scraped_items (rating_score)`,
	`CREATE INDEX IF NOT EXISTS idx_scraped_items_status ON scraped_items (processing_status)`,
	`CREATE INDEX IF NOT EXISTS idx_rating_results_item ON rating_results (item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rating_history_item ON rating_history (item_id)`,
}

// EnsureSchema creates the required tables and indexes when missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
