package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/legalharvest/internal/domain"
)

// jobSelectColumns lists columns for SELECT queries on scrape_jobs.
const jobSelectColumns = `id, urls, strategy, keywords, content_types, max_depth,
	delay_ns, timeout_ns, created_at, status, total_items, completed_items, failed_items`

// JobRepository handles database operations for scrape jobs.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository creates a new job repository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new scrape job.
func (r *JobRepository) Create(ctx context.Context, job *domain.ScrapeJob) error {
	query := `
		INSERT INTO scrape_jobs (id, urls, strategy, keywords, content_types, max_depth,
			delay_ns, timeout_ns, created_at, status, total_items, completed_items, failed_items)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(
		ctx, query,
		job.ID, job.URLs, job.Strategy, job.Keywords, job.ContentTypes,
		job.MaxDepth, int64(job.Delay), int64(job.Timeout), job.CreatedAt,
		job.Status, job.TotalItems, job.CompletedItems, job.FailedItems,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// UpdateProgress updates a job's status and counters.
func (r *JobRepository) UpdateProgress(
	ctx context.Context,
	id string,
	status domain.JobStatus,
	completed, failed int,
) error {
	query := `
		UPDATE scrape_jobs
		SET status = $2, completed_items = $3, failed_items = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, status, completed, failed)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}

	return nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.ScrapeJob, error) {
	var job domain.ScrapeJob
	query := `SELECT ` + jobSelectColumns + ` FROM scrape_jobs WHERE id = $1`

	err := r.db.GetContext(ctx, &job, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// List retrieves jobs ordered by creation time, newest first.
func (r *JobRepository) List(ctx context.Context, limit, offset int) ([]*domain.ScrapeJob, error) {
	var jobs []*domain.ScrapeJob
	query := `
		SELECT ` + jobSelectColumns + `
		FROM scrape_jobs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	if err := r.db.SelectContext(ctx, &jobs, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}
