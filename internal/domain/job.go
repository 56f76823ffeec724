// Package domain provides domain models used across the application.
package domain

import (
	"time"
)

// JobStatus is the lifecycle state of a scrape job.
type JobStatus string

// Job lifecycle states. A job moves pending -> processing -> one of the
// terminal states. Stopped jobs may leave completed+failed below total.
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusStopped    JobStatus = "stopped"
)

// Terminal reports whether the status is a terminal state.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusStopped:
		return true
	default:
		return false
	}
}

// ScrapeJob represents one request to scrape an ordered list of URLs
// under a single extraction strategy.
type ScrapeJob struct {
	ID             string        `db:"id" json:"job_id"`
	URLs           JSONBStrings  `db:"urls" json:"urls"`
	Strategy       Strategy      `db:"strategy" json:"strategy"`
	Keywords       JSONBStrings  `db:"keywords" json:"keywords,omitempty"`
	ContentTypes   JSONBStrings  `db:"content_types" json:"content_types,omitempty"`
	MaxDepth       int           `db:"max_depth" json:"max_depth"`
	Delay          time.Duration `db:"delay_ns" json:"delay_ns"`
	Timeout        time.Duration `db:"timeout_ns" json:"timeout_ns"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	Status         JobStatus     `db:"status" json:"status"`
	TotalItems     int           `db:"total_items" json:"total_items"`
	CompletedItems int           `db:"completed_items" json:"completed_items"`
	FailedItems    int           `db:"failed_items" json:"failed_items"`
}

// Progress returns the fraction of URLs that have been visited, in [0,1].
func (j *ScrapeJob) Progress() float64 {
	if j.TotalItems == 0 {
		return 0
	}
	return float64(j.CompletedItems+j.FailedItems) / float64(j.TotalItems)
}
