// Package jobs owns the scrape job lifecycle: registration, one runner
// goroutine per job, cooperative stop, and progress tracking.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/legalharvest/internal/domain"
	"github.com/jonesrussell/legalharvest/internal/fetcher"
	"github.com/jonesrussell/legalharvest/internal/logger"
)

// ErrJobNotFound is returned when a job id is not in the registry.
var ErrJobNotFound = errors.New("job not found")

// ErrNoURLs is returned when a job is started without target URLs.
var ErrNoURLs = errors.New("job requires at least one URL")

// PageFetcher fetches a single URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (*fetcher.Page, error)
}

// ItemStore persists scraped items.
type ItemStore interface {
	Create(ctx context.Context, item *domain.ScrapedItem) error
}

// JobStore persists job records and progress snapshots.
type JobStore interface {
	Create(ctx context.Context, job *domain.ScrapeJob) error
	UpdateProgress(ctx context.Context, id string, status domain.JobStatus, completed, failed int) error
}

// Config holds manager configuration.
type Config struct {
	DefaultDelay     time.Duration
	DefaultTimeout   time.Duration
	MinContentLength int
	// Selectors maps strategy names to their candidate selector lists.
	Selectors map[string][]string
}

// StartParams holds the parameters for starting a scrape job.
type StartParams struct {
	URLs         []string
	Strategy     domain.Strategy
	Keywords     []string
	ContentTypes []string
	MaxDepth     int
	Delay        time.Duration
	Timeout      time.Duration
}

// Status is a point-in-time snapshot of a job.
type Status struct {
	JobID          string           `json:"job_id"`
	Status         domain.JobStatus `json:"status"`
	Strategy       domain.Strategy  `json:"strategy"`
	TotalItems     int              `json:"total_items"`
	CompletedItems int              `json:"completed_items"`
	FailedItems    int              `json:"failed_items"`
	Progress       float64          `json:"progress"`
	CreatedAt      time.Time        `json:"created_at"`
}

// jobHandle pairs a job record with its runner's control surface so
// cancellation and completion are supervised, never fire-and-forget.
type jobHandle struct {
	mu     sync.Mutex
	job    *domain.ScrapeJob
	cancel context.CancelFunc
	done   chan struct{}
}

// snapshot returns a status copy under the handle lock.
func (h *jobHandle) snapshot() *Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return &Status{
		JobID:          h.job.ID,
		Status:         h.job.Status,
		Strategy:       h.job.Strategy,
		TotalItems:     h.job.TotalItems,
		CompletedItems: h.job.CompletedItems,
		FailedItems:    h.job.FailedItems,
		Progress:       h.job.Progress(),
		CreatedAt:      h.job.CreatedAt,
	}
}

// Manager owns the job registry. All mutation of active jobs goes through
// manager methods; each job record is written only by its own runner.
type Manager struct {
	mu      sync.Mutex
	jobs    map[string]*jobHandle
	fetcher PageFetcher
	items   ItemStore
	store   JobStore
	log     logger.Interface
	cfg     Config
}

// NewManager creates a job manager.
func NewManager(f PageFetcher, items ItemStore, store JobStore, log logger.Interface, cfg Config) *Manager {
	return &Manager{
		jobs:    make(map[string]*jobHandle),
		fetcher: f,
		items:   items,
		store:   store,
		log:     log.WithComponent("jobs"),
		cfg:     cfg,
	}
}

// StartJob registers a job and launches its runner goroutine. It returns
// the job id immediately; progress is queried via GetStatus.
func (m *Manager) StartJob(params StartParams) (string, error) {
	if len(params.URLs) == 0 {
		return "", ErrNoURLs
	}

	delay := params.Delay
	if delay == 0 {
		delay = m.cfg.DefaultDelay
	}
	if delay < 0 {
		delay = 0
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = m.cfg.DefaultTimeout
	}
	maxDepth := params.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 1
	}

	job := &domain.ScrapeJob{
		ID:           fmt.Sprintf("scrape_job_%s", uuid.NewString()),
		URLs:         params.URLs,
		Strategy:     domain.ParseStrategy(string(params.Strategy)),
		Keywords:     params.Keywords,
		ContentTypes: params.ContentTypes,
		MaxDepth:     maxDepth,
		Delay:        delay,
		Timeout:      timeout,
		CreatedAt:    time.Now().UTC(),
		Status:       domain.JobStatusPending,
		TotalItems:   len(params.URLs),
	}

	// The runner outlives the caller's request, so it gets its own context.
	ctx, cancel := context.WithCancel(context.Background())
	handle := &jobHandle{
		job:    job,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	m.jobs[job.ID] = handle
	m.mu.Unlock()

	if err := m.store.Create(ctx, job); err != nil {
		m.log.Error("failed to persist job", "job_id", job.ID, "error", err.Error())
	}

	go m.run(ctx, handle)

	m.log.Info("started scraping job", "job_id", job.ID, "urls", len(params.URLs),
		"strategy", job.Strategy)
	return job.ID, nil
}

// GetStatus returns a snapshot of the job, or ErrJobNotFound.
func (m *Manager) GetStatus(jobID string) (*Status, error) {
	handle := m.lookup(jobID)
	if handle == nil {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return handle.snapshot(), nil
}

// ListJobs returns snapshots of every job in the registry.
func (m *Manager) ListJobs() []*Status {
	m.mu.Lock()
	handles := make([]*jobHandle, 0, len(m.jobs))
	for _, h := range m.jobs {
		handles = append(handles, h)
	}
	m.mu.Unlock()

	statuses := make([]*Status, 0, len(handles))
	for _, h := range handles {
		statuses = append(statuses, h.snapshot())
	}
	return statuses
}

// StopJob requests a cooperative stop. The flag is observed between URLs,
// never interrupting an in-flight fetch. Returns false when the job is
// unknown or already terminal.
func (m *Manager) StopJob(jobID string) bool {
	handle := m.lookup(jobID)
	if handle == nil {
		return false
	}

	// Check and cancel under the handle lock so a runner writing its
	// terminal status cannot slip between the two.
	handle.mu.Lock()
	if handle.job.Status.Terminal() {
		handle.mu.Unlock()
		return false
	}
	handle.cancel()
	handle.mu.Unlock()
	m.log.Info("stop requested", "job_id", jobID)
	return true
}

// StopAll stops every active job and returns how many were signalled.
func (m *Manager) StopAll() int {
	stopped := 0
	for _, status := range m.ListJobs() {
		if m.StopJob(status.JobID) {
			stopped++
		}
	}
	return stopped
}

// Wait blocks until the job's runner has finished.
func (m *Manager) Wait(jobID string) error {
	handle := m.lookup(jobID)
	if handle == nil {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	<-handle.done
	return nil
}

// CleanupOldJobs drops terminal jobs older than the cutoff from the
// in-memory registry. Store records are untouched.
func (m *Manager) CleanupOldJobs(olderThan time.Duration) int {
	cutoff := time.Now().UTC().Add(-olderThan)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, handle := range m.jobs {
		handle.mu.Lock()
		old := handle.job.Status.Terminal() && handle.job.CreatedAt.Before(cutoff)
		handle.mu.Unlock()
		if old {
			delete(m.jobs, id)
			removed++
		}
	}

	if removed > 0 {
		m.log.Info("cleaned up old jobs", "removed", removed)
	}
	return removed
}

// lookup returns the handle for a job id, or nil.
func (m *Manager) lookup(jobID string) *jobHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[jobID]
}
