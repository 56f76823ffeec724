package jobs

import (
	"context"
	"time"

	"github.com/jonesrussell/legalharvest/internal/domain"
	"github.com/jonesrussell/legalharvest/internal/extractor"
	"github.com/jonesrussell/legalharvest/internal/scraper"
)

// run drives one job to a terminal state. It is the only writer of the
// job record after registration. Per-URL failures are isolated; only a
// defect in the orchestration itself fails the whole job.
func (m *Manager) run(ctx context.Context, handle *jobHandle) {
	defer close(handle.done)

	jobID := handle.job.ID
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("scraping job panicked", "job_id", jobID, "panic", r)
			m.finish(handle, domain.JobStatusFailed)
		}
	}()

	handle.mu.Lock()
	handle.job.Status = domain.JobStatusProcessing
	urls := handle.job.URLs
	strategy := handle.job.Strategy
	delay := handle.job.Delay
	timeout := handle.job.Timeout
	handle.mu.Unlock()
	m.persistProgress(handle)

	strat := extractor.ForStrategy(strategy, m.cfg.Selectors)

	for i, url := range urls {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
		}

		// The stop flag is consulted once per iteration, between URLs.
		select {
		case <-ctx.Done():
			m.log.Info("scraping job stopped", "job_id", jobID, "visited", i)
			m.finish(handle, domain.JobStatusStopped)
			return
		default:
		}

		// The fetch itself runs on a detached context so a stop request
		// never preempts an in-flight request; it takes effect at the
		// next iteration.
		item := m.scrapeURL(context.Background(), url, jobID, strat, timeout)

		handle.mu.Lock()
		if item != nil {
			handle.job.CompletedItems++
		} else {
			handle.job.FailedItems++
		}
		handle.mu.Unlock()
		m.persistProgress(handle)
	}

	m.finish(handle, domain.JobStatusCompleted)
	m.log.Info("scraping job completed", "job_id", jobID)
}

// scrapeURL fetches, extracts and stores one URL. Any failure (transport
// error, non-HTML response, insufficient content) yields nil and is
// counted as a failed item by the caller; the two cases share one counter.
func (m *Manager) scrapeURL(
	ctx context.Context,
	url, jobID string,
	strat extractor.Strategy,
	timeout time.Duration,
) *domain.ScrapedItem {
	page, err := m.fetcher.Fetch(ctx, url, timeout)
	if err != nil {
		m.log.Warn("fetch failed", "job_id", jobID, "url", url, "error", err.Error())
		return nil
	}
	if page == nil {
		return nil
	}

	doc, err := extractor.Parse(page.Body)
	if err != nil {
		m.log.Warn("parse failed", "job_id", jobID, "url", url, "error", err.Error())
		return nil
	}

	title, content := strat.Extract(doc)
	if len(content) < m.cfg.MinContentLength {
		m.log.Warn("insufficient content", "job_id", jobID, "url", url, "length", len(content))
		return nil
	}

	item := scraper.BuildItem(scraper.BuildInput{
		URL:          url,
		Title:        title,
		Content:      content,
		ContentType:  page.ContentType,
		Encoding:     page.Encoding,
		ResponseTime: page.Header.Get("Server-Timing"),
		JobID:        jobID,
		Strategy:     strat.Name(),
		Timestamp:    time.Now().UTC(),
	})

	// Best-effort persistence: a store failure is logged and the item
	// still counts as completed.
	if storeErr := m.items.Create(ctx, item); storeErr != nil {
		m.log.Error("failed to store item", "job_id", jobID, "url", url,
			"error", storeErr.Error())
	}

	m.log.Info("scraped url", "job_id", jobID, "url", url, "words", item.WordCount)
	return item
}

// finish sets a terminal status and persists the final counters.
func (m *Manager) finish(handle *jobHandle, status domain.JobStatus) {
	handle.mu.Lock()
	handle.job.Status = status
	handle.mu.Unlock()
	m.persistProgress(handle)
}

// persistProgress writes the current counters to the store, best-effort.
// The store context is detached from the runner so a stop request does
// not lose the final status write.
func (m *Manager) persistProgress(handle *jobHandle) {
	handle.mu.Lock()
	id := handle.job.ID
	status := handle.job.Status
	completed := handle.job.CompletedItems
	failed := handle.job.FailedItems
	handle.mu.Unlock()

	if err := m.store.UpdateProgress(context.Background(), id, status, completed, failed); err != nil {
		m.log.Error("failed to persist job progress", "job_id", id, "error", err.Error())
	}
}
