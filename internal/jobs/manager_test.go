package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/legalharvest/internal/domain"
	"github.com/jonesrussell/legalharvest/internal/fetcher"
	"github.com/jonesrussell/legalharvest/internal/jobs"
	"github.com/jonesrussell/legalharvest/internal/logger"
)

const waitTimeout = 10 * time.Second

var testSelectors = map[string][]string{
	"legal_documents": {
		"article", ".legal-content", ".document-content",
		".legal-text", ".document-text", "main",
	},
}

// --- Mock stores ---

// mockItemStore records created items.
type mockItemStore struct {
	mu        sync.Mutex
	items     []*domain.ScrapedItem
	createErr error
}

func (m *mockItemStore) Create(_ context.Context, item *domain.ScrapedItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.items = append(m.items, item)
	return nil
}

func (m *mockItemStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// mockJobStore records job snapshots and asserts the counter invariant
// on every write.
type mockJobStore struct {
	mu      sync.Mutex
	t       *testing.T
	created []*domain.ScrapeJob
	updates []progressUpdate
}

type progressUpdate struct {
	Status    domain.JobStatus
	Completed int
	Failed    int
}

func (m *mockJobStore) Create(_ context.Context, job *domain.ScrapeJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, job)
	return nil
}

func (m *mockJobStore) UpdateProgress(
	_ context.Context,
	id string,
	status domain.JobStatus,
	completed, failed int,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, progressUpdate{Status: status, Completed: completed, Failed: failed})
	return nil
}

func (m *mockJobStore) lastUpdate() progressUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(m.t, m.updates)
	return m.updates[len(m.updates)-1]
}

func newManager(t *testing.T, itemStore *mockItemStore, jobStore *mockJobStore) *jobs.Manager {
	t.Helper()
	f := fetcher.New("TestBot/1.0", logger.NewNoOp())
	return jobs.NewManager(f, itemStore, jobStore, logger.NewNoOp(), jobs.Config{
		DefaultTimeout:   5 * time.Second,
		MinContentLength: 50,
		Selectors:        testSelectors,
	})
}

// legalPage renders an HTML legal document with roughly n words.
func legalPage(n int) string {
	words := make([]string, 0, n)
	for i := 0; i < n; i++ {
		words = append(words, fmt.Sprintf("word%d", i))
	}
	return `<html><head><title>Ruling</title></head><body><article>` +
		strings.Join(words, " ") + `</article></body></html>`
}

func TestStartJob_RequiresURLs(t *testing.T) {
	m := newManager(t, &mockItemStore{}, &mockJobStore{t: t})

	_, err := m.StartJob(jobs.StartParams{Strategy: domain.StrategyGeneral})
	require.ErrorIs(t, err, jobs.ErrNoURLs)
}

func TestStartJob_AppliesConfiguredDefaultDelay(t *testing.T) {
	// A job started without an explicit delay pauses for the configured
	// default between URLs.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(legalPage(100)))
	}))
	defer srv.Close()

	jobStore := &mockJobStore{t: t}
	f := fetcher.New("TestBot/1.0", logger.NewNoOp())
	m := jobs.NewManager(f, &mockItemStore{}, jobStore, logger.NewNoOp(), jobs.Config{
		DefaultDelay:     150 * time.Millisecond,
		DefaultTimeout:   5 * time.Second,
		MinContentLength: 50,
		Selectors:        testSelectors,
	})

	urls := make([]string, 3)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/%d", srv.URL, i)
	}

	start := time.Now()
	jobID, err := m.StartJob(jobs.StartParams{URLs: urls, Strategy: domain.StrategyGeneral})
	require.NoError(t, err)
	require.NoError(t, m.Wait(jobID))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 300*time.Millisecond,
		"three URLs without an explicit delay take two default-length pauses")

	jobStore.mu.Lock()
	recorded := jobStore.created[0].Delay
	jobStore.mu.Unlock()
	assert.Equal(t, 150*time.Millisecond, recorded)
}

func TestStartJob_ExplicitDelayOverridesDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(legalPage(100)))
	}))
	defer srv.Close()

	jobStore := &mockJobStore{t: t}
	f := fetcher.New("TestBot/1.0", logger.NewNoOp())
	m := jobs.NewManager(f, &mockItemStore{}, jobStore, logger.NewNoOp(), jobs.Config{
		DefaultDelay:     time.Hour,
		DefaultTimeout:   5 * time.Second,
		MinContentLength: 50,
		Selectors:        testSelectors,
	})

	jobID, err := m.StartJob(jobs.StartParams{
		URLs:  []string{srv.URL},
		Delay: 25 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, m.Wait(jobID))

	jobID2, err := m.StartJob(jobs.StartParams{
		URLs:  []string{srv.URL},
		Delay: -time.Second,
	})
	require.NoError(t, err)
	require.NoError(t, m.Wait(jobID2))

	jobStore.mu.Lock()
	defer jobStore.mu.Unlock()
	require.Len(t, jobStore.created, 2)
	assert.Equal(t, 25*time.Millisecond, jobStore.created[0].Delay)
	assert.Zero(t, jobStore.created[1].Delay, "negative delays are clamped, not defaulted")
}

func TestJob_MixedResults(t *testing.T) {
	// Scenario: a 404, a valid legal page, and a page below the minimum
	// content length. One completed, two failed, job completes.
	mux := http.NewServeMux()
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/legal", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(legalPage(1200)))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><article>short</article></body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	itemStore := &mockItemStore{}
	jobStore := &mockJobStore{t: t}
	m := newManager(t, itemStore, jobStore)

	jobID, err := m.StartJob(jobs.StartParams{
		URLs:     []string{srv.URL + "/missing", srv.URL + "/legal", srv.URL + "/empty"},
		Strategy: domain.StrategyLegalDocuments,
	})
	require.NoError(t, err)
	require.NoError(t, m.Wait(jobID))

	status, err := m.GetStatus(jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, status.Status)
	assert.Equal(t, 3, status.TotalItems)
	assert.Equal(t, 1, status.CompletedItems)
	assert.Equal(t, 2, status.FailedItems)
	assert.InDelta(t, 1.0, status.Progress, 1e-9)

	require.Equal(t, 1, itemStore.count())
	assert.Equal(t, 1200, itemStore.items[0].WordCount)
	assert.Equal(t, jobID, itemStore.items[0].Metadata["job_id"])
}

func TestJob_CounterInvariant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(legalPage(100)))
	}))
	defer srv.Close()

	jobStore := &mockJobStore{t: t}
	m := newManager(t, &mockItemStore{}, jobStore)

	urls := make([]string, 4)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/%d", srv.URL, i)
	}

	jobID, err := m.StartJob(jobs.StartParams{URLs: urls, Strategy: domain.StrategyGeneral})
	require.NoError(t, err)
	require.NoError(t, m.Wait(jobID))

	// completed+failed never exceeds total in any persisted snapshot,
	// and equals total at the terminal status.
	jobStore.mu.Lock()
	defer jobStore.mu.Unlock()
	for _, u := range jobStore.updates {
		assert.LessOrEqual(t, u.Completed+u.Failed, 4)
	}
	last := jobStore.updates[len(jobStore.updates)-1]
	assert.Equal(t, domain.JobStatusCompleted, last.Status)
	assert.Equal(t, 4, last.Completed+last.Failed)
}

func TestStopJob_CooperativeStop(t *testing.T) {
	// Scenario: five URLs, stop requested after the first completes.
	// The job ends stopped with fewer than five URLs visited and no
	// fetches after the flag is observed.
	var mu sync.Mutex
	var requests int
	firstDone := make(chan struct{})
	var once sync.Once

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(legalPage(100)))
		once.Do(func() { close(firstDone) })
	}))
	defer srv.Close()

	m := newManager(t, &mockItemStore{}, &mockJobStore{t: t})

	urls := make([]string, 5)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/%d", srv.URL, i)
	}

	jobID, err := m.StartJob(jobs.StartParams{
		URLs:     urls,
		Strategy: domain.StrategyGeneral,
		Delay:    300 * time.Millisecond,
	})
	require.NoError(t, err)

	select {
	case <-firstDone:
	case <-time.After(waitTimeout):
		t.Fatal("first URL was never fetched")
	}
	require.True(t, m.StopJob(jobID))
	require.NoError(t, m.Wait(jobID))

	status, err := m.GetStatus(jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusStopped, status.Status)
	assert.Less(t, status.CompletedItems+status.FailedItems, 5)

	mu.Lock()
	fetched := requests
	mu.Unlock()
	assert.Less(t, fetched, 5, "no further URLs may be fetched after the stop flag is observed")
}

func TestStopJob_UnknownOrTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(legalPage(100)))
	}))
	defer srv.Close()

	m := newManager(t, &mockItemStore{}, &mockJobStore{t: t})

	assert.False(t, m.StopJob("no-such-job"))

	jobID, err := m.StartJob(jobs.StartParams{URLs: []string{srv.URL}})
	require.NoError(t, err)
	require.NoError(t, m.Wait(jobID))

	assert.False(t, m.StopJob(jobID), "terminal jobs cannot be stopped")
}

func TestStopJob_RacesWithCompletion(t *testing.T) {
	// Stop requests racing the runner's terminal write must never
	// report true for a job that is already terminal.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(legalPage(100)))
	}))
	defer srv.Close()

	m := newManager(t, &mockItemStore{}, &mockJobStore{t: t})

	for i := 0; i < 20; i++ {
		jobID, err := m.StartJob(jobs.StartParams{URLs: []string{srv.URL}})
		require.NoError(t, err)

		stopped := make(chan bool, 1)
		go func() { stopped <- m.StopJob(jobID) }()
		require.NoError(t, m.Wait(jobID))
		<-stopped

		assert.False(t, m.StopJob(jobID), "a finished job never accepts a stop")

		status, err := m.GetStatus(jobID)
		require.NoError(t, err)
		assert.True(t, status.Status.Terminal())
	}
}

func TestJob_StoreFailureStillAdvancesCounters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(legalPage(100)))
	}))
	defer srv.Close()

	itemStore := &mockItemStore{createErr: errors.New("store unreachable")}
	m := newManager(t, itemStore, &mockJobStore{t: t})

	jobID, err := m.StartJob(jobs.StartParams{URLs: []string{srv.URL}})
	require.NoError(t, err)
	require.NoError(t, m.Wait(jobID))

	status, err := m.GetStatus(jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, status.Status)
	assert.Equal(t, 1, status.CompletedItems, "write failures do not roll back counters")
}

func TestGetStatus_NotFound(t *testing.T) {
	m := newManager(t, &mockItemStore{}, &mockJobStore{t: t})

	_, err := m.GetStatus("missing")
	require.ErrorIs(t, err, jobs.ErrJobNotFound)
}

func TestCleanupOldJobs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(legalPage(100)))
	}))
	defer srv.Close()

	m := newManager(t, &mockItemStore{}, &mockJobStore{t: t})

	jobID, err := m.StartJob(jobs.StartParams{URLs: []string{srv.URL}})
	require.NoError(t, err)
	require.NoError(t, m.Wait(jobID))

	// Terminal but not old enough.
	assert.Zero(t, m.CleanupOldJobs(time.Hour))
	assert.Len(t, m.ListJobs(), 1)

	// Anything terminal qualifies with a negative cutoff.
	assert.Equal(t, 1, m.CleanupOldJobs(-time.Hour))
	assert.Empty(t, m.ListJobs())
}
