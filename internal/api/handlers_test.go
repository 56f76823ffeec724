package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/legalharvest/internal/api"
	"github.com/jonesrussell/legalharvest/internal/database"
	"github.com/jonesrussell/legalharvest/internal/domain"
	"github.com/jonesrussell/legalharvest/internal/jobs"
	"github.com/jonesrussell/legalharvest/internal/logger"
	"github.com/jonesrussell/legalharvest/internal/rating"
)

// mockJobController implements api.JobController for testing.
type mockJobController struct {
	startFunc    func(params jobs.StartParams) (string, error)
	statuses     map[string]*jobs.Status
	stopped      []string
	stopAllCount int
	cleanupArg   time.Duration
}

func (m *mockJobController) StartJob(params jobs.StartParams) (string, error) {
	if m.startFunc != nil {
		return m.startFunc(params)
	}
	return "scrape_job_test", nil
}

func (m *mockJobController) GetStatus(jobID string) (*jobs.Status, error) {
	if s, ok := m.statuses[jobID]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s", jobs.ErrJobNotFound, jobID)
}

func (m *mockJobController) ListJobs() []*jobs.Status {
	out := make([]*jobs.Status, 0, len(m.statuses))
	for _, s := range m.statuses {
		out = append(out, s)
	}
	return out
}

func (m *mockJobController) StopJob(jobID string) bool {
	if _, ok := m.statuses[jobID]; !ok {
		return false
	}
	m.stopped = append(m.stopped, jobID)
	return true
}

func (m *mockJobController) StopAll() int {
	return m.stopAllCount
}

func (m *mockJobController) CleanupOldJobs(olderThan time.Duration) int {
	m.cleanupArg = olderThan
	return 2
}

// mockItemReader implements api.ItemReader for testing.
type mockItemReader struct {
	items   []*domain.ScrapedItem
	listErr error
}

func (m *mockItemReader) List(
	_ context.Context,
	_ string,
	_, _ int,
) ([]*domain.ScrapedItem, error) {
	return m.items, m.listErr
}

func (m *mockItemReader) Statistics(_ context.Context) (*database.ItemStatistics, error) {
	return &database.ItemStatistics{
		TotalItems:           3,
		StatusDistribution:   map[string]int{"completed": 2, "rated": 1},
		LanguageDistribution: map[string]int{"persian": 3},
		AverageRating:        0.71,
	}, nil
}

// mockRater implements api.Rater for testing.
type mockRater struct {
	evaluators []string
	rateErr    error
	history    []*domain.RatingHistoryEntry
	lowQuality []*domain.ScrapedItem
}

func (m *mockRater) ReEvaluateItem(
	_ context.Context,
	itemID, evaluator string,
) (*domain.RatingResult, error) {
	if m.rateErr != nil {
		return nil, m.rateErr
	}
	m.evaluators = append(m.evaluators, evaluator)
	return &domain.RatingResult{
		ItemID:       itemID,
		OverallScore: 0.75,
		Level:        domain.RatingGood,
		Confidence:   0.9,
		Evaluator:    evaluator,
	}, nil
}

func (m *mockRater) RateAllUnrated(_ context.Context, _ int) (*rating.SweepResult, error) {
	return &rating.SweepResult{Rated: 4, Failed: 1}, nil
}

func (m *mockRater) LowQualityItems(
	_ context.Context,
	_ float64,
	_ int,
) ([]*domain.ScrapedItem, error) {
	return m.lowQuality, nil
}

func (m *mockRater) ItemHistory(
	_ context.Context,
	_ string,
) ([]*domain.RatingHistoryEntry, error) {
	return m.history, nil
}

// mockSummaryReader implements api.SummaryReader for testing.
type mockSummaryReader struct{}

func (m *mockSummaryReader) Summary(_ context.Context) (*database.RatingSummary, error) {
	return &database.RatingSummary{
		TotalRated:        12,
		AverageScore:      0.64,
		LevelDistribution: map[string]int{"good": 8, "average": 4},
		CriteriaAverages:  map[string]float64{"source_credibility": 0.7},
	}, nil
}

func newRouter(jc *mockJobController, items *mockItemReader, rater *mockRater) *gin.Engine {
	scraping := api.NewScrapingHandler(jc, items)
	ratingH := api.NewRatingHandler(rater, &mockSummaryReader{})
	return api.SetupRouter(logger.NewNoOp(), scraping, ratingH)
}

func doRequest(
	t *testing.T,
	router *gin.Engine,
	method, path string,
	body any,
) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var parsed map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func TestCreateJob(t *testing.T) {
	jc := &mockJobController{}
	router := newRouter(jc, &mockItemReader{}, &mockRater{})

	w, body := doRequest(t, router, http.MethodPost, "/api/v1/scraping/jobs", gin.H{
		"urls":     []string{"https://court.gov.ir/a"},
		"strategy": "legal_documents",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "scrape_job_test", body["job_id"])
	assert.Equal(t, "started", body["status"])
}

func TestCreateJob_MissingURLs(t *testing.T) {
	router := newRouter(&mockJobController{}, &mockItemReader{}, &mockRater{})

	w, _ := doRequest(t, router, http.MethodPost, "/api/v1/scraping/jobs", gin.H{
		"strategy": "general",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateJob_NoURLsError(t *testing.T) {
	jc := &mockJobController{
		startFunc: func(jobs.StartParams) (string, error) {
			return "", jobs.ErrNoURLs
		},
	}
	router := newRouter(jc, &mockItemReader{}, &mockRater{})

	w, _ := doRequest(t, router, http.MethodPost, "/api/v1/scraping/jobs", gin.H{
		"urls": []string{"https://example.com"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetJob(t *testing.T) {
	jc := &mockJobController{statuses: map[string]*jobs.Status{
		"scrape_job_1": {JobID: "scrape_job_1", Status: domain.JobStatusProcessing, TotalItems: 3},
	}}
	router := newRouter(jc, &mockItemReader{}, &mockRater{})

	w, body := doRequest(t, router, http.MethodGet, "/api/v1/scraping/jobs/scrape_job_1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "scrape_job_1", body["job_id"])

	w, _ = doRequest(t, router, http.MethodGet, "/api/v1/scraping/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStopJob(t *testing.T) {
	jc := &mockJobController{statuses: map[string]*jobs.Status{
		"scrape_job_1": {JobID: "scrape_job_1", Status: domain.JobStatusProcessing},
	}}
	router := newRouter(jc, &mockItemReader{}, &mockRater{})

	w, body := doRequest(t, router, http.MethodPost, "/api/v1/scraping/jobs/scrape_job_1/stop", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stopped", body["status"])
	assert.Equal(t, []string{"scrape_job_1"}, jc.stopped)

	w, _ = doRequest(t, router, http.MethodPost, "/api/v1/scraping/jobs/missing/stop", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStopAll(t *testing.T) {
	jc := &mockJobController{stopAllCount: 3}
	router := newRouter(jc, &mockItemReader{}, &mockRater{})

	w, body := doRequest(t, router, http.MethodPost, "/api/v1/scraping/stop", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), body["stopped_count"])
}

func TestCleanup(t *testing.T) {
	jc := &mockJobController{}
	router := newRouter(jc, &mockItemReader{}, &mockRater{})

	w, body := doRequest(t, router, http.MethodPost, "/api/v1/scraping/cleanup?days=3", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["removed"])
	assert.Equal(t, 3*24*time.Hour, jc.cleanupArg)

	w, _ = doRequest(t, router, http.MethodPost, "/api/v1/scraping/cleanup?days=zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListItems_TruncatesContent(t *testing.T) {
	long := strings.Repeat("ماده", 300)
	items := &mockItemReader{items: []*domain.ScrapedItem{
		{ID: "item_1", Content: long},
		{ID: "item_2", Content: "short"},
	}}
	router := newRouter(&mockJobController{}, items, &mockRater{})

	w, body := doRequest(t, router, http.MethodGet, "/api/v1/scraping/items", nil)
	require.Equal(t, http.StatusOK, w.Code)

	listed, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, listed, 2)

	first := listed[0].(map[string]any)
	assert.Len(t, []rune(first["content"].(string)), 500)
	second := listed[1].(map[string]any)
	assert.Equal(t, "short", second["content"])
}

func TestListItems_StoreError(t *testing.T) {
	items := &mockItemReader{listErr: errors.New("db down")}
	router := newRouter(&mockJobController{}, items, &mockRater{})

	w, _ := doRequest(t, router, http.MethodGet, "/api/v1/scraping/items", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStatistics(t *testing.T) {
	jc := &mockJobController{statuses: map[string]*jobs.Status{
		"a": {JobID: "a", Status: domain.JobStatusProcessing},
		"b": {JobID: "b", Status: domain.JobStatusCompleted},
	}}
	router := newRouter(jc, &mockItemReader{}, &mockRater{})

	w, body := doRequest(t, router, http.MethodGet, "/api/v1/scraping/statistics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), body["total_items"])
	assert.Equal(t, float64(1), body["active_jobs"])
	assert.Equal(t, float64(2), body["total_jobs"])
}

func TestRateItem_UsesAutoEvaluator(t *testing.T) {
	rater := &mockRater{}
	router := newRouter(&mockJobController{}, &mockItemReader{}, rater)

	w, body := doRequest(t, router, http.MethodPost, "/api/v1/rating/items/item_1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "item_1", body["item_id"])
	assert.Equal(t, []string{rating.EvaluatorAuto}, rater.evaluators)
}

func TestReEvaluateItem_UsesManualEvaluator(t *testing.T) {
	rater := &mockRater{}
	router := newRouter(&mockJobController{}, &mockItemReader{}, rater)

	w, _ := doRequest(t, router, http.MethodPost, "/api/v1/rating/items/item_1/re-evaluate", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{rating.EvaluatorManual}, rater.evaluators)
}

func TestRateItem_NotFound(t *testing.T) {
	rater := &mockRater{rateErr: fmt.Errorf("%w: item_x", rating.ErrItemNotFound)}
	router := newRouter(&mockJobController{}, &mockItemReader{}, rater)

	w, _ := doRequest(t, router, http.MethodPost, "/api/v1/rating/items/item_x", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateUnrated(t *testing.T) {
	router := newRouter(&mockJobController{}, &mockItemReader{}, &mockRater{})

	w, body := doRequest(t, router, http.MethodPost, "/api/v1/rating/unrated?limit=10", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(4), body["rated_count"])
	assert.Equal(t, float64(1), body["failed_count"])
}

func TestRatingSummary(t *testing.T) {
	router := newRouter(&mockJobController{}, &mockItemReader{}, &mockRater{})

	w, body := doRequest(t, router, http.MethodGet, "/api/v1/rating/summary", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(12), body["total_rated"])
}

func TestItemHistory(t *testing.T) {
	rater := &mockRater{history: []*domain.RatingHistoryEntry{
		{ItemID: "item_1", OldScore: 0, NewScore: 0.7},
	}}
	router := newRouter(&mockJobController{}, &mockItemReader{}, rater)

	w, body := doRequest(t, router, http.MethodGet, "/api/v1/rating/items/item_1/history", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["total_changes"])
}

func TestLowQuality(t *testing.T) {
	rater := &mockRater{lowQuality: []*domain.ScrapedItem{{ID: "item_1", RatingScore: 0.2}}}
	router := newRouter(&mockJobController{}, &mockItemReader{}, rater)

	w, body := doRequest(t, router, http.MethodGet, "/api/v1/rating/low-quality?threshold=0.3", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["total_items"])

	w, _ = doRequest(t, router, http.MethodGet, "/api/v1/rating/low-quality?threshold=nine", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	jc := &mockJobController{statuses: map[string]*jobs.Status{
		"a": {JobID: "a", Status: domain.JobStatusProcessing},
	}}
	router := newRouter(jc, &mockItemReader{}, &mockRater{})

	w, body := doRequest(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
}
