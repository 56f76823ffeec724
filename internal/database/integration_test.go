package database

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jonesrussell/legalharvest/internal/domain"
)

var testDB *sqlx.DB

// TestMain starts one PostgreSQL container shared by every repository
// test in this package. Short mode and missing Docker both skip the
// whole suite.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(0)
	}

	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("legalharvest_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		log.Printf("skipping database integration tests: %v", err)
		os.Exit(0)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("connection string: %v", err)
	}

	testDB, err = sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}

	if err := EnsureSchema(ctx, testDB); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close()
	_ = container.Terminate(ctx)

	os.Exit(code)
}

func truncateAll(t *testing.T) {
	t.Helper()
	if testDB == nil {
		t.Skip("no test database")
	}
	_, err := testDB.Exec(
		`TRUNCATE TABLE rating_history, rating_results, scraped_items, scrape_jobs CASCADE`)
	require.NoError(t, err)
}

func storedItem(id, jobID string) *domain.ScrapedItem {
	return &domain.ScrapedItem{
		ID:        id,
		URL:       "https://court.gov.ir/" + id,
		Title:     "ماده قانونی " + id,
		Content:   "متن حکم دادگاه برای پرونده " + id,
		Metadata:  domain.JSONBMap{"job_id": jobID},
		Timestamp: time.Now().UTC(),
		SourceURL: "https://court.gov.ir",
		Status:    domain.ItemStatusCompleted,
		Strategy:  domain.StrategyLegalDocuments,
		WordCount: 120,
		Language:  "persian",
		Domain:    "court.gov.ir",
	}
}

func TestJobRepository_RoundTrip(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()
	repo := NewJobRepository(testDB)

	job := &domain.ScrapeJob{
		ID:         "scrape_job_rt",
		URLs:       domain.JSONBStrings{"https://court.gov.ir/a", "https://court.gov.ir/b"},
		Strategy:   domain.StrategyLegalDocuments,
		Keywords:   domain.JSONBStrings{"قرارداد"},
		MaxDepth:   1,
		CreatedAt:  time.Now().UTC(),
		Status:     domain.JobStatusPending,
		TotalItems: 2,
	}
	require.NoError(t, repo.Create(ctx, job))

	require.NoError(t, repo.UpdateProgress(ctx, job.ID, domain.JobStatusProcessing, 1, 0))
	require.NoError(t, repo.UpdateProgress(ctx, job.ID, domain.JobStatusCompleted, 1, 1))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
	assert.Equal(t, 1, got.CompletedItems)
	assert.Equal(t, 1, got.FailedItems)
	assert.Equal(t, job.URLs, got.URLs)

	listed, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestJobRepository_GetByID_NotFound(t *testing.T) {
	truncateAll(t)
	repo := NewJobRepository(testDB)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestItemRepository_CreateListAndFilter(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()
	repo := NewItemRepository(testDB)

	require.NoError(t, repo.Create(ctx, storedItem("item_a", "job_1")))
	require.NoError(t, repo.Create(ctx, storedItem("item_b", "job_1")))
	require.NoError(t, repo.Create(ctx, storedItem("item_c", "job_2")))

	all, err := repo.List(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	job1, err := repo.List(ctx, "job_1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, job1, 2)

	paged, err := repo.List(ctx, "", 2, 2)
	require.NoError(t, err)
	assert.Len(t, paged, 1)
}

func TestItemRepository_RatingLifecycle(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()
	repo := NewItemRepository(testDB)

	require.NoError(t, repo.Create(ctx, storedItem("item_r", "job_1")))
	require.NoError(t, repo.Create(ctx, storedItem("item_u", "job_1")))

	unrated, err := repo.ListUnrated(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, unrated, 2)

	require.NoError(t, repo.UpdateRating(ctx, "item_r", 0.35))

	got, err := repo.GetByID(ctx, "item_r")
	require.NoError(t, err)
	assert.InDelta(t, 0.35, got.RatingScore, 1e-9)
	assert.Equal(t, domain.ItemStatusRated, got.Status)

	unrated, err = repo.ListUnrated(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unrated, 1)
	assert.Equal(t, "item_u", unrated[0].ID)

	low, err := repo.ListLowQuality(ctx, 0.4, 10)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "item_r", low[0].ID)

	assert.ErrorIs(t, repo.UpdateRating(ctx, "missing", 0.5), ErrNotFound)
}

func TestItemRepository_Statistics(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()
	repo := NewItemRepository(testDB)

	require.NoError(t, repo.Create(ctx, storedItem("item_1", "job_1")))
	require.NoError(t, repo.Create(ctx, storedItem("item_2", "job_1")))
	require.NoError(t, repo.UpdateRating(ctx, "item_1", 0.8))

	stats, err := repo.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalItems)
	assert.Equal(t, 1, stats.StatusDistribution["rated"])
	assert.Equal(t, 1, stats.StatusDistribution["completed"])
	assert.Equal(t, 2, stats.LanguageDistribution["persian"])
	assert.InDelta(t, 0.8, stats.AverageRating, 1e-9)
}

func TestRatingRepository_ResultsAndHistory(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()
	items := NewItemRepository(testDB)
	repo := NewRatingRepository(testDB)

	require.NoError(t, items.Create(ctx, storedItem("item_h", "job_1")))

	result := &domain.RatingResult{
		ItemID:       "item_h",
		OverallScore: 0.72,
		CriteriaScores: domain.JSONBScores{
			"source_credibility": 0.9,
			"data_freshness":     1.0,
		},
		Level:      domain.RatingGood,
		Confidence: 0.85,
		Timestamp:  time.Now().UTC(),
		Evaluator:  "auto",
	}
	require.NoError(t, repo.CreateResult(ctx, result))

	require.NoError(t, repo.AppendHistory(ctx, &domain.RatingHistoryEntry{
		ItemID:       "item_h",
		OldScore:     0,
		NewScore:     0.72,
		ChangeReason: "re-evaluation",
		Timestamp:    time.Now().UTC(),
		Evaluator:    "auto",
	}))

	history, err := repo.HistoryByItem(ctx, "item_h")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.InDelta(t, 0.72, history[0].NewScore, 1e-9)
	assert.Equal(t, "re-evaluation", history[0].ChangeReason)

	summary, err := repo.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalRated)
	assert.InDelta(t, 0.72, summary.AverageScore, 1e-9)
	assert.Equal(t, 1, summary.LevelDistribution["good"])
	assert.InDelta(t, 0.9, summary.CriteriaAverages["source_credibility"], 1e-9)
}
