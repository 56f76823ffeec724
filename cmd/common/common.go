// Package common holds the shared bootstrap logic for the CLI
// commands: configuration loading, logger construction, and the
// database-backed service wiring.
package common

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/legalharvest/internal/config"
	"github.com/jonesrussell/legalharvest/internal/database"
	"github.com/jonesrussell/legalharvest/internal/fetcher"
	"github.com/jonesrussell/legalharvest/internal/jobs"
	"github.com/jonesrussell/legalharvest/internal/logger"
	"github.com/jonesrussell/legalharvest/internal/rating"
)

const schemaTimeout = 30 * time.Second

// Deps bundles the dependencies every command starts from.
type Deps struct {
	Config *config.Config
	Logger logger.Interface
}

// NewDeps loads configuration from cfgFile (or the standard locations
// when empty) and builds the logger it describes.
func NewDeps(cfgFile string) (*Deps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &Deps{Config: cfg, Logger: log}, nil
}

// Services is the fully wired application core: repositories, the job
// manager, and the rating engine, all sharing one database connection.
type Services struct {
	DB      *sqlx.DB
	Items   *database.ItemRepository
	Jobs    *database.JobRepository
	Ratings *database.RatingRepository
	Manager *jobs.Manager
	Engine  *rating.Engine
}

// NewServices connects to PostgreSQL, ensures the schema, and wires
// the repositories into the job manager and the rating engine. The
// caller owns the returned Services and must Close them.
func NewServices(ctx context.Context, deps *Deps) (*Services, error) {
	db, err := database.NewPostgresConnection(deps.Config.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	schemaCtx, cancel := context.WithTimeout(ctx, schemaTimeout)
	defer cancel()
	if err := database.EnsureSchema(schemaCtx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	itemRepo := database.NewItemRepository(db)
	jobRepo := database.NewJobRepository(db)
	ratingRepo := database.NewRatingRepository(db)

	scraperCfg := deps.Config.Scraper
	manager := jobs.NewManager(
		fetcher.New(scraperCfg.UserAgent, deps.Logger),
		itemRepo,
		jobRepo,
		deps.Logger,
		jobs.Config{
			DefaultDelay:     scraperCfg.DefaultDelay,
			DefaultTimeout:   scraperCfg.RequestTimeout,
			MinContentLength: scraperCfg.MinContentLength,
			Selectors:        scraperCfg.Selectors,
		},
	)

	engine, err := rating.NewEngine(itemRepo, ratingRepo, deps.Config.Rating, deps.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create rating engine: %w", err)
	}

	return &Services{
		DB:      db,
		Items:   itemRepo,
		Jobs:    jobRepo,
		Ratings: ratingRepo,
		Manager: manager,
		Engine:  engine,
	}, nil
}

// Close releases the database connection.
func (s *Services) Close() error {
	return s.DB.Close()
}
