// Package config provides configuration management for the application.
// Values are loaded from a YAML file plus environment overrides; every
// tunable of the scraper and the rating engine is externalized here.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/jonesrussell/legalharvest/internal/logger"
)

// weightSumTolerance is the allowed deviation of the criterion weight sum from 1.0.
const weightSumTolerance = 1e-6

// Config represents the application configuration.
type Config struct {
	Server   *ServerConfig   `mapstructure:"server"`
	Database *DatabaseConfig `mapstructure:"database"`
	Scraper  *ScraperConfig  `mapstructure:"scraper"`
	Rating   *RatingConfig   `mapstructure:"rating"`
	Logging  *logger.Config  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ScraperConfig holds fetch and extraction configuration.
type ScraperConfig struct {
	UserAgent        string        `mapstructure:"user_agent"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	DefaultDelay     time.Duration `mapstructure:"default_delay"`
	MinContentLength int           `mapstructure:"min_content_length"`
	// Selectors maps a strategy name to its ordered candidate selector list.
	Selectors map[string][]string `mapstructure:"selectors"`
	// CleanupAfter controls how long terminal jobs stay in the registry.
	CleanupAfter time.Duration `mapstructure:"cleanup_after"`
}

// RatingConfig holds the rating engine configuration.
type RatingConfig struct {
	Weights    WeightsConfig    `mapstructure:"weights"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	// CredibleDomains are treated as inherently trustworthy sources.
	CredibleDomains []string `mapstructure:"credible_domains"`
	// LegalPatterns are domain-relevance regexes keyed by pattern name.
	LegalPatterns map[string]string `mapstructure:"legal_patterns"`
	// QualityIndicators are structural/formality regexes keyed by name.
	QualityIndicators map[string]string `mapstructure:"quality_indicators"`
	// OfficialTerms matches official-language vocabulary.
	OfficialTerms string `mapstructure:"official_terms"`
	// SweepPause is the pause between items during a bulk rating sweep.
	SweepPause time.Duration `mapstructure:"sweep_pause"`
	// SweepLimit bounds a single rate-all-unrated batch.
	SweepLimit int `mapstructure:"sweep_limit"`
}

// WeightsConfig holds the six criterion weights. They must sum to 1.0.
type WeightsConfig struct {
	SourceCredibility   float64 `mapstructure:"source_credibility"`
	ContentCompleteness float64 `mapstructure:"content_completeness"`
	ExtractionAccuracy  float64 `mapstructure:"extraction_accuracy"`
	DataFreshness       float64 `mapstructure:"data_freshness"`
	ContentRelevance    float64 `mapstructure:"content_relevance"`
	TechnicalQuality    float64 `mapstructure:"technical_quality"`
}

// Sum returns the total of all six weights.
func (w WeightsConfig) Sum() float64 {
	return w.SourceCredibility + w.ContentCompleteness + w.ExtractionAccuracy +
		w.DataFreshness + w.ContentRelevance + w.TechnicalQuality
}

// ThresholdsConfig holds the rating level cutoffs.
type ThresholdsConfig struct {
	Excellent float64 `mapstructure:"excellent"`
	Good      float64 `mapstructure:"good"`
	Average   float64 `mapstructure:"average"`
	Poor      float64 `mapstructure:"poor"`
}

// Load loads configuration from the given path (or standard locations
// when path is empty) with environment overrides applied.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/legalharvest")
	}

	v.SetEnvPrefix("LEGALHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if sum := c.Rating.Weights.Sum(); math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("rating weights must sum to 1.0, got %v", sum)
	}
	if c.Scraper.MinContentLength < 0 {
		return fmt.Errorf("min_content_length must be non-negative")
	}
	return nil
}
