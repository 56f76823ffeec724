package config

import (
	"time"

	"github.com/jonesrussell/legalharvest/internal/logger"
)

// Server defaults.
const (
	defaultServerAddress      = ":8080"
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 30 * time.Second
	defaultServerIdleTimeout  = 60 * time.Second
)

// Scraper defaults.
const (
	defaultUserAgent        = "legalharvest/1.0 (+https://github.com/jonesrussell/legalharvest)"
	defaultRequestTimeout   = 30 * time.Second
	defaultDelay            = 1 * time.Second
	defaultMinContentLength = 50
	defaultCleanupAfter     = 7 * 24 * time.Hour
)

// Rating defaults.
const (
	defaultSweepPause = 100 * time.Millisecond
	defaultSweepLimit = 100
)

// defaultSelectors are the per-strategy candidate selector priority lists.
// The general and custom strategies use whole-body text and carry no list.
func defaultSelectors() map[string][]string {
	legal := []string{
		"article", ".legal-content", ".document-content",
		".legal-text", ".document-text", "main",
	}
	return map[string][]string{
		"legal_documents":  legal,
		"government_sites": legal,
		"news_articles": {
			"article", ".article-content", ".news-content",
			".story-content", ".post-content", "main",
		},
		"academic_papers": {
			".abstract", ".content", ".paper-content",
			"article", ".research-content", "main",
		},
	}
}

// defaultCredibleDomains is the allowlist of inherently trustworthy sources.
func defaultCredibleDomains() []string {
	return []string{
		"gov.ir", "court.gov.ir", "justice.gov.ir", "mizanonline.ir",
		"irna.ir", "isna.ir", "mehrnews.com", "tasnimnews.com",
		"farsnews.ir", "entekhab.ir", "khabaronline.ir",
	}
}

// defaultLegalPatterns matches legal-domain vocabulary in Persian and English.
func defaultLegalPatterns() map[string]string {
	return map[string]string{
		"contract":        `(?i)(قرارداد|contract|agreement|عهدنامه)`,
		"legal_document":  `(?i)(سند|document|legal|مدرک)`,
		"court_case":      `(?i)(پرونده|case|court|دادگاه)`,
		"law_article":     `(?i)(ماده|article|law|قانون)`,
		"legal_notice":    `(?i)(اعلان|notice|announcement|آگهی)`,
		"legal_decision":  `(?i)(رای|decision|verdict|حکم)`,
		"legal_procedure": `(?i)(رویه|procedure|process|فرآیند)`,
	}
}

// defaultQualityIndicators matches structural and formal markers.
func defaultQualityIndicators() map[string]string {
	return map[string]string{
		"structure":         `(فصل|بخش|ماده|تبصره|بند)`,
		"formality":         `(مطابق|طبق|بر اساس|مطابق با)`,
		"legal_terms":       `(حقوقی|قانونی|قضایی|دادگستری)`,
		"official_language": `(دولت|وزارت|سازمان|اداره)`,
	}
}

// defaultOfficialTerms matches official-language vocabulary for relevance scoring.
const defaultOfficialTerms = `(دولت|وزارت|سازمان|اداره|قانون|حقوق)`

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	if cfg.Server == nil {
		cfg.Server = &ServerConfig{}
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultServerAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultServerWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultServerIdleTimeout
	}

	if cfg.Database == nil {
		cfg.Database = &DatabaseConfig{}
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "legalharvest"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "legalharvest"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	if cfg.Scraper == nil {
		cfg.Scraper = &ScraperConfig{}
	}
	if cfg.Scraper.UserAgent == "" {
		cfg.Scraper.UserAgent = defaultUserAgent
	}
	if cfg.Scraper.RequestTimeout == 0 {
		cfg.Scraper.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Scraper.DefaultDelay == 0 {
		cfg.Scraper.DefaultDelay = defaultDelay
	}
	if cfg.Scraper.MinContentLength == 0 {
		cfg.Scraper.MinContentLength = defaultMinContentLength
	}
	if len(cfg.Scraper.Selectors) == 0 {
		cfg.Scraper.Selectors = defaultSelectors()
	}
	if cfg.Scraper.CleanupAfter == 0 {
		cfg.Scraper.CleanupAfter = defaultCleanupAfter
	}

	if cfg.Rating == nil {
		cfg.Rating = &RatingConfig{}
	}
	if cfg.Rating.Weights.Sum() == 0 {
		cfg.Rating.Weights = WeightsConfig{
			SourceCredibility:   0.25,
			ContentCompleteness: 0.25,
			ExtractionAccuracy:  0.20,
			DataFreshness:       0.15,
			ContentRelevance:    0.10,
			TechnicalQuality:    0.05,
		}
	}
	if cfg.Rating.Thresholds == (ThresholdsConfig{}) {
		cfg.Rating.Thresholds = ThresholdsConfig{
			Excellent: 0.8,
			Good:      0.6,
			Average:   0.4,
			Poor:      0.2,
		}
	}
	if len(cfg.Rating.CredibleDomains) == 0 {
		cfg.Rating.CredibleDomains = defaultCredibleDomains()
	}
	if len(cfg.Rating.LegalPatterns) == 0 {
		cfg.Rating.LegalPatterns = defaultLegalPatterns()
	}
	if len(cfg.Rating.QualityIndicators) == 0 {
		cfg.Rating.QualityIndicators = defaultQualityIndicators()
	}
	if cfg.Rating.OfficialTerms == "" {
		cfg.Rating.OfficialTerms = defaultOfficialTerms
	}
	if cfg.Rating.SweepPause == 0 {
		cfg.Rating.SweepPause = defaultSweepPause
	}
	if cfg.Rating.SweepLimit == 0 {
		cfg.Rating.SweepLimit = defaultSweepLimit
	}

	if cfg.Logging == nil {
		cfg.Logging = &logger.Config{}
	}
}
