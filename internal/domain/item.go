package domain

import (
	"time"
)

// Strategy selects how content is pulled out of a fetched document.
type Strategy string

// Available extraction strategies.
const (
	StrategyGeneral         Strategy = "general"
	StrategyLegalDocuments  Strategy = "legal_documents"
	StrategyNewsArticles    Strategy = "news_articles"
	StrategyAcademicPapers  Strategy = "academic_papers"
	StrategyGovernmentSites Strategy = "government_sites"
	StrategyCustom          Strategy = "custom"
)

// ParseStrategy maps a string to a known strategy, defaulting to general.
func ParseStrategy(s string) Strategy {
	switch Strategy(s) {
	case StrategyLegalDocuments, StrategyNewsArticles, StrategyAcademicPapers,
		StrategyGovernmentSites, StrategyCustom:
		return Strategy(s)
	default:
		return StrategyGeneral
	}
}

// ItemStatus is the processing state of a scraped item.
type ItemStatus string

// Item processing states.
const (
	ItemStatusPending    ItemStatus = "pending"
	ItemStatusProcessing ItemStatus = "processing"
	ItemStatusCompleted  ItemStatus = "completed"
	ItemStatusFailed     ItemStatus = "failed"
	ItemStatusRated      ItemStatus = "rated"
)

// ScrapedItem is the result of successfully fetching and extracting one URL.
type ScrapedItem struct {
	ID          string     `db:"id" json:"id"`
	URL         string     `db:"url" json:"url"`
	Title       string     `db:"title" json:"title"`
	Content     string     `db:"content" json:"content"`
	Metadata    JSONBMap   `db:"metadata" json:"metadata"`
	Timestamp   time.Time  `db:"timestamp" json:"timestamp"`
	SourceURL   string     `db:"source_url" json:"source_url"`
	RatingScore float64    `db:"rating_score" json:"rating_score"`
	Status      ItemStatus `db:"processing_status" json:"processing_status"`
	ErrorMsg    *string    `db:"error_message" json:"error_message,omitempty"`
	Strategy    Strategy   `db:"strategy_used" json:"strategy_used"`
	ContentHash string     `db:"content_hash" json:"content_hash"`
	WordCount   int        `db:"word_count" json:"word_count"`
	Language    string     `db:"language" json:"language"`
	Domain      string     `db:"domain" json:"domain"`
}
