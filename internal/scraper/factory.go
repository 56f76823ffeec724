// Package scraper builds scraped items from extracted content and derives
// their metadata.
package scraper

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/jonesrussell/legalharvest/internal/domain"
)

// persianRatioThreshold is the fraction of Arabic-script runes above which
// content is classified as Persian.
const persianRatioThreshold = 0.3

// BuildInput holds everything the factory needs to form an item.
type BuildInput struct {
	URL         string
	Title       string
	Content     string
	ContentType string
	Encoding    string
	// ResponseTime is the upstream Server-Timing header, empty when the
	// server sent none.
	ResponseTime string
	JobID        string
	Strategy     domain.Strategy
	Timestamp    time.Time
}

// BuildItem creates a fully-formed scraped item from extracted content.
// It is a pure function: all identity and derived metadata comes from the
// inputs, nothing is filled in later.
func BuildItem(in BuildInput) *domain.ScrapedItem {
	title := in.Title
	if title == "" {
		title = "No Title"
	}

	return &domain.ScrapedItem{
		ID:        ItemID(in.URL, in.Timestamp),
		URL:       in.URL,
		Title:     title,
		Content:   in.Content,
		Metadata: domain.JSONBMap{
			"content_type":  in.ContentType,
			"encoding":      in.Encoding,
			"response_time": in.ResponseTime,
			"job_id":        in.JobID,
		},
		Timestamp:   in.Timestamp,
		SourceURL:   in.URL,
		Status:      domain.ItemStatusCompleted,
		Strategy:    in.Strategy,
		ContentHash: ContentHash(in.Content),
		WordCount:   CountWords(in.Content),
		Language:    DetectLanguage(in.Content),
		Domain:      ExtractDomain(in.URL),
	}
}

// ItemID derives an item identity from the URL and capture time.
func ItemID(rawURL string, ts time.Time) string {
	h := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("item_%d_%s", ts.UnixNano(), hex.EncodeToString(h[:])[:8])
}

// ExtractDomain returns the URL authority, or "unknown" when unparsable.
func ExtractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "unknown"
	}
	return parsed.Host
}

// ContentHash returns the hex-encoded SHA-256 digest of the content.
// The hash is recorded for change detection only; nothing checks it
// against existing items before insert.
func ContentHash(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

// CountWords counts whitespace-separated tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// DetectLanguage applies a cheap script heuristic: mostly Arabic-script
// runes classify as Persian, any Latin letters as English, else unknown.
// This is a design-level proxy, not an NLP classification.
func DetectLanguage(text string) string {
	if text == "" {
		return "unknown"
	}

	var persian, latin, total int
	for _, r := range text {
		total++
		switch {
		case r >= 0x0600 && r <= 0x06FF:
			persian++
		case unicode.In(r, unicode.Latin):
			latin++
		}
	}

	if float64(persian) > float64(total)*persianRatioThreshold {
		return "persian"
	}
	if latin > 0 {
		return "english"
	}
	return "unknown"
}
