package rating

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonesrussell/legalharvest/internal/config"
	"github.com/jonesrussell/legalharvest/internal/domain"
)

// Freshness age cutoffs.
const (
	freshnessRecentDays  = 30
	freshnessQuarterDays = 90
	freshnessYearDays    = 365
	freshnessOldDays     = 1095
)

var (
	structurePattern      = regexp.MustCompile(`(فصل|بخش|ماده|تبصره)`)
	paragraphBreakPattern = regexp.MustCompile(`\n\s*\n`)
	sentenceSplitPattern  = regexp.MustCompile(`[.!?]`)
	officialTitleTerms    = []string{"دولت", "وزارت", "سازمان", "اداره"}
)

// ruleset holds the compiled pattern sets a criterion evaluation needs.
// Compiled once per engine so a sweep does not recompile per item.
type ruleset struct {
	credibleDomains   map[string]struct{}
	legalPatterns     []*regexp.Regexp
	qualityIndicators []*regexp.Regexp
	officialTerms     *regexp.Regexp
}

func compileRules(cfg *config.RatingConfig) (*ruleset, error) {
	rs := &ruleset{
		credibleDomains: make(map[string]struct{}, len(cfg.CredibleDomains)),
	}
	for _, d := range cfg.CredibleDomains {
		rs.credibleDomains[d] = struct{}{}
	}

	var err error
	if rs.legalPatterns, err = compileAll(cfg.LegalPatterns); err != nil {
		return nil, fmt.Errorf("legal patterns: %w", err)
	}
	if rs.qualityIndicators, err = compileAll(cfg.QualityIndicators); err != nil {
		return nil, fmt.Errorf("quality indicators: %w", err)
	}
	if rs.officialTerms, err = regexp.Compile(cfg.OfficialTerms); err != nil {
		return nil, fmt.Errorf("official terms: %w", err)
	}
	return rs, nil
}

func compileAll(patterns map[string]string) ([]*regexp.Regexp, error) {
	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Strings(names)

	compiled := make([]*regexp.Regexp, 0, len(names))
	for _, name := range names {
		re, err := regexp.Compile(patterns[name])
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", name, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// sourceCredibility scores the trustworthiness of where the item came
// from: allowlisted, governmental, and academic domains, transport
// security, and official vocabulary in the title.
func (rs *ruleset) sourceCredibility(item *domain.ScrapedItem) float64 {
	score := 0.0

	if _, ok := rs.credibleDomains[item.Domain]; ok {
		score += 0.4
	}
	if strings.Contains(item.Domain, ".gov.") || strings.HasSuffix(item.Domain, ".gov.ir") {
		score += 0.3
	}
	if strings.Contains(item.Domain, ".edu.") || strings.HasSuffix(item.Domain, ".ac.ir") {
		score += 0.2
	}
	if strings.HasPrefix(item.URL, "https://") {
		score += 0.1
	}

	title := strings.ToLower(item.Title)
	for _, term := range officialTitleTerms {
		if strings.Contains(title, term) {
			score += 0.2
			break
		}
	}

	return clamp01(score)
}

// contentCompleteness scores how much of a document was captured:
// word count tiers plus structural and legal vocabulary coverage.
func (rs *ruleset) contentCompleteness(item *domain.ScrapedItem) float64 {
	score := 0.0

	switch {
	case item.WordCount >= 500:
		score += 0.3
	case item.WordCount >= 200:
		score += 0.2
	case item.WordCount >= 100:
		score += 0.1
	}

	if structurePattern.MatchString(item.Content) {
		score += 0.2
	}

	legalHits := 0
	for _, re := range rs.legalPatterns {
		if re.MatchString(item.Content) {
			legalHits++
		}
	}
	switch {
	case legalHits >= 3:
		score += 0.3
	case legalHits >= 1:
		score += 0.2
	}

	qualityHits := 0
	for _, re := range rs.qualityIndicators {
		if re.MatchString(item.Content) {
			qualityHits++
		}
	}
	if qualityHits >= 2 {
		score += 0.2
	}

	return clamp01(score)
}

// extractionAccuracy estimates how cleanly the text survived
// extraction: script balance, sentence shape, character-run noise, and
// paragraph breaks.
func (rs *ruleset) extractionAccuracy(item *domain.ScrapedItem) float64 {
	content := item.Content
	score := 0.0

	persian, latin := scriptCounts(content)
	if persian > 0 && latin > 0 {
		if float64(persian)/float64(persian+latin) > 0.7 {
			score += 0.3
		} else {
			score += 0.1
		}
	}

	sentences := sentenceSplitPattern.Split(content, -1)
	if len(sentences) > 0 {
		proper := 0
		for _, s := range sentences {
			if len(strings.TrimSpace(s)) > 10 {
				proper++
			}
		}
		score += float64(proper) / float64(len(sentences)) * 0.3
	}

	noise := runNoiseRatio(content)
	switch {
	case noise < 0.01:
		score += 0.2
	case noise < 0.05:
		score += 0.1
	}

	if paragraphBreakPattern.MatchString(content) {
		score += 0.1
	}

	return clamp01(score)
}

// dataFreshness maps item age onto a step function. Items without a
// usable timestamp land in the middle of the scale.
func (rs *ruleset) dataFreshness(item *domain.ScrapedItem, now time.Time) float64 {
	if item.Timestamp.IsZero() {
		return 0.5
	}

	ageDays := int(now.Sub(item.Timestamp).Hours() / 24)
	switch {
	case ageDays <= freshnessRecentDays:
		return 1.0
	case ageDays <= freshnessQuarterDays:
		return 0.8
	case ageDays <= freshnessYearDays:
		return 0.6
	case ageDays <= freshnessOldDays:
		return 0.4
	default:
		return 0.2
	}
}

// contentRelevance scores how strongly the text belongs to the legal
// domain: match volume in the body, any match in the title, and
// official-language density.
func (rs *ruleset) contentRelevance(item *domain.ScrapedItem) float64 {
	score := 0.0

	matches := 0
	for _, re := range rs.legalPatterns {
		matches += len(re.FindAllStringIndex(item.Content, -1))
	}
	switch {
	case matches >= 10:
		score += 0.4
	case matches >= 5:
		score += 0.3
	case matches >= 2:
		score += 0.2
	case matches >= 1:
		score += 0.1
	}

	for _, re := range rs.legalPatterns {
		if re.MatchString(item.Title) {
			score += 0.3
			break
		}
	}

	official := len(rs.officialTerms.FindAllStringIndex(item.Content, -1))
	switch {
	case official >= 3:
		score += 0.3
	case official >= 1:
		score += 0.1
	}

	return clamp01(score)
}

// technicalQuality scores presentation-level signals: structure
// markers, paragraphing, script consistency, metadata richness, and
// raw length.
func (rs *ruleset) technicalQuality(item *domain.ScrapedItem) float64 {
	content := item.Content
	score := 0.0

	if structurePattern.MatchString(content) {
		score += 0.3
	}
	if strings.Contains(content, "\n\n") {
		score += 0.2
	}

	persian, _ := scriptCounts(content)
	total := utf8.RuneCountInString(content)
	if total == 0 {
		total = 1
	}
	ratio := float64(persian) / float64(total)
	if ratio >= 0.3 && ratio <= 0.9 {
		score += 0.2
	}

	if len(item.Metadata) >= 3 {
		score += 0.1
	}
	if len(content) >= 200 {
		score += 0.2
	}

	return clamp01(score)
}

// scriptCounts counts Arabic-script and Latin-script letters.
func scriptCounts(s string) (persian, latin int) {
	for _, r := range s {
		switch {
		case r >= 0x0600 && r <= 0x06FF:
			persian++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			latin++
		}
	}
	return persian, latin
}

// runNoiseRatio counts runs of three or more identical runes relative
// to content length, a cheap proxy for extraction artifacts.
func runNoiseRatio(s string) float64 {
	if s == "" {
		return 0
	}

	runs := 0
	var prev rune
	runLen := 0
	total := 0
	for _, r := range s {
		total++
		if r == prev {
			runLen++
			if runLen == 3 {
				runs++
			}
		} else {
			prev = r
			runLen = 1
		}
	}
	return float64(runs) / float64(total)
}

func clamp01(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < 0 {
		return 0
	}
	return v
}
