// Package extractor pulls title and body text out of fetched HTML
// documents under a selectable extraction strategy.
package extractor

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/legalharvest/internal/domain"
)

// nonContentSelectors lists elements stripped before extracting body text.
const nonContentSelectors = "script, style, nav, header, footer, aside"

var whitespaceRE = regexp.MustCompile(`\s+`)

// Strategy extracts a title and cleaned body text from a parsed document.
type Strategy interface {
	Name() domain.Strategy
	Extract(doc *goquery.Document) (title, content string)
}

// ForStrategy returns the extraction strategy variant for the given name.
// Strategies without a configured selector list (general, custom) extract
// whole-body text.
func ForStrategy(name domain.Strategy, selectors map[string][]string) Strategy {
	if list, ok := selectors[string(name)]; ok && len(list) > 0 {
		return &selectorStrategy{name: name, selectors: list}
	}
	return &bodyStrategy{name: name}
}

// Parse parses an HTML body into a goquery document.
func Parse(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// selectorStrategy tries an ordered list of candidate selectors and takes
// the first non-empty match, falling back to whole-body text.
type selectorStrategy struct {
	name      domain.Strategy
	selectors []string
}

// Name returns the strategy name.
func (s *selectorStrategy) Name() domain.Strategy { return s.name }

// Extract extracts title and content using the selector priority list.
func (s *selectorStrategy) Extract(doc *goquery.Document) (string, string) {
	title := pageTitle(doc)
	stripNonContent(doc)

	for _, selector := range s.selectors {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}

		parts := make([]string, 0, sel.Length())
		sel.Each(func(_ int, el *goquery.Selection) {
			if text := strings.TrimSpace(el.Text()); text != "" {
				parts = append(parts, text)
			}
		})

		if len(parts) > 0 {
			return title, collapseWhitespace(strings.Join(parts, " "))
		}
	}

	return title, bodyText(doc)
}

// bodyStrategy extracts whole-body text only.
type bodyStrategy struct {
	name domain.Strategy
}

// Name returns the strategy name.
func (s *bodyStrategy) Name() domain.Strategy { return s.name }

// Extract extracts title and whole-body content.
func (s *bodyStrategy) Extract(doc *goquery.Document) (string, string) {
	title := pageTitle(doc)
	stripNonContent(doc)
	return title, bodyText(doc)
}

// pageTitle extracts the document title element text.
func pageTitle(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// stripNonContent removes script/style/navigation chrome from the document.
func stripNonContent(doc *goquery.Document) {
	doc.Find(nonContentSelectors).Remove()
}

// bodyText returns the collapsed text of the body element.
func bodyText(doc *goquery.Document) string {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return ""
	}
	return collapseWhitespace(strings.TrimSpace(body.Text()))
}

// collapseWhitespace reduces all whitespace runs to single spaces.
func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}
