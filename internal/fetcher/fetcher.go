// Package fetcher issues single HTTP GET requests for the scrape pipeline.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonesrussell/legalharvest/internal/logger"
)

// maxResponseBodyBytes limits the size of fetched page responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// Page is a successfully fetched HTML response.
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Encoding    string
	Body        []byte
	Header      http.Header
}

// Fetcher performs single GET requests with a shared client.
// A non-2xx status or a non-HTML Content-Type yields (nil, nil): no
// result, treated by the orchestrator the same as a fetch failure.
type Fetcher struct {
	client    *http.Client
	userAgent string
	log       logger.Interface
}

// New creates a fetcher. The client is shared so connections are reused
// across requests; per-request timeouts come from the caller's context.
func New(userAgent string, log logger.Interface) *Fetcher {
	return &Fetcher{
		client:    &http.Client{},
		userAgent: userAgent,
		log:       log,
	}
}

// Fetch performs one GET with the given timeout.
func (f *Fetcher) Fetch(ctx context.Context, url string, timeout time.Duration) (*Page, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		f.log.Warn("fetch returned non-success status", "url", url, "status", resp.StatusCode)
		return nil, nil
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/html") {
		f.log.Info("skipping non-HTML content", "url", url, "content_type", contentType)
		return nil, nil
	}

	limited := io.LimitReader(resp.Body, maxResponseBodyBytes)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Page{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Encoding:    encodingFromContentType(contentType),
		Body:        body,
		Header:      resp.Header,
	}, nil
}

// encodingFromContentType extracts the charset parameter, if present.
func encodingFromContentType(contentType string) string {
	for _, part := range strings.Split(contentType, ";") {
		part = strings.TrimSpace(part)
		if cs, ok := strings.CutPrefix(part, "charset="); ok {
			return strings.ToLower(cs)
		}
	}
	return ""
}
