package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/markdave123-py/Botforge/internal/core"
	"github.com/markdave123-py/Botforge/internal/pkg/logger"
)

// minURLContent is the acceptance threshold for cleaned page text.
const minURLContent = 200

const userAgent = "Mozilla/5.0 (compatible; Botforge/1.0; +https://example.local)"

// URLExtractor fetches a page, extracts the main content and cleans it,
// falling back to a whole-page render when the primary extraction comes up
// short or the fetch fails outright.
type URLExtractor struct {
	client *http.Client
	log    *logger.Logger
}

func NewURLExtractor(log *logger.Logger) *URLExtractor {
	return &URLExtractor{
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.With("component", "URLExtractor"),
	}
}

func (e *URLExtractor) Extract(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", core.NewError(core.KindContent, fmt.Sprintf("Invalid URL: %s format", rawURL))
	}

	cleaned, err := e.primary(ctx, rawURL)
	if err == nil && utf8.RuneCountInString(cleaned) >= minURLContent {
		return cleaned, nil
	}
	if err != nil {
		e.log.Warn("primary URL extraction failed, falling back to whole-page loader",
			"url", rawURL, "error", err)
	} else {
		e.log.Warn("page content too short after extraction, falling back to whole-page loader",
			"url", rawURL, "content_length", utf8.RuneCountInString(cleaned))
	}

	cleaned, err = e.fallback(ctx, rawURL)
	if err != nil {
		return "", err
	}
	if utf8.RuneCountInString(cleaned) < minURLContent {
		return "", core.NewError(core.KindContent, "Page content too short after fallback extraction/cleaning")
	}
	return cleaned, nil
}

func (e *URLExtractor) primary(ctx context.Context, rawURL string) (string, error) {
	body, err := e.fetch(ctx, rawURL, true)
	if err != nil {
		return "", err
	}
	raw, err := ExtractMainText(body)
	if err != nil {
		return "", core.WrapError(core.KindContent, "Failed to parse page HTML", err)
	}
	return CleanText(raw), nil
}

func (e *URLExtractor) fallback(ctx context.Context, rawURL string) (string, error) {
	body, err := e.fetch(ctx, rawURL, false)
	if err != nil {
		return "", err
	}
	raw, err := WholePageText(body)
	if err != nil {
		return "", core.WrapError(core.KindContent, "Failed to parse page HTML", err)
	}
	return CleanText(raw), nil
}

// fetch downloads the page body. requireHTML enforces the content-type check
// used by the primary path; the generic fallback takes whatever it gets.
func (e *URLExtractor) fetch(ctx context.Context, rawURL string, requireHTML bool) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", core.WrapError(core.KindContent, fmt.Sprintf("Invalid URL: %s format", rawURL), err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", core.WrapError(core.KindTransient, "Failed to fetch URL", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", core.NewError(core.KindTransient, fmt.Sprintf("Failed to fetch URL (status=%d)", resp.StatusCode))
	}
	if requireHTML {
		contentType := resp.Header.Get("Content-Type")
		if contentType != "" && !strings.Contains(contentType, "html") {
			return "", core.NewError(core.KindContent, fmt.Sprintf("Unsupported content-type: %s", contentType))
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", core.WrapError(core.KindTransient, "Failed to read page body", err)
	}
	return string(body), nil
}
