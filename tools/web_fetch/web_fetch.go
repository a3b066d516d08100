package web_fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// Fetcher retrieves a web page and extracts its readable text content.
// It is best-effort enrichment: callers treat every failure as "no content".
type Fetcher struct {
	httpClient *http.Client
	maxRunes   int
}

func NewFetcher(timeout time.Duration, maxRunes int) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxRunes <= 0 {
		maxRunes = 1500
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxRunes:   maxRunes,
	}
}

// ReadableText fetches the page and returns its main text, truncated.
func (f *Fetcher) ReadableText(ctx context.Context, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html")
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch returned status: %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, u)
	if err != nil {
		return "", fmt.Errorf("readability extraction failed: %w", err)
	}
	text := strings.TrimSpace(article.TextContent)
	runes := []rune(text)
	if len(runes) > f.maxRunes {
		text = strings.TrimSpace(string(runes[:f.maxRunes])) + "…"
	}
	return text, nil
}
