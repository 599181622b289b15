package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lysyi3m/rss-issues/app/cfg"
)

// Fetcher retrieves feeds over HTTP and turns them into items. It never
// retries; callers decide whether a failed source is worth another attempt.
type Fetcher struct {
	httpClient       *http.Client
	parser           *Parser
	filterer         *Filterer
	contentExtractor *ContentExtractor
	userAgent        string
	timeout          time.Duration
}

func NewFetcher(c *cfg.Cfg, httpClient *http.Client, parser *Parser, filterer *Filterer, contentExtractor *ContentExtractor) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Fetcher{
		httpClient:       httpClient,
		parser:           parser,
		filterer:         filterer,
		contentExtractor: contentExtractor,
		userAgent:        c.UserAgent,
		timeout:          c.GetFetchTimeout(),
	}
}

// Fetch performs one GET and returns the body. Anything but 200 is a
// FetchError carrying the status code.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return data, nil
}

// Get fetches and parses one source. Failures are wrapped in a SourceError.
func (f *Fetcher) Get(ctx context.Context, source *Source) ([]Item, error) {
	slog.Debug("Fetching source", "source", source.Name, "rss_url", source.RSSURL)

	data, err := f.Fetch(ctx, source.RSSURL)
	if err != nil {
		return nil, &SourceError{Source: source, Err: err}
	}

	items, err := f.parser.Run(data, source)
	if err != nil {
		return nil, &SourceError{Source: source, Err: err}
	}

	items = f.filterer.Run(items, source)

	if source.ExtractContent {
		f.extractMissingContent(ctx, items)
	}

	return items, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, &FetchError{URL: url, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// extractMissingContent fills empty item content from the linked page.
func (f *Fetcher) extractMissingContent(ctx context.Context, items []Item) {
	successCount := 0
	errorCount := 0

	for i := range items {
		if items[i].Content != "" || items[i].Link == "" {
			continue
		}

		content, err := f.fetchArticleContent(ctx, items[i].Link)
		if err != nil {
			slog.Warn("Failed to extract content for item", "url", items[i].Link, "error", err)
			errorCount++
			continue
		}

		items[i].Content = content
		successCount++
	}

	if successCount+errorCount > 0 {
		slog.Debug("Content extraction finished", "success", successCount, "errors", errorCount)
	}
}

func (f *Fetcher) fetchArticleContent(ctx context.Context, url string) (string, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return "", fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return f.contentExtractor.Run(data, url)
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
