package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lysyi3m/rss-issues/app/cfg"
)

const (
	apiVersion      = "2022-11-28"
	defaultBaseURL  = "https://api.github.com"
	maxResponseBody = 10 << 20
)

// Client talks to the GitHub REST API on behalf of one repository.
type Client struct {
	baseURL    string
	owner      string
	repo       string
	token      string
	userAgent  string
	httpClient *http.Client
	rateLimit  *rateLimitTracker
	after      func(time.Duration) <-chan time.Time
}

// NewClient builds a client for the repository named in c. The base URL
// must use HTTPS.
func NewClient(c *cfg.Cfg, httpClient *http.Client) (*Client, error) {
	baseURL := strings.TrimRight(c.APIURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("tracker: API client requires HTTPS (got %q)", baseURL)
	}

	if c.Owner() == "" || c.Repo() == "" {
		return nil, fmt.Errorf("tracker: repository must be owner/repo (got %q)", c.Repository)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		owner:      c.Owner(),
		repo:       c.Repo(),
		token:      c.Token,
		userAgent:  c.UserAgent,
		httpClient: httpClient,
		rateLimit:  newRateLimitTracker(time.Now),
		after:      time.After,
	}, nil
}

// Scope returns "owner/repo".
func (client *Client) Scope() string {
	return client.owner + "/" + client.repo
}

func (client *Client) repoPath(suffix string) string {
	return fmt.Sprintf("/repos/%s/%s%s", client.owner, client.repo, suffix)
}

func (client *Client) do(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	body, _, err := client.doWithRetry(ctx, method, client.baseURL+path, requestBody, false)
	return body, err
}

// doWithRetry sends a request to an absolute URL and returns the body and
// headers of a 2xx response. It retries at most once when the response is a
// rate limit.
func (client *Client) doWithRetry(ctx context.Context, method, url string, requestBody any, isRetry bool) ([]byte, http.Header, error) {
	response, err := client.doRaw(ctx, method, url, requestBody)
	if err != nil {
		return nil, nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBody))
	if err != nil {
		return nil, nil, fmt.Errorf("tracker: reading response body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		if !isRetry && isRateLimitResponse(response.StatusCode, body) {
			if wait := client.rateLimit.retryAfter(response.Header); wait > 0 {
				slog.Info("Rate limited, backing off", "duration", wait, "method", method, "url", url)

				select {
				case <-client.after(wait):
				case <-ctx.Done():
					return nil, nil, ctx.Err()
				}

				return client.doWithRetry(ctx, method, url, requestBody, true)
			}
		}

		return nil, nil, parseAPIErrorFromBody(response.StatusCode, body)
	}

	return body, response.Header, nil
}

// doRaw sends an authenticated request and returns the raw response. The
// caller closes the body.
func (client *Client) doRaw(ctx context.Context, method, url string, requestBody any) (*http.Response, error) {
	if err := client.rateLimit.wait(ctx, client.after); err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("tracker: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("tracker: creating request: %w", err)
	}

	if client.token != "" {
		request.Header.Set("Authorization", "Bearer "+client.token)
	}
	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", apiVersion)
	if client.userAgent != "" {
		request.Header.Set("User-Agent", client.userAgent)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("tracker: %s %s: %w", method, url, err)
	}

	client.rateLimit.update(response.Header)

	return response, nil
}

func (client *Client) post(ctx context.Context, path string, requestBody any, result any) error {
	body, err := client.do(ctx, http.MethodPost, path, requestBody)
	if err != nil {
		return err
	}
	if result != nil {
		return json.Unmarshal(body, result)
	}
	return nil
}

func list[T any](client *Client, path string) *PageIterator[T] {
	return &PageIterator[T]{
		client:  client,
		nextURL: client.baseURL + path,
	}
}

func parseAPIErrorFromBody(statusCode int, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode}

	var wireError struct {
		Message          string            `json:"message"`
		DocumentationURL string            `json:"documentation_url"`
		Errors           []ValidationError `json:"errors"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Message != "" {
		apiError.Message = wireError.Message
		apiError.DocumentationURL = wireError.DocumentationURL
		apiError.Errors = wireError.Errors
	} else {
		apiError.Message = strings.TrimSpace(string(body))
	}

	return apiError
}
