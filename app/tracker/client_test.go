package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lysyi3m/rss-issues/app/cfg"
)

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(&cfg.Cfg{
		Repository: "octo/news",
		Token:      "test-token",
		APIURL:     server.URL,
		UserAgent:  "RSS Issues Test",
	}, server.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.after = func(time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}
	return client
}

func TestNewClientRequiresHTTPS(t *testing.T) {
	_, err := NewClient(&cfg.Cfg{Repository: "octo/news", APIURL: "http://api.github.com"}, nil)
	if err == nil {
		t.Fatal("Expected error for HTTP URL")
	}
	if got := err.Error(); got != `tracker: API client requires HTTPS (got "http://api.github.com")` {
		t.Errorf("Unexpected error: %s", got)
	}
}

func TestNewClientDefaultsBaseURL(t *testing.T) {
	client, err := NewClient(&cfg.Cfg{Repository: "octo/news"}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if client.baseURL != defaultBaseURL {
		t.Errorf("Expected base URL %s, got: %s", defaultBaseURL, client.baseURL)
	}
	if client.Scope() != "octo/news" {
		t.Errorf("Expected scope octo/news, got: %s", client.Scope())
	}
}

func TestNewClientRejectsBadRepository(t *testing.T) {
	_, err := NewClient(&cfg.Cfg{Repository: "no-slash"}, nil)
	if err == nil {
		t.Fatal("Expected error for repository without owner")
	}
}

func TestClientSendsStandardHeaders(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Expected bearer token, got: %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github+json" {
			t.Errorf("Expected GitHub accept header, got: %q", got)
		}
		if got := r.Header.Get("X-GitHub-Api-Version"); got != apiVersion {
			t.Errorf("Expected API version %s, got: %q", apiVersion, got)
		}
		if got := r.Header.Get("User-Agent"); got != "RSS Issues Test" {
			t.Errorf("Expected user agent, got: %q", got)
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	tickets, err := newTestClient(t, server).ListAllTickets(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(tickets) != 0 {
		t.Errorf("Expected no tickets, got: %d", len(tickets))
	}
}

func TestListAllTicketsFollowsPagination(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/news/issues" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("state") != "all" {
			t.Errorf("Expected state=all, got: %s", r.URL.RawQuery)
		}

		switch r.URL.Query().Get("page") {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/octo/news/issues?state=all&per_page=100&page=2>; rel="next", <%s/repos/octo/news/issues?page=2>; rel="last"`, server.URL, server.URL))
			w.Write([]byte(`[
				{"number": 1, "title": "First", "body": "<!-- a -->"},
				{"number": 2, "title": "PR", "body": "<!-- b -->", "pull_request": {"url": "https://api.github.com/repos/octo/news/pulls/2"}}
			]`))
		case "2":
			w.Write([]byte(`[{"number": 3, "title": "Third", "body": null}]`))
		default:
			t.Errorf("Unexpected page: %s", r.URL.Query().Get("page"))
		}
	}))
	defer server.Close()

	tickets, err := newTestClient(t, server).ListAllTickets(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(tickets) != 3 {
		t.Fatalf("Expected 3 tickets, got: %d", len(tickets))
	}
	if tickets[0].Body != "<!-- a -->" || tickets[0].IsPullRequest {
		t.Errorf("Unexpected first ticket: %+v", tickets[0])
	}
	if !tickets[1].IsPullRequest {
		t.Error("Expected second ticket to be a pull request")
	}
	if tickets[2].Body != "" {
		t.Errorf("Expected empty body for null, got: %q", tickets[2].Body)
	}
}

func TestListAllTicketsError(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Not Found", "documentation_url": "https://docs.github.com/rest"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server).ListAllTickets(context.Background())
	if err == nil {
		t.Fatal("Expected an error")
	}
	if !IsNotFound(err) {
		t.Errorf("Expected not found error, got: %v", err)
	}
}

func TestCreateTicket(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got: %s", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Expected JSON content type, got: %q", got)
		}

		var request CreateIssueRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if request.Title != "Hello" || request.Body != "<!-- x -->" || len(request.Labels) != 1 || request.Labels[0] != "Blog" {
			t.Errorf("Unexpected request: %+v", request)
		}

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"number": 7, "title": "Hello", "html_url": "https://github.com/octo/news/issues/7"}`))
	}))
	defer server.Close()

	issue, err := newTestClient(t, server).CreateTicket(context.Background(), CreateIssueRequest{
		Title:  "Hello",
		Body:   "<!-- x -->",
		Labels: []string{"Blog"},
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if issue.HTMLURL != "https://github.com/octo/news/issues/7" {
		t.Errorf("Unexpected URL: %s", issue.HTMLURL)
	}
}

func TestCreateTicketValidationError(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message": "Validation Failed", "errors": [{"resource": "Issue", "field": "title", "code": "missing_field"}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server).CreateTicket(context.Background(), CreateIssueRequest{})
	if !IsValidationFailed(err) {
		t.Fatalf("Expected validation error, got: %v", err)
	}

	var apiError *APIError
	if !errors.As(err, &apiError) {
		t.Fatalf("Expected APIError, got: %T", err)
	}
	if got := apiError.Error(); got != "422: Validation Failed; Issue.title: missing_field" {
		t.Errorf("Unexpected error text: %s", got)
	}
}

func TestCreateTicketRetriesOnceWhenRateLimited(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"message": "You have exceeded a secondary rate limit."}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"number": 1, "html_url": "https://github.com/octo/news/issues/1"}`))
	}))
	defer server.Close()

	issue, err := newTestClient(t, server).CreateTicket(context.Background(), CreateIssueRequest{Title: "x"})
	if err != nil {
		t.Fatalf("Expected no error after retry, got: %v", err)
	}
	if issue.Number != 1 {
		t.Errorf("Expected issue 1, got: %d", issue.Number)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 calls, got: %d", calls.Load())
	}
}

func TestListAllTicketsRetriesOnceWhenRateLimited(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"message": "You have exceeded a secondary rate limit."}`))
			return
		}
		w.Write([]byte(`[{"number": 1, "title": "First", "body": "<!-- a -->"}]`))
	}))
	defer server.Close()

	tickets, err := newTestClient(t, server).ListAllTickets(context.Background())
	if err != nil {
		t.Fatalf("Expected no error after retry, got: %v", err)
	}
	if len(tickets) != 1 || tickets[0].Body != "<!-- a -->" {
		t.Errorf("Expected one ticket, got: %+v", tickets)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 calls, got: %d", calls.Load())
	}
}

func TestListAllTicketsGivesUpAfterOneRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message": "slow down"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server).ListAllTickets(context.Background())
	if !IsRateLimited(err) {
		t.Errorf("Expected rate limit error, got: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 calls, got: %d", calls.Load())
	}
}

func TestCreateTicketGivesUpAfterOneRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message": "slow down"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server).CreateTicket(context.Background(), CreateIssueRequest{Title: "x"})
	if !IsRateLimited(err) {
		t.Errorf("Expected rate limit error, got: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 calls, got: %d", calls.Load())
	}
}

func TestForbiddenWithoutRateLimitIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "Resource not accessible by integration"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server).CreateTicket(context.Background(), CreateIssueRequest{Title: "x"})
	if err == nil || IsRateLimited(err) {
		t.Errorf("Expected a plain forbidden error, got: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 call, got: %d", calls.Load())
	}
}
