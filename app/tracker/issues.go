package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
)

type CreateIssueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body,omitempty"`
	Labels []string `json:"labels,omitempty"`
}

type ListIssuesOptions struct {
	State   string // "open", "closed" or "all"
	PerPage int
}

func (options ListIssuesOptions) queryParams() string {
	query := url.Values{}
	if options.State != "" {
		query.Set("state", options.State)
	}
	if options.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(options.PerPage))
	}
	return query.Encode()
}

// ListIssues returns an iterator over the repository's issues and pull
// requests.
func (client *Client) ListIssues(options ListIssuesOptions) *PageIterator[Issue] {
	path := client.repoPath("/issues")
	if query := options.queryParams(); query != "" {
		path += "?" + query
	}
	return list[Issue](client, path)
}

// ListAllTickets reads every issue in every state, across all pages.
func (client *Client) ListAllTickets(ctx context.Context) ([]Ticket, error) {
	issues, err := client.ListIssues(ListIssuesOptions{State: "all", PerPage: 100}).Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing issues in %s: %w", client.Scope(), err)
	}

	tickets := make([]Ticket, 0, len(issues))
	for _, issue := range issues {
		tickets = append(tickets, issue.Ticket())
	}

	slog.Debug("Issues listed", "repository", client.Scope(), "count", len(tickets))
	return tickets, nil
}

func (client *Client) CreateTicket(ctx context.Context, request CreateIssueRequest) (*Issue, error) {
	var issue Issue
	if err := client.post(ctx, client.repoPath("/issues"), request, &issue); err != nil {
		return nil, fmt.Errorf("creating issue in %s: %w", client.Scope(), err)
	}
	return &issue, nil
}
