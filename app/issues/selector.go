package issues

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/rss-issues/app/cfg"
	"github.com/lysyi3m/rss-issues/app/feed"
	"github.com/lysyi3m/rss-issues/app/tracker"
)

// Selector keeps the items that have no issue yet.
type Selector struct {
	lister TicketLister
	dryRun bool
	scope  string
}

func NewSelector(c *cfg.Cfg, lister TicketLister) *Selector {
	return &Selector{
		lister: lister,
		dryRun: c.DryRun,
		scope:  c.Repository,
	}
}

// Run lists the existing issues and selects the items not yet ticketed.
// In dry-run mode the tracker is not read and every item is selected.
func (s *Selector) Run(ctx context.Context, items []feed.Item) ([]feed.Item, error) {
	if len(items) == 0 {
		return []feed.Item{}, nil
	}

	tickets, err := s.list(ctx)
	if err != nil {
		return nil, err
	}

	selected := Select(items, tickets)
	slog.Debug("Items selected", "candidates", len(items), "selected", len(selected), "tickets", len(tickets))
	return selected, nil
}

func (s *Selector) list(ctx context.Context) ([]tracker.Ticket, error) {
	if s.dryRun {
		slog.Info(fmt.Sprintf("[NOOP] List all the issues in %s", s.scope))
		return []tracker.Ticket{}, nil
	}

	slog.Debug("Listing issues", "repository", s.scope)

	tickets, err := s.lister.ListAllTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTrackerRead, err)
	}
	return tickets, nil
}

// Select drops every item whose ID appears in the body of an existing issue.
// Pull requests and issues without a body are not evidence. When no issue
// qualifies, every item is kept. Items without an ID are always kept.
func Select(items []feed.Item, tickets []tracker.Ticket) []feed.Item {
	bodies := make([]string, 0, len(tickets))
	for _, ticket := range tickets {
		if ticket.Body == "" || ticket.IsPullRequest {
			continue
		}
		bodies = append(bodies, ticket.Body)
	}

	if len(bodies) == 0 {
		return items
	}

	selected := make([]feed.Item, 0, len(items))
	for _, item := range items {
		if !ticketed(item.ID, bodies) {
			selected = append(selected, item)
		}
	}
	return selected
}

func ticketed(id string, bodies []string) bool {
	if id == "" {
		return false
	}
	for _, body := range bodies {
		if strings.Contains(body, id) {
			return true
		}
	}
	return false
}
