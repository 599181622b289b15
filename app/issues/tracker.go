package issues

import (
	"context"
	"errors"

	"github.com/lysyi3m/rss-issues/app/tracker"
)

// ErrTrackerRead means the existing issues could not be listed. A cycle that
// hits it must stop: deduplication is impossible without the issue list.
var ErrTrackerRead = errors.New("failed to read existing issues")

type TicketLister interface {
	ListAllTickets(ctx context.Context) ([]tracker.Ticket, error)
}

type TicketCreator interface {
	CreateTicket(ctx context.Context, request tracker.CreateIssueRequest) (*tracker.Issue, error)
}

// Tracker is the part of the issue tracker the pipeline needs.
type Tracker interface {
	TicketLister
	TicketCreator
}

var _ Tracker = (*tracker.Client)(nil)
