package issues

import (
	"context"
	"fmt"
	"sync"

	"github.com/lysyi3m/rss-issues/app/tracker"
)

type fakeTracker struct {
	mu        sync.Mutex
	tickets   []tracker.Ticket
	listErr   error
	createErr map[string]error
	listCalls int
	created   []tracker.CreateIssueRequest
}

func (f *fakeTracker) ListAllTickets(ctx context.Context) ([]tracker.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.tickets, nil
}

func (f *fakeTracker) CreateTicket(ctx context.Context, request tracker.CreateIssueRequest) (*tracker.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.createErr[request.Title]; err != nil {
		return nil, err
	}
	f.created = append(f.created, request)
	number := len(f.created)
	return &tracker.Issue{
		Number:  number,
		Title:   request.Title,
		HTMLURL: fmt.Sprintf("https://github.com/octo/news/issues/%d", number),
	}, nil
}
