package issues

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lysyi3m/rss-issues/app/cfg"
	"github.com/lysyi3m/rss-issues/app/feed"
	"github.com/lysyi3m/rss-issues/app/tracker"
)

// Materializer creates one issue per selected item.
type Materializer struct {
	selector *Selector
	creator  TicketCreator
	dryRun   bool
	owner    string
	repo     string
	delay    time.Duration
	wait     func(ctx context.Context, d time.Duration) error
}

func NewMaterializer(c *cfg.Cfg, selector *Selector, creator TicketCreator) *Materializer {
	return &Materializer{
		selector: selector,
		creator:  creator,
		dryRun:   c.DryRun,
		owner:    c.Owner(),
		repo:     c.Repo(),
		delay:    c.GetCreateDelay(),
		wait:     sleep,
	}
}

// Create selects the items again, then creates their issues. The Nth item
// starts after N delays. It returns one status line per selected item, in
// item order; a failed creation becomes a line, not an error. The only error
// is ErrTrackerRead from selection.
func (m *Materializer) Create(ctx context.Context, items []feed.Item) ([]string, error) {
	selected, err := m.selector.Run(ctx, items)
	if err != nil {
		return nil, err
	}

	results := make([]string, len(selected))

	var wg sync.WaitGroup
	for i, item := range selected {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = m.createOne(ctx, i, item)
		}()
	}
	wg.Wait()

	return results, nil
}

func (m *Materializer) createOne(ctx context.Context, position int, item feed.Item) string {
	request := newIssueRequest(item)

	if m.dryRun {
		return m.noop(request)
	}

	if d := time.Duration(position) * m.delay; d > 0 {
		slog.Info(fmt.Sprintf("Waiting %d seconds before creating an issue for %s", int(d/time.Second), item.Title))
		if err := m.wait(ctx, d); err != nil {
			return m.failure(item.Title, err)
		}
	}

	issue, err := m.creator.CreateTicket(ctx, request)
	if err != nil {
		return m.failure(item.Title, err)
	}

	message := fmt.Sprintf("%s => %s", issue.HTMLURL, item.Title)
	slog.Info(message, "number", issue.Number)
	return message
}

func (m *Materializer) noop(request tracker.CreateIssueRequest) string {
	payload := struct {
		Owner  string   `json:"owner"`
		Repo   string   `json:"repo"`
		Title  string   `json:"title"`
		Body   string   `json:"body"`
		Labels []string `json:"labels"`
	}{m.owner, m.repo, request.Title, request.Body, request.Labels}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(payload); err != nil {
		buf.Reset()
		buf.WriteString(err.Error())
	}

	message := fmt.Sprintf("[NOOP] Created issue for: '%s'\n%s", request.Title, strings.TrimSuffix(buf.String(), "\n"))
	slog.Info(message)
	return message
}

func (m *Materializer) failure(title string, err error) string {
	diagnostic := err.Error()
	var apiError *tracker.APIError
	if errors.As(err, &apiError) {
		diagnostic = apiError.Error()
	}

	message := fmt.Sprintf("Error creating issue for: '%s'\n%s", title, diagnostic)
	slog.Warn(message, "reason", failureReason(err))
	return message
}

func failureReason(err error) string {
	switch {
	case tracker.IsNotFound(err):
		return "repository not found or token lacks access"
	case tracker.IsValidationFailed(err):
		return "issue rejected by validation"
	case tracker.IsRateLimited(err):
		return "rate limited"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "request failed"
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
