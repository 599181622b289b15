package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// SourceGetter fetches the items of a single source.
type SourceGetter interface {
	Get(ctx context.Context, source *Source) ([]Item, error)
}

var _ SourceGetter = (*Fetcher)(nil)

type Aggregator struct {
	getter SourceGetter
}

func NewAggregator(getter SourceGetter) *Aggregator {
	return &Aggregator{getter: getter}
}

type outcome struct {
	items []Item
	err   error
}

// Run gets every source concurrently and flattens the successful results.
// A failing source is logged and skipped; it never affects the others.
// Items of one source keep their feed order.
func (a *Aggregator) Run(ctx context.Context, sources []*Source) []Item {
	outcomes := make([]outcome, len(sources))

	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = outcome{err: &SourceError{Source: source, Err: fmt.Errorf("panic: %v", r)}}
				}
			}()
			items, err := a.getter.Get(ctx, source)
			outcomes[i] = outcome{items: items, err: err}
		}()
	}
	wg.Wait()

	var items []Item
	failed := 0
	for i, result := range outcomes {
		if result.err != nil {
			if IsBadStatus(result.err) {
				slog.Warn("Source answered with an error status", "source", sources[i].Name, "error", result.err)
			} else {
				slog.Warn("Error while processing source", "source", sources[i].Name, "error", result.err)
			}
			failed++
			continue
		}
		items = append(items, result.items...)
	}

	slog.Info("Sources processed",
		"total", len(sources),
		"failed", failed,
		"items", len(items))

	return items
}
