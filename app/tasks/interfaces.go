package tasks

import (
	"context"

	"github.com/lysyi3m/rss-issues/app/feed"
)

// TaskSchedulerInterface is what the HTTP API needs to trigger runs.
//
//	scheduler := NewScheduler(c, factory)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(factory())
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

type SourceLoader func() ([]*feed.Source, error)

type ItemAggregator interface {
	Run(ctx context.Context, sources []*feed.Source) []feed.Item
}

type TicketMaterializer interface {
	Create(ctx context.Context, items []feed.Item) ([]string, error)
}

var (
	_ ItemAggregator = (*feed.Aggregator)(nil)
)
