package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/rss-issues/app/database"
	"github.com/lysyi3m/rss-issues/app/issues"
)

var _ TicketMaterializer = (*issues.Materializer)(nil)

// SyncIssuesTask runs one pipeline cycle: load sources, aggregate their
// items, then create issues for the new ones.
type SyncIssuesTask struct {
	Task
	loadSources  SourceLoader
	aggregator   ItemAggregator
	materializer TicketMaterializer
	runRepo      database.RunRepository // optional

	results []string
}

func NewSyncIssuesTask(loadSources SourceLoader, aggregator ItemAggregator, materializer TicketMaterializer, runRepo database.RunRepository) *SyncIssuesTask {
	return &SyncIssuesTask{
		Task:         NewTask(TaskTypeSyncIssues),
		loadSources:  loadSources,
		aggregator:   aggregator,
		materializer: materializer,
		runRepo:      runRepo,
	}
}

// Execute fails only when the sources cannot be loaded or the existing
// issues cannot be read. Each attempt is recorded as its own run.
func (t *SyncIssuesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t.results = nil
	runID := t.beginRun()

	fetched, results, err := t.run(ctx)

	outcome := database.RunOutcome{
		Status:       database.RunStatusSucceeded,
		ItemsFetched: fetched,
		Results:      results,
		Err:          err,
	}
	if err != nil {
		outcome.Status = database.RunStatusFailed
	}
	t.finishRun(runID, outcome)

	if err != nil {
		return err
	}

	t.results = results
	slog.Info("Sync finished", "id", t.ID, "fetched", fetched, "count", len(results), "duration", t.GetDuration())
	return nil
}

func (t *SyncIssuesTask) run(ctx context.Context) (int, []string, error) {
	sources, err := t.loadSources()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load sources: %w", err)
	}

	items := t.aggregator.Run(ctx, sources)

	results, err := t.materializer.Create(ctx, items)
	if err != nil {
		return len(items), nil, err
	}

	return len(items), results, nil
}

// Results returns the status lines of the last successful execution.
func (t *SyncIssuesTask) Results() []string {
	return t.results
}

func (t *SyncIssuesTask) beginRun() string {
	if t.runRepo == nil {
		return ""
	}

	runID := fmt.Sprintf("%s-%d", t.ID, t.RetryCount)
	if err := t.runRepo.CreateRun(runID, time.Now()); err != nil {
		slog.Warn("Failed to record run start", "id", runID, "error", err)
		return ""
	}
	return runID
}

func (t *SyncIssuesTask) finishRun(runID string, outcome database.RunOutcome) {
	if t.runRepo == nil || runID == "" {
		return
	}

	if err := t.runRepo.FinishRun(runID, time.Now(), outcome); err != nil {
		slog.Warn("Failed to record run result", "id", runID, "error", err)
	}
}
