package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	version, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Expected no error on second run, got: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("Expected clean version 1, got: %d (dirty=%v)", version, dirty)
	}
}

func TestRunLifecycle(t *testing.T) {
	repo := NewRunRepository(newTestDB(t))

	started := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	if err := repo.CreateRun("run-1", started); err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}

	run, err := repo.GetRun("run-1")
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if run == nil || run.Status != RunStatusRunning || run.FinishedAt != nil {
		t.Fatalf("Expected a running run, got: %+v", run)
	}

	finished := started.Add(90 * time.Second)
	outcome := RunOutcome{
		Status:       RunStatusSucceeded,
		ItemsFetched: 5,
		Results:      []string{"https://github.com/o/r/issues/1 => A", "Error creating issue for: 'B'\n403: Forbidden"},
	}
	if err := repo.FinishRun("run-1", finished, outcome); err != nil {
		t.Fatalf("Failed to finish run: %v", err)
	}

	run, err = repo.GetRun("run-1")
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if run.Status != RunStatusSucceeded {
		t.Errorf("Expected status succeeded, got: %s", run.Status)
	}
	if !run.StartedAt.Equal(started) {
		t.Errorf("Expected started_at %v, got: %v", started, run.StartedAt)
	}
	if run.FinishedAt == nil || !run.FinishedAt.Equal(finished) {
		t.Errorf("Expected finished_at %v, got: %v", finished, run.FinishedAt)
	}
	if run.ItemsFetched != 5 || run.ItemsSelected != 2 {
		t.Errorf("Expected 5 fetched and 2 selected, got: %d and %d", run.ItemsFetched, run.ItemsSelected)
	}
	if len(run.Results) != 2 || run.Results[1] != "Error creating issue for: 'B'\n403: Forbidden" {
		t.Errorf("Unexpected results: %q", run.Results)
	}
}

func TestFinishRunRecordsError(t *testing.T) {
	repo := NewRunRepository(newTestDB(t))

	now := time.Now()
	if err := repo.CreateRun("run-err", now); err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}
	if err := repo.FinishRun("run-err", now, RunOutcome{Status: RunStatusFailed, Err: errors.New("tracker unavailable")}); err != nil {
		t.Fatalf("Failed to finish run: %v", err)
	}

	run, err := repo.GetRun("run-err")
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if run.Status != RunStatusFailed || run.Error != "tracker unavailable" {
		t.Errorf("Unexpected run: %+v", run)
	}
	if len(run.Results) != 0 {
		t.Errorf("Expected no results, got: %v", run.Results)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	repo := NewRunRepository(newTestDB(t))

	if err := repo.FinishRun("missing", time.Now(), RunOutcome{Status: RunStatusSucceeded}); err == nil {
		t.Error("Expected an error for an unknown run")
	}
}

func TestGetRunNotFound(t *testing.T) {
	repo := NewRunRepository(newTestDB(t))

	run, err := repo.GetRun("missing")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if run != nil {
		t.Errorf("Expected nil run, got: %+v", run)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	repo := NewRunRepository(newTestDB(t))

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := repo.CreateRun(id, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Failed to create run %s: %v", id, err)
		}
	}

	runs, err := repo.ListRuns(2)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got: %d", len(runs))
	}
	if runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("Expected c then b, got: %s then %s", runs[0].ID, runs[1].ID)
	}
}
