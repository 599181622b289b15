package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// timeLayout is fixed-width so text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type RunRepo struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) CreateRun(id string, startedAt time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO runs (id, started_at, status)
		VALUES (?, ?, ?)
	`, id, formatTime(startedAt), RunStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun stores the outcome and the result lines of a run.
func (r *RunRepo) FinishRun(id string, finishedAt time.Time, outcome RunOutcome) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	errorText := ""
	if outcome.Err != nil {
		errorText = outcome.Err.Error()
	}

	result, err := tx.Exec(`
		UPDATE runs
		SET finished_at = ?, status = ?, items_fetched = ?, items_selected = ?, error = ?
		WHERE id = ?
	`, formatTime(finishedAt), outcome.Status, outcome.ItemsFetched, len(outcome.Results), errorText, id)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("run %s not found", id)
	}

	for position, line := range outcome.Results {
		if _, err := tx.Exec(`
			INSERT INTO run_results (run_id, position, line)
			VALUES (?, ?, ?)
		`, id, position, line); err != nil {
			return fmt.Errorf("failed to insert run result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun returns the run with its result lines, or nil when it does not exist.
func (r *RunRepo) GetRun(id string) (*Run, error) {
	row := r.db.QueryRow(`
		SELECT id, started_at, finished_at, status, items_fetched, items_selected, error
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rows, err := r.db.Query(`
		SELECT line FROM run_results
		WHERE run_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run results: %w", err)
	}
	defer rows.Close()

	run.Results = []string{}
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("failed to scan run result: %w", err)
		}
		run.Results = append(run.Results, line)
	}

	return run, rows.Err()
}

// ListRuns returns the latest runs first.
func (r *RunRepo) ListRuns(limit int) ([]Run, error) {
	rows, err := r.db.Query(`
		SELECT id, started_at, finished_at, status, items_fetched, items_selected, error
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var startedAt string
	var finishedAt sql.NullString

	if err := s.Scan(&run.ID, &startedAt, &finishedAt, &run.Status, &run.ItemsFetched, &run.ItemsSelected, &run.Error); err != nil {
		return nil, err
	}

	var err error
	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		t, err := time.Parse(timeLayout, finishedAt.String)
		if err != nil {
			return nil, err
		}
		run.FinishedAt = &t
	}

	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
