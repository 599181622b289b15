package database

import (
	"time"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one pipeline cycle: fetch, select, create.
type Run struct {
	ID            string     `json:"id"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	Status        RunStatus  `json:"status"`
	ItemsFetched  int        `json:"items_fetched"`
	ItemsSelected int        `json:"items_selected"` // one status line per selected item
	Error         string     `json:"error,omitempty"`
	Results       []string   `json:"results,omitempty"` // only filled by GetRun
}

// RunOutcome is what a finished run reports back.
type RunOutcome struct {
	Status       RunStatus
	ItemsFetched int
	Results      []string
	Err          error
}
