package database

import (
	"time"
)

type RunRepository interface {
	CreateRun(id string, startedAt time.Time) error
	FinishRun(id string, finishedAt time.Time, outcome RunOutcome) error

	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]Run, error)
}

var _ RunRepository = (*RunRepo)(nil)
