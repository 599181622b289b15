package api

import (
	"github.com/lysyi3m/rss-issues/app/database"
	"github.com/lysyi3m/rss-issues/app/tasks"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

type Handler struct {
	runRepo    database.RunRepository // nil when run history is disabled
	scheduler  tasks.TaskSchedulerInterface
	newTask    tasks.TaskFactory
	repository string
	dryRun     bool
	version    string
}
