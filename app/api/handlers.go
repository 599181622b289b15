package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-issues/app/cfg"
	"github.com/lysyi3m/rss-issues/app/database"
	"github.com/lysyi3m/rss-issues/app/tasks"
)

func NewHandler(c *cfg.Cfg, runRepo database.RunRepository, scheduler tasks.TaskSchedulerInterface, newTask tasks.TaskFactory) *Handler {
	return &Handler{
		runRepo:    runRepo,
		scheduler:  scheduler,
		newTask:    newTask,
		repository: c.Repository,
		dryRun:     c.DryRun,
		version:    c.Version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp":  time.Now().In(time.Local).Format(time.RFC3339),
		"version":    h.version,
		"repository": h.repository,
		"noop":       h.dryRun,
	}

	if h.runRepo != nil {
		if runs, err := h.runRepo.ListRuns(1); err == nil && len(runs) > 0 {
			health["last_run"] = runs[0]
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) ListRuns(c *gin.Context) {
	if h.runRepo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run history is disabled"})
		return
	}

	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = min(parsed, maxRunsLimit)
	}

	runs, err := h.runRepo.ListRuns(limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"total": len(runs),
	})
}

func (h *Handler) GetRun(c *gin.Context) {
	if h.runRepo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run history is disabled"})
		return
	}

	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing run id parameter"})
		return
	}

	run, err := h.runRepo.GetRun(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_run", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}

	c.JSON(http.StatusOK, run)
}

func (h *Handler) APITriggerRun(c *gin.Context) {
	task := h.newTask()
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue task", "type", string(task.GetType()), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to schedule run"})
		return
	}

	slog.Info("Run enqueued via API", "id", task.GetID())

	c.JSON(http.StatusAccepted, gin.H{
		"id":     task.GetID(),
		"status": "queued",
	})
}
