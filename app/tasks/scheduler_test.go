package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lysyi3m/rss-issues/app/cfg"
)

type countingTask struct {
	Task
	executions atomic.Int32
	failures   int32
	done       chan struct{}
}

func newCountingTask(failures int32) *countingTask {
	return &countingTask{
		Task:     NewTask(TaskTypeSyncIssues),
		failures: failures,
		done:     make(chan struct{}, 10),
	}
}

func (c *countingTask) Execute(ctx context.Context) error {
	n := c.executions.Add(1)
	defer func() {
		select {
		case c.done <- struct{}{}:
		default:
		}
	}()
	if n <= c.failures {
		return errors.New("temporary failure")
	}
	return nil
}

func waitFor(t *testing.T, done <-chan struct{}, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("Timed out waiting for execution %d", i+1)
		}
	}
}

func TestSchedulerExecutesEnqueuedTask(t *testing.T) {
	task := newCountingTask(0)
	scheduler := NewScheduler(&cfg.Cfg{}, func() TaskInterface { return task })
	scheduler.Start()
	defer scheduler.Stop()

	if err := scheduler.EnqueueTask(task); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	waitFor(t, task.done, 1)
	if task.executions.Load() != 1 {
		t.Errorf("Expected 1 execution, got: %d", task.executions.Load())
	}
}

func TestSchedulerRetriesFailedTask(t *testing.T) {
	task := newCountingTask(2)
	scheduler := NewScheduler(&cfg.Cfg{}, func() TaskInterface { return task })
	scheduler.retryBase = time.Millisecond
	scheduler.Start()
	defer scheduler.Stop()

	scheduler.EnqueueTask(task)

	waitFor(t, task.done, 3)
	if task.executions.Load() != 3 {
		t.Errorf("Expected 3 executions, got: %d", task.executions.Load())
	}
	if task.GetRetryCount() != 2 {
		t.Errorf("Expected 2 retries, got: %d", task.GetRetryCount())
	}
}

func TestSchedulerStopsRetryingAtMaximum(t *testing.T) {
	task := newCountingTask(100)
	task.MaxRetries = 1
	scheduler := NewScheduler(&cfg.Cfg{}, func() TaskInterface { return task })
	scheduler.retryBase = time.Millisecond
	scheduler.Start()

	scheduler.EnqueueTask(task)
	waitFor(t, task.done, 2)

	time.Sleep(20 * time.Millisecond)
	scheduler.Stop()

	if task.executions.Load() != 2 {
		t.Errorf("Expected 2 executions, got: %d", task.executions.Load())
	}
}

func TestSchedulerEnqueuesOnInterval(t *testing.T) {
	done := make(chan struct{}, 10)
	factory := func() TaskInterface {
		task := newCountingTask(0)
		task.done = done
		return task
	}

	scheduler := NewScheduler(&cfg.Cfg{Interval: 1}, factory)
	scheduler.interval = 10 * time.Millisecond
	scheduler.Start()
	defer scheduler.Stop()

	waitFor(t, done, 2)
}

func TestSchedulerEnqueueAfterStop(t *testing.T) {
	scheduler := NewScheduler(&cfg.Cfg{}, nil)
	scheduler.Start()
	scheduler.Stop()

	if err := scheduler.EnqueueTask(newCountingTask(0)); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}

func TestSchedulerQueueFull(t *testing.T) {
	scheduler := NewScheduler(&cfg.Cfg{}, nil)
	defer scheduler.Stop()

	for i := 0; i < cap(scheduler.taskQueue); i++ {
		if err := scheduler.EnqueueTask(newCountingTask(0)); err != nil {
			t.Fatalf("Unexpected error filling queue: %v", err)
		}
	}

	if err := scheduler.EnqueueTask(newCountingTask(0)); err == nil {
		t.Error("Expected an error when the queue is full")
	}
}

func TestRetryDelay(t *testing.T) {
	scheduler := NewScheduler(&cfg.Cfg{}, nil)

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{10, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := scheduler.retryDelay(tt.retry); got != tt.want {
			t.Errorf("retryDelay(%d) = %v, want %v", tt.retry, got, tt.want)
		}
	}
}
