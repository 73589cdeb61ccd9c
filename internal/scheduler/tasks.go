package scheduler

import (
	"context"
	"sync"
	"time"

	"IntraScan/pkg/logger"
)

// TaskFunc is one periodic unit of work. A returned error is logged, never
// fatal; the task keeps its schedule.
type TaskFunc func(ctx context.Context) error

// Runner owns a set of named periodic tasks, each individually cancellable.
type Runner struct {
	log *logger.Logger

	mu    sync.Mutex
	tasks map[string]context.CancelFunc
	wg    sync.WaitGroup
}

// NewRunner creates an empty task runner.
func NewRunner(log *logger.Logger) *Runner {
	return &Runner{log: log, tasks: make(map[string]context.CancelFunc)}
}

// Every schedules fn at the given interval until the context is cancelled
// or the task is stopped by name. Scheduling a name twice replaces the
// previous task.
func (r *Runner) Every(ctx context.Context, name string, interval time.Duration, fn TaskFunc) {
	r.mu.Lock()
	if cancel, ok := r.tasks[name]; ok {
		cancel()
	}
	taskCtx, cancel := context.WithCancel(ctx)
	r.tasks[name] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-taskCtx.Done():
				return
			case <-ticker.C:
				if err := fn(taskCtx); err != nil {
					r.log.Error("scheduled task failed",
						logger.String("task", name),
						logger.Error(err))
				}
			}
		}
	}()
}

// Stop cancels one task by name. Unknown names are a no-op.
func (r *Runner) Stop(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, ok := r.tasks[name]; ok {
		cancel()
		delete(r.tasks, name)
	}
}

// Shutdown cancels every task and waits for the goroutines to drain.
func (r *Runner) Shutdown() {
	r.mu.Lock()
	for name, cancel := range r.tasks {
		cancel()
		delete(r.tasks, name)
	}
	r.mu.Unlock()
	r.wg.Wait()
}
