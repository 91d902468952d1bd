// Package worker runs fire-and-forget work detached from the HTTP request that
// triggered it. The request returns immediately; the task gets its own
// deadline, its failures are logged, and in-flight tasks are drained during
// graceful shutdown.
//
// The api and events packages hold the Spawner interface and never import the
// concrete Runner.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ─── SPAWNER INTERFACE ────────────────────────────────────────────────────────

// Task is one detached unit of work. A returned error is logged, never
// propagated.
type Task func(ctx context.Context) error

// Spawner is the narrow interface callers use to hand off detached work.
// Go reports whether task was started; false means it was dropped.
type Spawner interface {
	Go(ctx context.Context, name string, task Task) bool
}

// ─── RUNNER ───────────────────────────────────────────────────────────────────

// RunnerConfig holds tuning parameters for the Runner.
type RunnerConfig struct {
	// TaskTimeout is the per-task context deadline. Default: 10s.
	TaskTimeout time.Duration
}

// DefaultRunnerConfig returns production defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{TaskTimeout: 10 * time.Second}
}

// ErrStopped is logged when a task is submitted after Shutdown.
var ErrStopped = errors.New("worker: runner is shut down")

// Runner tracks detached goroutines so Shutdown can wait for them.
type Runner struct {
	cfg    RunnerConfig
	logger *slog.Logger

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewRunner constructs a Runner.
func NewRunner(cfg RunnerConfig, logger *slog.Logger) *Runner {
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = DefaultRunnerConfig().TaskTimeout
	}
	return &Runner{cfg: cfg, logger: logger}
}

// Go starts task in its own goroutine. The task context keeps the values of
// ctx (request ID, etc.) but not its cancellation, so a finished HTTP request
// does not abort the write it triggered. It returns false, without running
// task, once Shutdown has been called.
func (r *Runner) Go(ctx context.Context, name string, task Task) bool {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		r.logger.Warn("worker: task dropped", "task", name, "error", ErrStopped)
		return false
	}
	r.wg.Add(1)
	r.mu.Unlock()

	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.TaskTimeout)

	go func() {
		defer r.wg.Done()
		defer cancel()

		start := time.Now()
		if err := r.run(taskCtx, task); err != nil {
			r.logger.Error("worker: task failed",
				"task", name,
				"error", err,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return
		}
		r.logger.Debug("worker: task completed",
			"task", name,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()
	return true
}

// run invokes task, converting a panic into an error so one bad task cannot
// take the process down.
func (r *Runner) run(ctx context.Context, task Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("worker: task panicked: %v", p)
		}
	}()
	return task(ctx)
}

// Wait blocks until every task started so far has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Shutdown stops accepting tasks and waits for in-flight ones until ctx is
// done.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("worker: stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker: shutdown: %w", ctx.Err())
	}
}
