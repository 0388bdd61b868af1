// Package maintenance runs periodic background tasks.
package maintenance

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Task is a function run on a fixed interval.
type Task struct {
	// Name identifies the task in logs.
	Name string

	// Interval between runs. A non-positive interval disables the task.
	Interval time.Duration

	// Run performs one tick of work.
	Run func(ctx context.Context)
}

// Scheduler owns one goroutine per task.
// Each task ticks independently of the others.
type Scheduler struct {
	tasks  []Task
	logger *zap.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// New creates a scheduler for the given tasks. Call Start to begin ticking.
func New(logger *zap.Logger, tasks ...Task) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{tasks: tasks, logger: logger}
}

// Start launches the task loops. Calling Start more than once, or after Stop,
// has no effect.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return
	}
	s.started = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.group, ctx = errgroup.WithContext(ctx)

	for _, task := range s.tasks {
		if task.Interval <= 0 || task.Run == nil {
			s.logger.Debug("maintenance task disabled", zap.String("task", task.Name))
			continue
		}
		s.group.Go(func() error {
			s.loop(ctx, task)
			return nil
		})
	}
}

// Stop cancels all task loops and waits for them to exit. A tick that is
// already running completes first; no tick starts after Stop begins.
// Stop is safe to call multiple times.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel, group := s.cancel, s.group
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	_ = group.Wait()
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	s.logger.Debug("maintenance task started",
		zap.String("task", task.Name),
		zap.Duration("interval", task.Interval),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("maintenance task stopped", zap.String("task", task.Name))
			return
		case <-ticker.C:
			// Both channels may be ready; cancellation wins.
			if ctx.Err() != nil {
				return
			}
			task.Run(ctx)
		}
	}
}
