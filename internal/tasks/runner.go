// Package tasks runs fire-and-forget work after an HTTP response has been
// sent, while keeping every task observable: each one gets an id, a
// completion channel and lifecycle events.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/jira-refiner/internal/core"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/events"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/logging"
)

// KindJiraUpdate is the kind of task that writes a refinement back to Jira.
const KindJiraUpdate = "jira_update"

// Spec describes a task for logs and events.
type Spec struct {
	Kind    string
	IssueID string
}

// Func is the body of a task.
type Func func(ctx context.Context) error

// Task is the handle of a scheduled task.
type Task struct {
	ID        string
	Spec      Spec
	StartedAt time.Time

	done chan struct{}
	err  error
}

// Done returns a channel that's closed when the task finishes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the task outcome. It is nil until Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Options configures a Runner.
type Options struct {
	// Timeout bounds each task. Zero means no bound.
	Timeout time.Duration
	Bus     *events.EventBus
	Logger  *logging.Logger
}

// Runner supervises background tasks.
type Runner struct {
	group    errgroup.Group
	timeout  time.Duration
	bus      *events.EventBus
	logger   *logging.Logger
	inFlight atomic.Int64

	mu     sync.Mutex
	closed bool
}

// NewRunner creates a runner.
func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		timeout: opts.Timeout,
		bus:     opts.Bus,
		logger:  logger,
	}
}

// ErrRunnerClosed is the outcome of tasks submitted after Close.
var ErrRunnerClosed = errors.New("task runner is closed")

// Go schedules fn and returns immediately. The task context keeps the values
// of ctx but not its cancellation, so a finished HTTP request does not abort
// the work.
func (r *Runner) Go(ctx context.Context, spec Spec, fn Func) *Task {
	task := &Task{
		ID:        uuid.NewString(),
		Spec:      spec,
		StartedAt: time.Now(),
		done:      make(chan struct{}),
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		task.err = ErrRunnerClosed
		close(task.done)
		return task
	}
	r.inFlight.Add(1)
	r.group.Go(func() error {
		r.run(context.WithoutCancel(ctx), task, fn)
		return nil
	})
	r.mu.Unlock()

	return task
}

func (r *Runner) run(ctx context.Context, task *Task, fn Func) {
	defer r.inFlight.Add(-1)
	defer close(task.done)

	logger := r.logger.WithTask(task.ID).WithIssue(task.Spec.IssueID).With("kind", task.Spec.Kind)
	r.publish(events.NewTaskStartedEvent(task.Spec.IssueID, task.ID, task.Spec.Kind))
	logger.Debug("task started")

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	task.err = safeCall(ctx, fn)
	duration := time.Since(task.StartedAt)

	if task.err != nil {
		category := string(core.GetCategory(task.err))
		logger.Error("task failed",
			"error", task.err,
			"category", category,
			"duration", duration,
		)
		r.publish(events.NewTaskFailedEvent(
			task.Spec.IssueID, task.ID, task.Spec.Kind,
			task.err, category, core.IsRetryable(task.err), duration,
		))
		return
	}

	logger.Info("task completed", "duration", duration)
	r.publish(events.NewTaskCompletedEvent(task.Spec.IssueID, task.ID, task.Spec.Kind, duration))
}

func safeCall(ctx context.Context, fn Func) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task panicked: %v\n%s", rec, debug.Stack())
		}
	}()
	return fn(ctx)
}

func (r *Runner) publish(e events.Event) {
	if r.bus != nil {
		r.bus.Publish(e)
	}
}

// InFlight returns the number of tasks that have not finished.
func (r *Runner) InFlight() int {
	return int(r.inFlight.Load())
}

// Close stops accepting tasks. Tasks already running are unaffected.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// Wait closes the runner and blocks until every task finishes or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	r.Close()

	done := make(chan struct{})
	go func() {
		_ = r.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for %d background tasks: %w", r.InFlight(), ctx.Err())
	}
}
