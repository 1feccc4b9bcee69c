package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned when Run is called while a task holds the
// slot. Callers are expected to check IsRunning first; this error is the
// backstop, not the coordination mechanism.
var ErrAlreadyRunning = errors.New("a background task is already running")

const defaultDelay = 30 * time.Second

// Task is a single periodic callback invocation.
type Task func(ctx context.Context, params Parameters)

// Parameters is the opaque parameter bag handed to the task on every tick.
type Parameters struct {
	Delay time.Duration
}

// Options describe the task for OS-level surfacing (notification title,
// icon, deep link) and carry its parameters.
type Options struct {
	Name        string
	Title       string
	Description string
	Icon        string
	Color       string
	LinkingURI  string
	Parameters  Parameters
}

// Runner executes at most one periodic task process-wide, keeping it alive
// until Stop. On a mobile host the continuation guarantee comes from a
// foreground service; here the process itself is the guarantee and the
// notification side-channel degrades to a log line.
type Runner struct {
	log *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	opts   Options
	taskID string
}

// New creates an idle Runner.
func New(log *zap.Logger) *Runner {
	return &Runner{log: log.Named("BackgroundRunner")}
}

// Run registers task and starts invoking it periodically. Only one task may
// hold the slot at a time.
func (r *Runner) Run(task Task, opts Options) error {
	if opts.Parameters.Delay <= 0 {
		opts.Parameters.Delay = defaultDelay
	}

	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.opts = opts
	r.taskID = uuid.NewString()
	taskID := r.taskID
	r.mu.Unlock()

	r.log.Info("background task started",
		zap.String("task", opts.Name),
		zap.String("id", taskID),
		zap.Duration("delay", opts.Parameters.Delay),
	)

	go r.loop(ctx, task, opts.Parameters, done)
	return nil
}

func (r *Runner) loop(ctx context.Context, task Task, params Parameters, done chan struct{}) {
	defer close(done)
	for {
		r.invoke(ctx, task, params)

		select {
		case <-ctx.Done():
			return
		case <-time.After(params.Delay):
		}
	}
}

// invoke shields the loop from a panicking callback; the task must keep
// ticking for days regardless of a single bad cycle.
func (r *Runner) invoke(ctx context.Context, task Task, params Parameters) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("background task panicked", zap.Any("panic", rec))
		}
	}()
	task(ctx, params)
}

// Stop terminates the running task and waits for its loop to exit.
// Stopping an idle runner is a no-op.
func (r *Runner) Stop() error {
	r.mu.Lock()
	cancel := r.cancel
	done := r.done
	name := r.opts.Name
	r.cancel = nil
	r.done = nil
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	r.log.Info("background task stopped", zap.String("task", name))
	return nil
}

// IsRunning reports whether a task currently holds the slot.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// UpdateNotification refreshes the OS-facing status line for the running
// task. Without a platform host the text lives on the runner and in the
// log only.
func (r *Runner) UpdateNotification(title, desc string, progress int) {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return
	}
	r.opts.Title = title
	r.opts.Description = desc
	r.mu.Unlock()

	r.log.Debug("notification updated",
		zap.String("title", title),
		zap.String("desc", desc),
		zap.Int("progress", progress),
	)
}

// Notification returns the current OS-facing status line.
func (r *Runner) Notification() (title, desc string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts.Title, r.opts.Description
}
