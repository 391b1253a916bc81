package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"autotagger/internal/logging"
)

// ErrClosed is returned when work is submitted to, or awaited on, a queue that
// no longer accepts tasks.
var ErrClosed = errors.New("task queue closed")

// Task is a unit of deferred work. Tasks report their own failures; the queue
// has no error channel.
type Task interface {
	Run(ctx context.Context)
}

// TaskFunc adapts an ordinary function to a Task.
type TaskFunc func(ctx context.Context)

// Run calls f(ctx).
func (f TaskFunc) Run(ctx context.Context) { f(ctx) }

// Option configures a Queue.
type Option func(*Queue)

// WithLogger routes executor diagnostics (recovered panics) to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithName labels the queue in log output.
func WithName(name string) Option {
	return func(q *Queue) {
		if name != "" {
			q.name = name
		}
	}
}

// Queue is a FIFO, single-consumer execution pipeline. It is safe for many
// concurrent producers.
type Queue struct {
	ctx    context.Context
	logger *slog.Logger
	name   string

	mu      sync.Mutex
	pending []Task
	closed  bool

	wake chan struct{}
	done chan struct{}
}

// New creates a queue and starts its executor. Tasks run with ctx; cancelling
// it abandons any tasks that have not started.
func New(ctx context.Context, opts ...Option) *Queue {
	if ctx == nil {
		ctx = context.Background()
	}
	q := &Queue{
		ctx:    ctx,
		logger: logging.NewNop(),
		name:   "tasks",
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	go q.execute()
	return q
}

// AddTask enqueues task and returns without waiting for it to run.
func (q *Queue) AddTask(task Task) error {
	if task == nil {
		return errors.New("task queue: nil task")
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.pending = append(q.pending, task)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Add enqueues fn as a task.
func (q *Queue) Add(fn func(ctx context.Context)) error {
	if fn == nil {
		return errors.New("task queue: nil task")
	}
	return q.AddTask(TaskFunc(fn))
}

// WaitForQueuedTasks blocks until every task submitted before the call has
// finished. It enqueues a sentinel that closes a one-shot signal when the
// executor reaches it. Tasks submitted concurrently with or after the call are
// not ordered relative to it.
func (q *Queue) WaitForQueuedTasks(ctx context.Context) error {
	signal := make(chan struct{})
	if err := q.AddTask(TaskFunc(func(context.Context) { close(signal) })); err != nil {
		return err
	}
	select {
	case <-signal:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		// The executor may have run the sentinel just before exiting.
		select {
		case <-signal:
			return nil
		default:
			return ErrClosed
		}
	}
}

// Do runs fn on the executor and waits for it to return, propagating its
// error. Because the executor runs one task at a time, concurrent callers are
// serialized in submission order.
func (q *Queue) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.New("task queue: nil task")
	}
	result := make(chan error, 1)
	if err := q.AddTask(TaskFunc(func(taskCtx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("task panicked: %v", r)
			}
		}()
		result <- fn(taskCtx)
	})); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		select {
		case err := <-result:
			return err
		default:
			return ErrClosed
		}
	}
}

// Len reports the number of tasks waiting to start.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close stops accepting new tasks. The executor drains what is already queued
// and then exits; Done reports when that has happened. Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Done is closed once the executor has exited.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

func (q *Queue) execute() {
	defer close(q.done)
	for {
		task, ok := q.next()
		if !ok {
			return
		}
		q.run(task)
	}
}

// next blocks until a task is available. It returns false once the queue is
// closed and drained, or when the queue context is cancelled.
func (q *Queue) next() (Task, bool) {
	for {
		if q.ctx.Err() != nil {
			return nil, false
		}
		q.mu.Lock()
		if len(q.pending) > 0 {
			task := q.pending[0]
			q.pending[0] = nil
			q.pending = q.pending[1:]
			q.mu.Unlock()
			return task, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil, false
		}
		select {
		case <-q.wake:
		case <-q.ctx.Done():
			return nil, false
		}
	}
}

func (q *Queue) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(q.logger, "queued task panicked", "task_panic",
				logging.String("queue", q.name),
				logging.String("panic", fmt.Sprint(r)),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldErrorHint, "the task was skipped; remaining tasks continue"),
			)
		}
	}()
	task.Run(q.ctx)
}
