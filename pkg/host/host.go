// Package host is the reference host-executor implementation §5 of the
// spec describes but leaves to "the host": a cooperative driver that
// polls a Task's pending futures to completion and, when a program
// touches more than one independently-progressing future, runs several
// Tasks concurrently without making any single Task's internal state
// (stack, frames, shared cells) visible across goroutines — each Task is
// still driven by exactly one goroutine at a time, matching §5's "a Task
// is not shared across threads".
package host

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kristofer/weave/pkg/value"
	"github.com/kristofer/weave/pkg/vm"
)

// DefaultPollInterval is how often Run re-polls a Task parked on a
// pending future, unless WithPollInterval sets another interval. Real host integrations (network I/O, timers) would
// replace this busy-wait with a readiness notification; the reference
// executor keeps it simple since the core has no I/O of its own to wait
// on.
const DefaultPollInterval = time.Millisecond

// Executor drives one or more Tasks to completion, resuming each at its
// own pace as the futures it's waiting on become ready.
type Executor struct {
	pollInterval time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithPollInterval overrides DefaultPollInterval, mostly useful for
// tests that want to assert on suspension without a real wait.
func WithPollInterval(d time.Duration) Option {
	return func(e *Executor) { e.pollInterval = d }
}

// New builds an Executor with the given options applied.
func New(opts ...Option) *Executor {
	e := &Executor{pollInterval: DefaultPollInterval}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TaskHandle names a Task being driven, for diagnostics: panic/error
// reports and any external future-readiness notification can tag the
// Task they came from by this id rather than a Go pointer.
type TaskHandle struct {
	ID   uuid.UUID
	task *vm.Task
}

// Track wraps a freshly-created Task (from VM.Call / VM.CallFunction)
// with an id, generated once per task and stable for its whole lifetime.
func Track(task *vm.Task) TaskHandle {
	return TaskHandle{ID: uuid.New(), task: task}
}

// Run drives a single Task to completion, repolling its pending future
// (if any) every pollInterval until RunToCompletion stops returning
// vm.ErrSuspended. It honors ctx cancellation: dropping a task mid-await
// is exactly §5's cancellation story — the task is abandoned and its
// in-flight borrows are released as Go's garbage collector reclaims the
// abandoned Task value, since nothing else holds a reference to it.
func (e *Executor) Run(ctx context.Context, h TaskHandle) (value.Value, error) {
	for {
		rv, err := h.task.RunToCompletion()
		if err == nil {
			return rv, nil
		}
		if !errors.Is(err, vm.ErrSuspended) {
			return value.Unit(), err
		}
		select {
		case <-ctx.Done():
			return value.Unit(), ctx.Err()
		case <-time.After(e.pollInterval):
		}
	}
}

// RunAll drives every handle in tasks concurrently via errgroup,
// returning each Task's result keyed by its TaskHandle.ID. If any Task
// errors, RunAll cancels the shared context (errgroup's WithContext
// semantics) so the remaining tasks are abandoned rather than continuing
// to burn the poll loop — this is the concurrency §5 calls out as
// supported ("a host may run several tasks side by side"), never
// parallel execution *within* one task.
func (e *Executor) RunAll(ctx context.Context, tasks []TaskHandle) (map[uuid.UUID]value.Value, error) {
	g, gctx := errgroup.WithContext(ctx)
	results := make(map[uuid.UUID]value.Value, len(tasks))
	out := make(chan struct {
		id uuid.UUID
		v  value.Value
	}, len(tasks))
	for _, h := range tasks {
		h := h
		g.Go(func() error {
			rv, err := e.Run(gctx, h)
			if err != nil {
				return err
			}
			out <- struct {
				id uuid.UUID
				v  value.Value
			}{h.ID, rv}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(out)
	for r := range out {
		results[r.id] = r.v
	}
	return results, nil
}
