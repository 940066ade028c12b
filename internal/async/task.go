package async

import (
	"context"
	"sync/atomic"
)

// Task is a handle on work started by Go.
type Task[T any] struct {
	cancel    context.CancelFunc
	done      chan struct{}
	cancelled atomic.Bool
	value     T
	err       error
}

// Go runs fn on its own goroutine with a context derived from ctx.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer cancel()
		t.value, t.err = fn(ctx)
	}()
	return t
}

// Done is closed when fn has returned.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until fn returns or ctx is done.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel cancels fn's context and discards its result: a callback registered
// with Then that has not started yet will not run. Safe to call repeatedly.
func (t *Task[T]) Cancel() {
	t.cancelled.Store(true)
	t.cancel()
}

// Cancelled reports whether Cancel was called.
func (t *Task[T]) Cancelled() bool {
	return t.cancelled.Load()
}

// Then delivers the result to cb on d. The returned channel is closed once cb
// has run or has been skipped because the task was cancelled or d stopped.
func (t *Task[T]) Then(d Dispatcher, cb func(T, error)) <-chan struct{} {
	finished := make(chan struct{})
	go func() {
		<-t.done
		if t.Cancelled() {
			close(finished)
			return
		}
		ok := d.Dispatch(func() {
			defer close(finished)
			// Cancel may have been called on d between scheduling and now.
			if t.Cancelled() {
				return
			}
			cb(t.value, t.err)
		})
		if !ok {
			close(finished)
		}
	}()
	return finished
}
