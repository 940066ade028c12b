// Package async runs blocking work off the caller's goroutine and delivers
// results on a single serial dispatcher, so state owned by that dispatcher is
// only ever touched from one goroutine.
package async

import (
	"context"
	"sync"
)

// Dispatcher executes callbacks one at a time, in submission order.
type Dispatcher interface {
	// Dispatch queues fn. It reports false when the dispatcher has stopped
	// and fn will never run.
	Dispatch(fn func()) bool
}

// Loop is a serial Dispatcher driven by Run.
type Loop struct {
	queue    chan func()
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewLoop returns a loop whose queue holds up to buffer pending callbacks
// before Dispatch blocks.
func NewLoop(buffer int) *Loop {
	if buffer < 0 {
		buffer = 0
	}
	return &Loop{
		queue:   make(chan func(), buffer),
		stopped: make(chan struct{}),
	}
}

// Dispatch implements Dispatcher.
func (l *Loop) Dispatch(fn func()) bool {
	select {
	case <-l.stopped:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.stopped:
		return false
	}
}

// Run executes queued callbacks until ctx is done. Callbacks still queued
// when it returns are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stopOnce.Do(func() { close(l.stopped) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

// Stopped is closed once Run has returned.
func (l *Loop) Stopped() <-chan struct{} {
	return l.stopped
}
