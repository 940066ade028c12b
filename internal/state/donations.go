// Package state holds the donation lists a screen displays. Every mutation
// happens inside a callback on the dispatcher, and a failed remote operation
// never changes what is displayed.
package state

import (
	"context"
	"errors"
	"sync"

	"fooddonation/internal/async"
	"fooddonation/internal/domain"
)

// ErrUnsupported is reported by Remove or UpdateStatus on a list that does
// not offer that action.
var ErrUnsupported = errors.New("state: action not available for this list")

// Loader fetches the full contents of a list.
type Loader func(ctx context.Context) ([]domain.Donation, error)

// Remover deletes one entry server side.
type Remover func(ctx context.Context, id string) error

// Updater records a request decision server side.
type Updater func(ctx context.Context, id, status string) error

// DonationList is the view-state behind one screen.
type DonationList struct {
	dispatcher async.Dispatcher
	load       Loader
	remove     Remover
	update     Updater

	mu      sync.Mutex
	items   []domain.Donation
	err     error
	loading *async.Task[[]domain.Donation]
	// epoch advances on every confirmed mutation; a refresh started in an
	// earlier epoch is not applied.
	epoch uint64
}

// NewDonationList wires a list to its operations. remove and update may be nil.
func NewDonationList(d async.Dispatcher, load Loader, remove Remover, update Updater) *DonationList {
	return &DonationList{dispatcher: d, load: load, remove: remove, update: update}
}

// Items returns a copy of the displayed entries.
func (l *DonationList) Items() []domain.Donation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Donation(nil), l.items...)
}

// Find returns the displayed entry with the given id.
func (l *DonationList) Find(id string) (domain.Donation, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, d := range l.items {
		if d.ID == id {
			return d, true
		}
	}
	return domain.Donation{}, false
}

// Err returns the error of the last failed operation, nil after a success.
func (l *DonationList) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Message is the text shown for Err, empty when there is none.
func (l *DonationList) Message() string {
	if err := l.Err(); err != nil {
		return domain.UserMessage(err)
	}
	return ""
}

// Refresh reloads the list. An earlier refresh still in flight is cancelled
// and its result discarded, as is this one if a remove or status update is
// confirmed before it lands. The returned channel closes once the result has
// been applied or skipped.
func (l *DonationList) Refresh(ctx context.Context) <-chan struct{} {
	l.mu.Lock()
	l.cancelLoadingLocked()
	started := l.epoch
	task := async.Go[[]domain.Donation](ctx, l.load)
	l.loading = task
	l.mu.Unlock()
	return task.Then(l.dispatcher, func(items []domain.Donation, err error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.loading == task {
			l.loading = nil
		}
		if l.epoch != started {
			return
		}
		if err != nil {
			l.err = err
			return
		}
		l.items = items
		l.err = nil
	})
}

func (l *DonationList) cancelLoadingLocked() {
	if l.loading != nil {
		l.loading.Cancel()
		l.loading = nil
	}
}

// Remove deletes id server side and drops it from the list only once the
// server has confirmed.
func (l *DonationList) Remove(ctx context.Context, id string) <-chan struct{} {
	if l.remove == nil {
		return l.fail(ErrUnsupported)
	}
	l.mu.Lock()
	l.cancelLoadingLocked()
	l.mu.Unlock()
	task := async.Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, l.remove(ctx, id)
	})
	return task.Then(l.dispatcher, func(_ struct{}, err error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		if err != nil {
			l.err = err
			return
		}
		kept := l.items[:0:0]
		for _, d := range l.items {
			if d.ID != id {
				kept = append(kept, d)
			}
		}
		l.items = kept
		l.err = nil
		l.epoch++
	})
}

// UpdateStatus records a decision and refetches so the list shows the
// server's view. On failure the displayed status is left alone.
func (l *DonationList) UpdateStatus(ctx context.Context, id, status string) <-chan struct{} {
	if l.update == nil {
		return l.fail(ErrUnsupported)
	}
	l.mu.Lock()
	l.cancelLoadingLocked()
	l.mu.Unlock()
	task := async.Go(ctx, func(ctx context.Context) ([]domain.Donation, error) {
		if err := l.update(ctx, id, status); err != nil {
			return nil, err
		}
		return l.load(ctx)
	})
	return task.Then(l.dispatcher, func(items []domain.Donation, err error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		if err != nil {
			l.err = err
			return
		}
		l.items = items
		l.err = nil
		l.epoch++
	})
}

// Close cancels an in-flight refresh.
func (l *DonationList) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelLoadingLocked()
}

func (l *DonationList) fail(err error) <-chan struct{} {
	done := make(chan struct{})
	if !l.dispatcher.Dispatch(func() {
		defer close(done)
		l.mu.Lock()
		l.err = err
		l.mu.Unlock()
	}) {
		close(done)
	}
	return done
}
