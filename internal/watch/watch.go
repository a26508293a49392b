// Package watch implements live query subscriptions over the store.
// A Watcher re-runs its query on an interval and pushes each snapshot
// to the owning controller; Stop is the unsubscribe handle and must be
// called on teardown to avoid leaked goroutines.
package watch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coinport/backoffice/internal/models"
)

// Snapshot is one delivery of a live query: the decoded records of the
// newest page, the cursor pointing at its last record and the page
// count recomputed from the snapshot size.
type Snapshot[T any] struct {
	Records []T
	Cursor  models.Cursor
	Pages   int
}

// FetchFunc runs the backing query and builds a snapshot
type FetchFunc[T any] func(ctx context.Context) (Snapshot[T], error)

// Watcher is a polling live query with an explicit lifecycle. Snapshots
// are delivered in order on a single goroutine. On a fetch error the
// error callback fires once and the watcher stops; it is not retried
// automatically, retry policy belongs to the owner.
type Watcher[T any] struct {
	fetch      FetchFunc[T]
	onSnapshot func(Snapshot[T])
	onError    func(error)
	interval   time.Duration

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// New creates a watcher delivering snapshots every interval
func New[T any](fetch FetchFunc[T], onSnapshot func(Snapshot[T]), onError func(error), interval time.Duration) *Watcher[T] {
	return &Watcher[T]{
		fetch:      fetch,
		onSnapshot: onSnapshot,
		onError:    onError,
		interval:   interval,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start begins delivering snapshots. The first snapshot is fetched
// immediately, not after the first tick. Calling Start again does
// nothing.
func (w *Watcher[T]) Start(ctx context.Context) {
	if w.started.CompareAndSwap(false, true) {
		go w.run(ctx)
	}
}

// Stop cancels the subscription. It is safe to call more than once, or
// without a prior Start, and returns after the delivery goroutine has
// exited.
func (w *Watcher[T]) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
	if w.started.Load() {
		<-w.done
	}
}

func (w *Watcher[T]) run(ctx context.Context) {
	defer close(w.done)

	if !w.deliver(ctx) {
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			if !w.deliver(ctx) {
				return
			}
		}
	}
}

func (w *Watcher[T]) deliver(ctx context.Context) bool {
	snap, err := w.fetch(ctx)
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return false
	}

	w.onSnapshot(snap)
	return true
}
