package engine

import (
	"context"
	"sync"
)

// orderedQueue runs submitted functions one at a time in submission order on
// a single worker. Submission never blocks.
type orderedQueue struct {
	mu        sync.Mutex
	items     []func()
	submitted uint64
	processed uint64
	closed    bool
	wake      chan struct{}
	// progress is closed and replaced whenever processed advances.
	progress chan struct{}
}

func newOrderedQueue() *orderedQueue {
	return &orderedQueue{
		wake:     make(chan struct{}, 1),
		progress: make(chan struct{}),
	}
}

// submit enqueues fn. It reports false once the queue is closed.
func (q *orderedQueue) submit(fn func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, fn)
	q.submitted++
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// close stops accepting work. Items already queued still run.
func (q *orderedQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// run processes items until the queue is closed and drained.
func (q *orderedQueue) run() {
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return
			}
			<-q.wake
			continue
		}
		fn := q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]
		q.mu.Unlock()

		fn()

		q.mu.Lock()
		q.processed++
		close(q.progress)
		q.progress = make(chan struct{})
		q.mu.Unlock()
	}
}

// mark returns the number of items submitted so far.
func (q *orderedQueue) mark() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.submitted
}

// waitFor blocks until at least n items have been processed, the queue is
// closed, or ctx is done.
func (q *orderedQueue) waitFor(ctx context.Context, n uint64) {
	for {
		q.mu.Lock()
		if q.processed >= n || (q.closed && len(q.items) == 0) {
			q.mu.Unlock()
			return
		}
		ch := q.progress
		q.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return
		}
	}
}
