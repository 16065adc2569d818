package scm

import "sync"

// Queue is a fixed-capacity, blocking FIFO safe for concurrent producers
// and consumers. It carries Tasks in both directions of the loader
// pipeline: requests from the cache to the workers and results back.
//
// Ordering is FIFO per queue. With multiple workers feeding one queue
// there is no cross-queue ordering: pages may complete out of request
// order, and the cache tolerates that.
//
// Close wakes every goroutine blocked in Push or Pop so teardown can
// never leave a worker parked on an empty or full queue.
type Queue[T any] struct {
	ch   chan T
	done chan struct{}
	once sync.Once
}

// NewQueue creates a queue with the given capacity. Capacities below 1
// are raised to 1.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{
		ch:   make(chan T, capacity),
		done: make(chan struct{}),
	}
}

// Push blocks until there is room for v, then enqueues it and returns
// true. It returns false without enqueueing once the queue is closed.
func (q *Queue[T]) Push(v T) bool {
	select {
	case <-q.done:
		return false
	default:
	}
	select {
	case q.ch <- v:
		return true
	case <-q.done:
		return false
	}
}

// TryPush enqueues v if there is room, returning false when the queue is
// full or closed. This is the render-thread path: a full request queue
// means "try again next frame", never a stall.
func (q *Queue[T]) TryPush(v T) bool {
	select {
	case <-q.done:
		return false
	default:
	}
	select {
	case q.ch <- v:
		return true
	default:
		return false
	}
}

// Pop blocks until a value is available and returns it with true. It
// returns the zero value and false once the queue is closed; values still
// buffered at close time may or may not be delivered, which is fine for
// teardown since the consumer is going away too.
func (q *Queue[T]) Pop() (T, bool) {
	select {
	case v := <-q.ch:
		return v, true
	case <-q.done:
		var zero T
		return zero, false
	}
}

// TryPop dequeues a value if one is immediately available.
func (q *Queue[T]) TryPop() (T, bool) {
	select {
	case v := <-q.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Close marks the queue closed and wakes all blocked Push and Pop calls.
// Close is idempotent and safe to call concurrently.
func (q *Queue[T]) Close() {
	q.once.Do(func() { close(q.done) })
}

// Len returns the number of buffered values.
func (q *Queue[T]) Len() int { return len(q.ch) }

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int { return cap(q.ch) }
