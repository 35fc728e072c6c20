// Package queue provides the bounded blocking queue used to hand records from
// partition readers to the load control loop.
package queue

import (
	"sync"
	"sync/atomic"
	"time"
)

// Timed is a capacity-bounded, multi-producer/single-consumer queue.
//
// Producers block in Put while the queue is full; the consumer blocks in Get
// while it is empty. Shutdown is idempotent, wakes every blocked caller, fails
// all later Puts and lets Get drain whatever is already buffered before it
// reports closed. The cumulative time spent blocked on either side is tracked
// for observability.
type Timed[T any] struct {
	ch   chan T
	stop chan struct{}
	once sync.Once

	putWaitNanos atomic.Int64
	getWaitNanos atomic.Int64
}

// New creates a queue holding at most capacity items. A capacity below one is
// treated as one.
func New[T any](capacity int) *Timed[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Timed[T]{
		ch:   make(chan T, capacity),
		stop: make(chan struct{}),
	}
}

// Put appends item, blocking while the queue is at capacity. It returns false
// once the queue has been shut down.
func (q *Timed[T]) Put(item T) bool {
	select {
	case <-q.stop:
		return false
	default:
	}

	select {
	case q.ch <- item:
		return true
	default:
	}

	start := time.Now()
	defer func() {
		q.putWaitNanos.Add(time.Since(start).Nanoseconds())
	}()

	select {
	case q.ch <- item:
		return true
	case <-q.stop:
		return false
	}
}

// Get removes the oldest item, blocking while the queue is open but empty.
// It returns false only once the queue has been shut down and fully drained,
// so a false return means no further items will ever arrive.
func (q *Timed[T]) Get() (T, bool) {
	select {
	case item := <-q.ch:
		return item, true
	default:
	}

	start := time.Now()
	defer func() {
		q.getWaitNanos.Add(time.Since(start).Nanoseconds())
	}()

	select {
	case item := <-q.ch:
		return item, true
	case <-q.stop:
		// Shut down, but a producer may have raced an item in before the
		// stop channel closed.
		select {
		case item := <-q.ch:
			return item, true
		default:
			var zero T
			return zero, false
		}
	}
}

// Shutdown closes the queue. Safe to call multiple times and from any
// goroutine; all blocked producers and the consumer are woken.
func (q *Timed[T]) Shutdown() {
	q.once.Do(func() {
		close(q.stop)
	})
}

// Len reports the number of buffered items.
func (q *Timed[T]) Len() int {
	return len(q.ch)
}

// Cap reports the configured capacity.
func (q *Timed[T]) Cap() int {
	return cap(q.ch)
}

// TotalPutWait is the cumulative time producers spent blocked in Put.
func (q *Timed[T]) TotalPutWait() time.Duration {
	return time.Duration(q.putWaitNanos.Load())
}

// TotalGetWait is the cumulative time the consumer spent blocked in Get.
func (q *Timed[T]) TotalGetWait() time.Duration {
	return time.Duration(q.getWaitNanos.Load())
}
