// Package mainthread queues callbacks from worker goroutines for execution
// on the goroutine that owns the GL context.
package mainthread

import "sync"

// Queue is safe for concurrent Post; Drain must only be called from the
// owning goroutine.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	ready   chan struct{}

	// Wake, when set, is called after every Post. Use it to interrupt a
	// blocking event wait.
	Wake func()
}

func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Post schedules fn to run on the next Drain.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	if q.Wake != nil {
		q.Wake()
	}
}

// Drain runs every queued callback in post order and returns how many ran.
// Callbacks posted while draining run on the next call.
func (q *Queue) Drain() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Len reports the number of queued callbacks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Ready receives a value after a Post; it may fire once for several posts.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}
