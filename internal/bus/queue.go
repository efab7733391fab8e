package bus

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrQueueFull is returned when an action cannot be queued without blocking
	ErrQueueFull = errors.New("action queue is full")

	// ErrQueueClosed is returned when an action is queued after Close
	ErrQueueClosed = errors.New("action queue is closed")
)

// Queue buffers actions for a Dispatcher's Run loop. Its Dispatch method
// returns as soon as the action is queued, so callers never wait on handlers.
type Queue[A any] struct {
	mu     sync.RWMutex
	ch     chan A
	closed bool
}

// NewQueue creates a queue holding up to size actions. A non-positive size
// selects a queue of one.
func NewQueue[A any](size int) *Queue[A] {
	if size <= 0 {
		size = 1
	}
	return &Queue[A]{ch: make(chan A, size)}
}

// Dispatch queues action. It never blocks.
func (q *Queue[A]) Dispatch(ctx context.Context, action A) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.ch <- action:
		return nil
	default:
		return ErrQueueFull
	}
}

// Actions returns the channel to hand to Dispatcher.Run
func (q *Queue[A]) Actions() <-chan A {
	return q.ch
}

// Len returns the number of queued actions
func (q *Queue[A]) Len() int {
	return len(q.ch)
}

// Close stops accepting actions. Actions already queued stay readable, after
// which the channel reports closed. Close is idempotent.
func (q *Queue[A]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}
