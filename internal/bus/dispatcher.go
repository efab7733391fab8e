// Package bus delivers typed actions to registered handlers, one action at a
// time and in registration order.
package bus

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrReentrantDispatch is returned when a handler dispatches while it is
// handling an action.
var ErrReentrantDispatch = errors.New("cannot dispatch in the middle of a dispatch")

// Token identifies a registered handler.
type Token uint64

// Handler processes a single action. The context carries the dispatch marker
// used to detect re-entrant dispatch and must be passed to any nested call.
type Handler[A any] func(ctx context.Context, action A)

type dispatchingKey struct{}

type registration[A any] struct {
	token   Token
	handler Handler[A]
}

// Dispatcher serializes actions to its handlers. It is safe for concurrent
// use; concurrent Dispatch calls are queued behind the one in progress.
type Dispatcher[A any] struct {
	serial sync.Mutex

	mu       sync.Mutex
	next     Token
	handlers []registration[A]
}

// New creates an empty dispatcher.
func New[A any]() *Dispatcher[A] {
	return &Dispatcher[A]{}
}

// Register adds a handler and returns its token.
func (d *Dispatcher[A]) Register(handler Handler[A]) Token {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.next++
	d.handlers = append(d.handlers, registration[A]{token: d.next, handler: handler})
	return d.next
}

// Unregister removes a handler. Unknown tokens are ignored.
func (d *Dispatcher[A]) Unregister(token Token) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers = slices.DeleteFunc(d.handlers, func(r registration[A]) bool {
		return r.token == token
	})
}

// Dispatch delivers action to every handler and returns once all of them
// have run.
func (d *Dispatcher[A]) Dispatch(ctx context.Context, action A) error {
	if ctx.Value(dispatchingKey{}) != nil {
		return ErrReentrantDispatch
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.serial.Lock()
	defer d.serial.Unlock()

	d.mu.Lock()
	handlers := slices.Clone(d.handlers)
	d.mu.Unlock()

	hctx := context.WithValue(ctx, dispatchingKey{}, true)
	for _, r := range handlers {
		r.handler(hctx, action)
	}
	return nil
}

// Run dispatches every action received on actions until the channel is
// closed or ctx is cancelled.
func (d *Dispatcher[A]) Run(ctx context.Context, actions <-chan A) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case action, ok := <-actions:
			if !ok {
				return nil
			}
			if err := d.Dispatch(ctx, action); err != nil {
				return err
			}
		}
	}
}
