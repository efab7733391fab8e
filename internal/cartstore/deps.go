package cartstore

import (
	"context"

	"github.com/stacklok/cartsync/internal/cartvalues"
	"github.com/stacklok/cartsync/internal/emitter"
	"github.com/stacklok/cartsync/internal/poller"
	"github.com/stacklok/cartsync/internal/synchronizer"
)

//go:generate mockgen -destination=mocks/mock_deps.go -package=mocks -source=deps.go Poller,Synchronizer

// Poller runs the bound synchronizer's poll function on an interval
type Poller interface {
	Add(owner any, fn poller.PollFunc, opts ...poller.Option) *poller.Registration
	Remove(r *poller.Registration)
}

// Synchronizer keeps one cart key in sync with the server
type Synchronizer interface {
	Key() cartvalues.Key
	LatestValue() cartvalues.Cart
	Snapshot() synchronizer.Snapshot
	Update(fn cartvalues.ChangeFunc)
	Poll(ctx context.Context)
	On(listener emitter.Listener) emitter.Subscription
	Off(sub emitter.Subscription)
	Close()
}
