// Package synchronizer reconciles one cart key's optimistic local state with
// the remote cart API.
//
// Local changes are applied immediately and queued. At most one request is in
// flight at a time; changes queued while a push is in flight collapse into a
// single follow-up push of the latest value. A failed request leaves the state
// untouched and is retried by the next poll. Every fetched snapshot has the
// unconfirmed changes re-applied on top of it, so a poll never drops a local
// change the server has not acknowledged yet.
package synchronizer

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/cartsync/internal/cartapi"
	"github.com/stacklok/cartsync/internal/cartvalues"
	"github.com/stacklok/cartsync/internal/emitter"
	"github.com/stacklok/cartsync/internal/logger"
	"github.com/stacklok/cartsync/internal/otel"
	"github.com/stacklok/cartsync/internal/telemetry"
)

// Runner starts a background push.
type Runner func(task func())

// GoRunner runs each task on its own goroutine.
func GoRunner(task func()) {
	go task()
}

// Option configures a Synchronizer
type Option func(*Synchronizer)

// WithRunner sets how background pushes are started
func WithRunner(runner Runner) Option {
	return func(s *Synchronizer) {
		if runner != nil {
			s.runner = runner
		}
	}
}

// WithMetrics sets the sync metrics instance
func WithMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(s *Synchronizer) {
		s.metrics = metrics
	}
}

// WithTracer sets the tracer used for fetch and push spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Synchronizer) {
		s.tracer = tracer
	}
}

// Synchronizer owns the local view of one cart.
type Synchronizer struct {
	emitter.Emitter

	key     cartvalues.Key
	client  cartapi.Client
	runner  Runner
	metrics *telemetry.SyncMetrics
	tracer  trace.Tracer

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	latest   cartvalues.Cart
	pending  []cartvalues.ChangeFunc
	inFlight bool
	loaded   bool
	closed   bool
}

// New creates a synchronizer for key. Nothing is fetched until the first Poll.
func New(key cartvalues.Key, client cartapi.Client, opts ...Option) *Synchronizer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Synchronizer{
		key:    key,
		client: client,
		runner: GoRunner,
		ctx:    ctx,
		cancel: cancel,
		latest: cartvalues.Empty(key),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the cart key this synchronizer is bound to
func (s *Synchronizer) Key() cartvalues.Key {
	return s.key
}

// LatestValue returns the best known cart: the last server snapshot with any
// unconfirmed local changes applied.
func (s *Synchronizer) LatestValue() cartvalues.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest.Clone()
}

// Snapshot is a consistent view of the cart and its sync flags
type Snapshot struct {
	Cart                    cartvalues.Cart
	HasLoadedFromServer     bool
	HasPendingServerUpdates bool
}

// Snapshot returns the latest value and both flags read under one lock
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Cart:                    s.latest.Clone(),
		HasLoadedFromServer:     s.loaded,
		HasPendingServerUpdates: len(s.pending) > 0,
	}
}

// HasLoadedFromServer reports whether a server fetch or push has succeeded
func (s *Synchronizer) HasLoadedFromServer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// HasPendingServerUpdates reports whether local changes await confirmation
func (s *Synchronizer) HasPendingServerUpdates() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

// Update applies fn to the latest value and queues it for the server. It
// never blocks on the network.
func (s *Synchronizer) Update(fn cartvalues.ChangeFunc) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	before := s.stateLocked()
	s.latest = fn(s.latest)
	s.pending = append(s.pending, fn)

	push := s.loaded && !s.inFlight
	if push {
		s.inFlight = true
	}
	changed := !before.equal(s.stateLocked())
	s.mu.Unlock()

	if changed {
		s.Emit()
	}
	if push {
		s.runner(s.push)
	}
}

// Poll fetches the server cart unless a request is already in flight. It is
// the function handed to the poller.
func (s *Synchronizer) Poll(ctx context.Context) {
	s.mu.Lock()
	if s.closed || s.inFlight {
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	s.mu.Unlock()

	ctx, span := otel.StartSpan(ctx, s.tracer, "synchronizer.fetch",
		trace.WithAttributes(otel.AttrCartKey.String(s.key.String())),
	)
	start := time.Now()
	fetched, err := s.client.Get(ctx, s.key)
	s.metrics.RecordSyncDuration(ctx, s.key.String(), telemetry.OperationFetch, time.Since(start), err == nil)
	otel.RecordError(span, err)
	span.End()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	before := s.stateLocked()
	push := false
	if err != nil {
		s.inFlight = false
		logger.Warnf("Failed to fetch cart %s, will retry on next poll: %v", s.key, err)
	} else {
		s.loaded = true
		s.latest = cartvalues.Flow(s.pending...)(fetched)
		push = len(s.pending) > 0
		s.inFlight = push
	}
	changed := !before.equal(s.stateLocked())
	s.mu.Unlock()

	if changed {
		s.Emit()
	}
	if push {
		s.runner(s.push)
	}
}

// push sends the latest value. The caller has already marked the request in
// flight.
func (s *Synchronizer) push() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	cart := s.latest.Clone()
	sent := len(s.pending)
	s.mu.Unlock()

	ctx, span := otel.StartSpan(s.ctx, s.tracer, "synchronizer.push",
		trace.WithAttributes(
			otel.AttrCartKey.String(s.key.String()),
			otel.AttrItemCount.Int(cart.ItemCount()),
			otel.AttrPendingCount.Int(sent),
		),
	)
	start := time.Now()
	stored, err := s.client.Set(ctx, s.key, cart)
	s.metrics.RecordSyncDuration(ctx, s.key.String(), telemetry.OperationPush, time.Since(start), err == nil)
	otel.RecordError(span, err)
	span.End()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	before := s.stateLocked()
	again := false
	if err != nil {
		s.inFlight = false
		logger.Warnf("Failed to push cart %s, will retry on next poll: %v", s.key, err)
	} else {
		s.pending = slices.Clone(s.pending[sent:])
		s.latest = cartvalues.Flow(s.pending...)(stored)
		s.loaded = true
		again = len(s.pending) > 0
		s.inFlight = again
		logger.Debugf("Pushed cart %s (%d changes confirmed, %d queued)", s.key, sent, len(s.pending))
	}
	changed := !before.equal(s.stateLocked())
	s.mu.Unlock()

	if changed {
		s.Emit()
	}
	if again {
		s.runner(s.push)
	}
}

// Close stops the synchronizer. Requests still in flight are cancelled and
// their responses discarded. Close is idempotent.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

type state struct {
	cart    cartvalues.Cart
	loaded  bool
	pending bool
}

func (s *Synchronizer) stateLocked() state {
	return state{cart: s.latest, loaded: s.loaded, pending: len(s.pending) > 0}
}

func (a state) equal(b state) bool {
	return a.loaded == b.loaded && a.pending == b.pending && a.cart.Equal(b.cart)
}
