// Package poller invokes registered poll functions on a fixed interval.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/cartsync/internal/logger"
)

// DefaultInterval is the poll interval used when none is configured.
const DefaultInterval = 30 * time.Second

// PollFunc is invoked on every tick. The context is cancelled when the
// registration is removed or the pool is closed.
type PollFunc func(ctx context.Context)

// Option configures a single registration.
type Option func(*Registration)

// WithInterval overrides the pool interval for one registration.
func WithInterval(interval time.Duration) Option {
	return func(r *Registration) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithLeading controls whether the poll function runs immediately on Add.
func WithLeading(leading bool) Option {
	return func(r *Registration) {
		r.leading = leading
	}
}

// Registration is the handle returned by Add.
type Registration struct {
	id       string
	owner    any
	fn       PollFunc
	interval time.Duration
	leading  bool

	cancel context.CancelFunc
}

// ID returns the registration identifier
func (r *Registration) ID() string {
	return r.id
}

// Owner returns the token passed to Add
func (r *Registration) Owner() any {
	return r.owner
}

// Interval returns the poll interval of the registration
func (r *Registration) Interval() time.Duration {
	return r.interval
}

// Pool runs poll functions until they are removed. Each registration runs on
// its own goroutine, so a slow poll never delays another registration, and a
// registration never overlaps with itself.
type Pool struct {
	interval time.Duration

	mu            sync.Mutex
	registrations map[string]*Registration
	closed        bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a pool with the default interval for its registrations.
// A non-positive interval selects DefaultInterval.
func New(interval time.Duration) *Pool {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		interval:      interval,
		registrations: make(map[string]*Registration),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Add schedules fn on behalf of owner. Registrations run immediately by
// default; pass WithLeading(false) to wait for the first tick. Add on a closed
// pool returns a registration that never runs.
func (p *Pool) Add(owner any, fn PollFunc, opts ...Option) *Registration {
	r := &Registration{
		id:       uuid.NewString(),
		owner:    owner,
		fn:       fn,
		interval: p.interval,
		leading:  true,
	}
	for _, opt := range opts {
		opt(r)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		r.cancel = func() {}
		return r
	}

	ctx, cancel := context.WithCancel(p.ctx)
	r.cancel = cancel
	p.registrations[r.id] = r

	p.wg.Add(1)
	go p.run(ctx, r)

	logger.Debugf("Poller: added %s (interval %s)", r.id, r.interval)
	return r
}

// Remove stops a registration. It does not wait for an in-flight poll to
// return; that poll sees its context cancelled. Removing twice is a no-op.
func (p *Pool) Remove(r *Registration) {
	if r == nil {
		return
	}

	p.mu.Lock()
	_, ok := p.registrations[r.id]
	delete(p.registrations, r.id)
	p.mu.Unlock()

	if ok {
		r.cancel()
		logger.Debugf("Poller: removed %s", r.id)
	}
}

// Len returns the number of active registrations.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.registrations)
}

// Close stops every registration and waits for their goroutines to exit.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.registrations = make(map[string]*Registration)
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, r *Registration) {
	defer p.wg.Done()

	if r.leading {
		r.fn(ctx)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			r.fn(ctx)
		}
	}
}
