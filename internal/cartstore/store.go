// Package cartstore is the facade over the active shopping cart.
//
// The store binds exactly one synchronizer to the cart key derived from the
// selected site. Rebinding tears down the previous synchronizer (poller
// registration, change subscription, in-flight requests) before the next one
// is created. Reads are always served from the bound synchronizer; writes are
// normalized against the product catalog before they are queued.
package cartstore

import (
	"context"
	"errors"
	"sync"

	"github.com/stacklok/cartsync/internal/bus"
	"github.com/stacklok/cartsync/internal/cartapi"
	"github.com/stacklok/cartsync/internal/cartvalues"
	"github.com/stacklok/cartsync/internal/emitter"
	"github.com/stacklok/cartsync/internal/logger"
	"github.com/stacklok/cartsync/internal/poller"
	"github.com/stacklok/cartsync/internal/sites"
	"github.com/stacklok/cartsync/internal/synchronizer"
	"github.com/stacklok/cartsync/internal/telemetry"
	"github.com/stacklok/cartsync/internal/upgrades"
)

var (
	// ErrNoCartBound is returned by Update when no synchronizer is bound,
	// either before the first bind or after Disable.
	ErrNoCartBound = errors.New("no cart is bound")

	// ErrAlreadyStarted is returned when Start is called twice
	ErrAlreadyStarted = errors.New("cart store already started")

	// ErrStopped is returned when Start is called after Stop
	ErrStopped = errors.New("cart store is stopped")
)

// SiteContext exposes the selected site and notifies on selection changes
type SiteContext interface {
	SelectedSite() *sites.Site
	Fetched() bool
	On(listener emitter.Listener) emitter.Subscription
	Off(sub emitter.Subscription)
}

// Catalog provides products keyed by slug
type Catalog interface {
	Get() map[string]cartvalues.Product
}

// Recorder is told about every local cart transition
type Recorder interface {
	RecordEvents(ctx context.Context, prev, next cartvalues.Cart)
}

// SynchronizerFactory creates the synchronizer for a cart key
type SynchronizerFactory func(key cartvalues.Key) Synchronizer

// Value is the cart as seen by consumers
type Value struct {
	cartvalues.Cart
	HasLoadedFromServer     bool `json:"hasLoadedFromServer"`
	HasPendingServerUpdates bool `json:"hasPendingServerUpdates"`
}

// Deps are the collaborators of a Store. Sites and Poller are required; Client
// is required unless a SynchronizerFactory option is given.
type Deps struct {
	Sites    SiteContext
	Poller   Poller
	Client   cartapi.Client
	Catalog  Catalog
	Recorder Recorder
	Bus      *bus.Dispatcher[upgrades.Action]
}

// Option configures a Store
type Option func(*Store)

// WithSynchronizerFactory replaces how synchronizers are created
func WithSynchronizerFactory(factory SynchronizerFactory) Option {
	return func(s *Store) {
		s.newSync = factory
	}
}

// WithSyncOptions sets options passed to synchronizers built by the default factory
func WithSyncOptions(opts ...synchronizer.Option) Option {
	return func(s *Store) {
		s.syncOpts = append(s.syncOpts, opts...)
	}
}

// WithCartMetrics sets the cart metrics instance
func WithCartMetrics(metrics *telemetry.CartMetrics) Option {
	return func(s *Store) {
		s.metrics = metrics
	}
}

// binding is the synchronizer currently serving the store
type binding struct {
	sync         Synchronizer
	registration *poller.Registration
	subscription emitter.Subscription
}

// Store is the cart facade. Create it with New and call Start to bind it to
// the site context.
type Store struct {
	emitter.Emitter

	sites    SiteContext
	poller   Poller
	client   cartapi.Client
	catalog  Catalog
	recorder Recorder
	bus      *bus.Dispatcher[upgrades.Action]
	metrics  *telemetry.CartMetrics
	newSync  SynchronizerFactory
	syncOpts []synchronizer.Option

	mu       sync.Mutex
	ctx      context.Context
	key      cartvalues.Key
	bound    *binding
	siteSub  emitter.Subscription
	busToken bus.Token
	started  bool
	stopped  bool
}

// New creates an unbound store
func New(deps Deps, opts ...Option) *Store {
	s := &Store{
		sites:    deps.Sites,
		poller:   deps.Poller,
		client:   deps.Client,
		catalog:  deps.Catalog,
		recorder: deps.Recorder,
		bus:      deps.Bus,
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newSync == nil {
		s.newSync = s.defaultSynchronizer
	}
	return s
}

func (s *Store) defaultSynchronizer(key cartvalues.Key) Synchronizer {
	return synchronizer.New(key, s.client, s.syncOpts...)
}

// Start registers the store on the action bus and follows site selection
// changes. If the site list is already fetched the cart is bound immediately.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.ctx = ctx
	if s.bus != nil {
		s.busToken = s.bus.Register(s.HandleAction)
	}
	s.siteSub = s.sites.On(s.SetSelectedSite)
	s.mu.Unlock()

	if s.sites.Fetched() {
		s.SetSelectedSite()
	}
	return nil
}

// Stop detaches the store from the bus and the site context and tears down
// the bound synchronizer, including one bound before Start. A stopped store
// cannot be restarted.
func (s *Store) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.started {
		if s.bus != nil {
			s.bus.Unregister(s.busToken)
		}
		s.sites.Off(s.siteSub)
	}
	changed := s.teardownLocked()
	s.key = ""
	s.mu.Unlock()

	if changed {
		s.Emit()
	}
}

// Key returns the bound cart key, or "" when nothing is bound
func (s *Store) Key() cartvalues.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// Bound reports whether a synchronizer is bound
func (s *Store) Bound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound != nil
}

// SetSelectedSite binds the store to the cart of the selected site. It is a
// no-op when the resolved key is already bound. The selection is read under
// the store lock, so concurrent calls always leave the latest selection bound.
func (s *Store) SetSelectedSite() {
	s.mu.Lock()
	key := cartvalues.NoSiteKey
	if site := s.sites.SelectedSite(); site != nil {
		key = cartvalues.KeyForSite(site)
	}
	if s.stopped || (s.bound != nil && s.key == key) {
		s.mu.Unlock()
		return
	}

	s.teardownLocked()
	s.bindLocked(key)
	s.mu.Unlock()

	logger.Infof("Cart bound to key %s", key)
	s.Emit()
}

// Disable tears down the bound synchronizer. Get returns the empty cart until
// the next SetSelectedSite.
func (s *Store) Disable() {
	s.mu.Lock()
	changed := s.teardownLocked()
	s.key = ""
	s.mu.Unlock()

	if changed {
		logger.Info("Cart disabled")
		s.Emit()
	}
}

// Get returns the current cart and its sync flags
func (s *Store) Get() Value {
	s.mu.Lock()
	b, key := s.bound, s.key
	s.mu.Unlock()

	if b == nil {
		return Value{Cart: cartvalues.Empty(key)}
	}
	snap := b.sync.Snapshot()
	return Value{
		Cart:                    snap.Cart,
		HasLoadedFromServer:     snap.HasLoadedFromServer,
		HasPendingServerUpdates: snap.HasPendingServerUpdates,
	}
}

// Update applies fn to the cart, then fills in item attributes from the
// catalog, and queues the result for the server.
func (s *Store) Update(fn cartvalues.ChangeFunc) error {
	s.mu.Lock()
	b, ctx := s.bound, s.ctx
	s.mu.Unlock()

	if b == nil {
		return ErrNoCartBound
	}

	wrapped := cartvalues.FlowRight(cartvalues.FillInAllCartItemAttributes(s.products()), fn)
	prev := b.sync.LatestValue()
	b.sync.Update(wrapped)

	if s.recorder != nil {
		s.recorder.RecordEvents(ctx, prev, b.sync.LatestValue())
	}
	return nil
}

func (s *Store) products() map[string]cartvalues.Product {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.Get()
}

// bindLocked must be called with s.mu held and nothing bound.
func (s *Store) bindLocked(key cartvalues.Key) {
	syncer := s.newSync(key)
	ctx := s.ctx
	b := &binding{sync: syncer}
	b.subscription = syncer.On(func() {
		s.metrics.RecordItemsTotal(ctx, key.String(), int64(syncer.LatestValue().ItemCount()))
		s.Emit()
	})
	b.registration = s.poller.Add(s, syncer.Poll)

	s.key = key
	s.bound = b
}

// teardownLocked must be called with s.mu held. It reports whether anything
// was bound.
func (s *Store) teardownLocked() bool {
	b := s.bound
	if b == nil {
		return false
	}
	s.bound = nil

	s.poller.Remove(b.registration)
	b.sync.Off(b.subscription)
	b.sync.Close()
	logger.Debugf("Cart synchronizer for key %s torn down", b.sync.Key())
	return true
}
