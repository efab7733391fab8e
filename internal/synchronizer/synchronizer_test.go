package synchronizer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/cartsync/internal/cartapi"
	"github.com/stacklok/cartsync/internal/cartapi/mocks"
	"github.com/stacklok/cartsync/internal/cartvalues"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// manualRunner queues pushes so tests decide when they complete.
type manualRunner struct {
	tasks []func()
}

func (r *manualRunner) run(task func()) {
	r.tasks = append(r.tasks, task)
}

func (r *manualRunner) drain() {
	for len(r.tasks) > 0 {
		task := r.tasks[0]
		r.tasks = r.tasks[1:]
		task()
	}
}

var (
	bundle = cartvalues.CartItem{ProductSlug: "personal-bundle", Cost: 48, Volume: 1}
	domain = cartvalues.CartItem{ProductSlug: "dotcom_domain", Meta: "example.com", Cost: 18, Volume: 1}
	email  = cartvalues.CartItem{ProductSlug: "gapps", Meta: "example.com", Cost: 72, Volume: 1}
)

func cartWith(key cartvalues.Key, items ...cartvalues.CartItem) cartvalues.Cart {
	c := cartvalues.Empty(key)
	c.Products = append(c.Products, items...)
	return c
}

func echo(_ context.Context, _ cartvalues.Key, c cartvalues.Cart) (cartvalues.Cart, error) {
	return c, nil
}

func countChanges(s *Synchronizer) *atomic.Int32 {
	var n atomic.Int32
	s.On(func() { n.Add(1) })
	return &n
}

func newTestSynchronizer(t *testing.T) (*Synchronizer, *mocks.MockClient, *manualRunner) {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	runner := &manualRunner{}
	s := New("1234", client, WithRunner(runner.run))
	t.Cleanup(s.Close)
	return s, client, runner
}

func TestNew(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSynchronizer(t)
	assert.Equal(t, cartvalues.Key("1234"), s.Key())
	assert.Equal(t, cartvalues.Empty("1234"), s.LatestValue())
	assert.False(t, s.HasLoadedFromServer())
	assert.False(t, s.HasPendingServerUpdates())
}

func TestUpdate_BeforeLoadIsOptimisticOnly(t *testing.T) {
	t.Parallel()

	s, _, runner := newTestSynchronizer(t)
	changes := countChanges(s)

	s.Update(cartvalues.Add(bundle))
	s.Update(cartvalues.Add(domain))
	s.Update(cartvalues.ApplyCoupon("SAVE10"))

	latest := s.LatestValue()
	require.Len(t, latest.Products, 2)
	assert.Equal(t, "personal-bundle", latest.Products[0].ProductSlug)
	assert.Equal(t, "dotcom_domain", latest.Products[1].ProductSlug)
	assert.Equal(t, "SAVE10", latest.Coupon)
	assert.True(t, s.HasPendingServerUpdates())
	assert.False(t, s.HasLoadedFromServer())
	assert.Equal(t, int32(3), changes.Load())
	assert.Empty(t, runner.tasks, "nothing is pushed before the first fetch")
}

func TestUpdate_NoChangeStillQueues(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSynchronizer(t)
	s.Update(cartvalues.Add(bundle))
	changes := countChanges(s)

	s.Update(cartvalues.Add(bundle))

	assert.Equal(t, int32(0), changes.Load(), "identical value and flags do not notify")
	assert.True(t, s.HasPendingServerUpdates())
}

func TestPoll_LoadsServerCart(t *testing.T) {
	t.Parallel()

	s, client, runner := newTestSynchronizer(t)
	changes := countChanges(s)

	server := cartWith("1234", bundle)
	client.EXPECT().Get(gomock.Any(), cartvalues.Key("1234")).Return(server, nil).Times(2)

	s.Poll(context.Background())
	assert.True(t, s.HasLoadedFromServer())
	assert.False(t, s.HasPendingServerUpdates())
	assert.True(t, server.Equal(s.LatestValue()))
	assert.Equal(t, int32(1), changes.Load())
	assert.Empty(t, runner.tasks)

	s.Poll(context.Background())
	assert.Equal(t, int32(1), changes.Load(), "unchanged snapshot does not notify")
}

func TestPoll_FailureLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	s, client, _ := newTestSynchronizer(t)
	s.Update(cartvalues.Add(bundle))
	changes := countChanges(s)

	gomock.InOrder(
		client.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cartvalues.Cart{}, errors.New("connection refused")),
		client.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cartvalues.Cart{}, &cartapi.HTTPError{StatusCode: 503}),
	)

	s.Poll(context.Background())
	s.Poll(context.Background())

	assert.False(t, s.HasLoadedFromServer())
	assert.True(t, s.HasPendingServerUpdates())
	assert.Len(t, s.LatestValue().Products, 1)
	assert.Equal(t, int32(0), changes.Load())
}

func TestPoll_EchoedChangeConfirmedAfterPush(t *testing.T) {
	t.Parallel()

	s, client, runner := newTestSynchronizer(t)
	s.Update(cartvalues.Add(bundle))
	require.True(t, s.HasPendingServerUpdates())

	client.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cartWith("1234", bundle), nil)
	client.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(echo)

	s.Poll(context.Background())
	assert.True(t, s.HasLoadedFromServer())
	assert.True(t, s.HasPendingServerUpdates(), "pending until the push is acknowledged")
	require.Len(t, runner.tasks, 1)

	runner.drain()
	assert.False(t, s.HasPendingServerUpdates())
	assert.True(t, s.HasLoadedFromServer())
	assert.Len(t, s.LatestValue().Products, 1)
}

func TestSnapshot_MatchesFlagsAcrossStates(t *testing.T) {
	t.Parallel()

	s, client, runner := newTestSynchronizer(t)
	assert.Equal(t, Snapshot{Cart: cartvalues.Empty("1234")}, s.Snapshot())

	s.Update(cartvalues.Add(bundle))
	snap := s.Snapshot()
	assert.False(t, snap.HasLoadedFromServer)
	assert.True(t, snap.HasPendingServerUpdates)
	assert.True(t, snap.Cart.Equal(s.LatestValue()))

	client.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cartvalues.Empty("1234"), nil)
	client.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(echo)
	s.Poll(context.Background())
	runner.drain()

	snap = s.Snapshot()
	assert.True(t, snap.HasLoadedFromServer)
	assert.False(t, snap.HasPendingServerUpdates)
	require.Len(t, snap.Cart.Products, 1)

	// the snapshot is a copy
	snap.Cart.Products[0].ProductSlug = "changed"
	assert.Equal(t, "personal-bundle", s.LatestValue().Products[0].ProductSlug)
}

func TestPoll_ReappliesPendingChangesOverServerCart(t *testing.T) {
	t.Parallel()

	s, client, runner := newTestSynchronizer(t)
	s.Update(cartvalues.Add(domain))

	client.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cartWith("1234", bundle), nil)
	client.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ cartvalues.Key, c cartvalues.Cart) (cartvalues.Cart, error) {
			require.Len(t, c.Products, 2)
			assert.Equal(t, "personal-bundle", c.Products[0].ProductSlug)
			assert.Equal(t, "dotcom_domain", c.Products[1].ProductSlug)
			return c, nil
		})

	s.Poll(context.Background())
	assert.Len(t, s.LatestValue().Products, 2)
	runner.drain()
	assert.False(t, s.HasPendingServerUpdates())
}

func TestUpdate_AfterLoadPushesImmediately(t *testing.T) {
	t.Parallel()

	s, client, runner := newTestSynchronizer(t)

	client.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cartvalues.Empty("1234"), nil)
	s.Poll(context.Background())

	s.Update(cartvalues.Add(bundle))
	require.Len(t, runner.tasks, 1)

	client.EXPECT().Set(gomock.Any(), cartvalues.Key("1234"), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ cartvalues.Key, c cartvalues.Cart) (cartvalues.Cart, error) {
			c.TotalCost = c.Subtotal()
			return c, nil
		})
	runner.drain()

	assert.False(t, s.HasPendingServerUpdates())
	assert.Equal(t, 48.0, s.LatestValue().TotalCost, "server response replaces the optimistic value")
}

func TestUpdate_CollapsesWhileInFlight(t *testing.T) {
	t.Parallel()

	s, client, runner := newTestSynchronizer(t)
	client.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cartvalues.Empty("1234"), nil)
	s.Poll(context.Background())

	s.Update(cartvalues.Add(bundle))
	s.Update(cartvalues.Add(domain))
	require.Len(t, runner.tasks, 1, "only one request in flight")

	var pushed []cartvalues.Cart
	first := true
	client.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ cartvalues.Key, c cartvalues.Cart) (cartvalues.Cart, error) {
			pushed = append(pushed, c)
			if first {
				first = false
				// arrives while the request is on the wire
				s.Update(cartvalues.Add(email))
				s.Update(cartvalues.ApplyCoupon("SAVE10"))
			}
			return c, nil
		}).Times(2)

	runner.drain()

	require.Len(t, pushed, 2)
	assert.Len(t, pushed[0].Products, 2)
	assert.Len(t, pushed[1].Products, 3)
	assert.Equal(t, "SAVE10", pushed[1].Coupon)
	assert.False(t, s.HasPendingServerUpdates())
	assert.Len(t, s.LatestValue().Products, 3)
}

func TestPush_ChangesDuringFlightSurviveResponse(t *testing.T) {
	t.Parallel()

	s, client, runner := newTestSynchronizer(t)
	client.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cartvalues.Empty("1234"), nil)
	s.Poll(context.Background())

	s.Update(cartvalues.Add(bundle))
	require.Len(t, runner.tasks, 1)
	task := runner.tasks[0]
	runner.tasks = nil

	client.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ cartvalues.Key, c cartvalues.Cart) (cartvalues.Cart, error) {
			s.Update(cartvalues.Add(domain))
			return c, nil
		})
	task()

	latest := s.LatestValue()
	assert.Len(t, latest.Products, 2, "queued change is re-applied over the response")
	assert.True(t, s.HasPendingServerUpdates())
	assert.Len(t, runner.tasks, 1, "follow-up push scheduled")
}

func TestPush_FailureRetriedByNextPoll(t *testing.T) {
	t.Parallel()

	s, client, runner := newTestSynchronizer(t)
	client.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cartvalues.Empty("1234"), nil)
	s.Poll(context.Background())

	s.Update(cartvalues.Add(bundle))
	client.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).Return(cartvalues.Cart{}, errors.New("timeout"))
	runner.drain()

	assert.True(t, s.HasPendingServerUpdates())
	assert.Len(t, s.LatestValue().Products, 1)

	client.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cartvalues.Empty("1234"), nil)
	client.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(echo)
	s.Poll(context.Background())
	runner.drain()

	assert.False(t, s.HasPendingServerUpdates())
	assert.Len(t, s.LatestValue().Products, 1)
}

func TestPoll_SkippedWhileInFlight(t *testing.T) {
	t.Parallel()

	s, client, runner := newTestSynchronizer(t)
	client.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cartvalues.Empty("1234"), nil).Times(1)
	s.Poll(context.Background())

	s.Update(cartvalues.Add(bundle))
	require.Len(t, runner.tasks, 1)

	// push still queued, so this poll must not hit the server
	s.Poll(context.Background())

	client.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(echo)
	runner.drain()
}

func TestClose_IgnoresLateResponses(t *testing.T) {
	t.Parallel()

	s, client, _ := newTestSynchronizer(t)
	changes := countChanges(s)

	client.EXPECT().Get(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, key cartvalues.Key) (cartvalues.Cart, error) {
			s.Close()
			return cartWith(key, bundle), nil
		})

	s.Poll(context.Background())

	assert.False(t, s.HasLoadedFromServer())
	assert.Empty(t, s.LatestValue().Products)
	assert.Equal(t, int32(0), changes.Load())

	s.Update(cartvalues.Add(bundle))
	s.Poll(context.Background())
	assert.Empty(t, s.LatestValue().Products)
}

func TestClose_CancelsInFlightPush(t *testing.T) {
	t.Parallel()

	s, client, runner := newTestSynchronizer(t)
	client.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cartvalues.Empty("1234"), nil)
	s.Poll(context.Background())
	s.Update(cartvalues.Add(bundle))

	client.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ cartvalues.Key, _ cartvalues.Cart) (cartvalues.Cart, error) {
			s.Close()
			<-ctx.Done()
			return cartvalues.Cart{}, ctx.Err()
		})
	runner.drain()

	assert.True(t, s.HasPendingServerUpdates())
}

func TestSynchronizer_WithGoRunner(t *testing.T) {
	t.Parallel()

	server := cartapi.NewMemoryClient()
	s := New("42", server)
	defer s.Close()

	s.Poll(context.Background())
	require.True(t, s.HasLoadedFromServer())

	s.Update(cartvalues.Add(bundle))
	s.Update(cartvalues.Add(domain))

	require.Eventually(t, func() bool {
		return !s.HasPendingServerUpdates()
	}, time.Second, 5*time.Millisecond)

	stored, err := server.Get(context.Background(), "42")
	require.NoError(t, err)
	assert.Len(t, stored.Products, 2)
	assert.Equal(t, 66.0, stored.TotalCost)
	assert.True(t, stored.Equal(s.LatestValue()))
}
