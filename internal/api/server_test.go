package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/cartsync/internal/api"
	"github.com/stacklok/cartsync/internal/api/mocks"
	"github.com/stacklok/cartsync/internal/cartstore"
	"github.com/stacklok/cartsync/internal/cartvalues"
	"github.com/stacklok/cartsync/internal/emitter"
	"github.com/stacklok/cartsync/internal/sites"
	"github.com/stacklok/cartsync/internal/upgrades"
)

type serverMocks struct {
	cart       *mocks.MockCart
	dispatcher *mocks.MockDispatcher
	sites      *mocks.MockSiteSelector
}

func newTestServer(t *testing.T, opts ...api.ServerOption) (http.Handler, serverMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := serverMocks{
		cart:       mocks.NewMockCart(ctrl),
		dispatcher: mocks.NewMockDispatcher(ctrl),
		sites:      mocks.NewMockSiteSelector(ctrl),
	}
	return api.NewServer(m.cart, m.dispatcher, m.sites, opts...), m
}

func boundValue() cartstore.Value {
	return cartstore.Value{
		Cart: cartvalues.Cart{
			CartKey:  "1234",
			Products: []cartvalues.CartItem{{ProductSlug: "personal-bundle", ProductID: 1009}},
		},
		HasLoadedFromServer: true,
	}
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	server, _ := newTestServer(t)

	rr := serve(server, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"healthy"}`, rr.Body.String())
}

func TestReadinessEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		setupMock      func(*mocks.MockCart)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "cart bound",
			setupMock: func(m *mocks.MockCart) {
				m.EXPECT().Bound().Return(true)
				m.EXPECT().Get().Return(boundValue())
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"ready","cartKey":"1234"}`,
		},
		{
			name: "no cart bound",
			setupMock: func(m *mocks.MockCart) {
				m.EXPECT().Bound().Return(false)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"error":"cart store not ready: no cart is bound"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server, m := newTestServer(t)
			tt.setupMock(m.cart)

			rr := serve(server, http.MethodGet, "/readiness", "")

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.JSONEq(t, tt.expectedBody, rr.Body.String())
		})
	}
}

func TestVersionEndpoint(t *testing.T) {
	t.Parallel()
	server, _ := newTestServer(t)

	rr := serve(server, http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	for _, key := range []string{"version", "commit", "build_date", "go_version", "platform"} {
		assert.Contains(t, response, key)
	}
}

func TestGetCart(t *testing.T) {
	t.Parallel()
	server, m := newTestServer(t)
	m.cart.EXPECT().Get().Return(boundValue())

	rr := serve(server, http.MethodGet, "/v1/cart", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "1234", body["cart_key"])
	assert.Equal(t, true, body["hasLoadedFromServer"])
	assert.Equal(t, false, body["hasPendingServerUpdates"])
	assert.Len(t, body["products"], 1)
}

func TestPostAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		setupMocks     func(serverMocks)
		expectedStatus int
		errorContains  string
	}{
		{
			name: "add items",
			body: `{"type":"CART_ITEMS_ADD","cartItems":[{"product_slug":"personal-bundle"}]}`,
			setupMocks: func(m serverMocks) {
				m.cart.EXPECT().Bound().Return(true)
				m.dispatcher.EXPECT().Dispatch(gomock.Any(), upgrades.AddItems(
					cartvalues.CartItem{ProductSlug: "personal-bundle"},
				)).Return(nil)
			},
			expectedStatus: http.StatusAccepted,
		},
		{
			name: "remove plan item",
			body: `{"type":"CART_ITEM_REMOVE","cartItem":{"product_slug":"personal-bundle"},"domainsWithPlansOnly":true}`,
			setupMocks: func(m serverMocks) {
				m.cart.EXPECT().Bound().Return(true)
				m.dispatcher.EXPECT().Dispatch(gomock.Any(), upgrades.RemoveItem(
					cartvalues.CartItem{ProductSlug: "personal-bundle"}, true,
				)).Return(nil)
			},
			expectedStatus: http.StatusAccepted,
		},
		{
			name: "disable without a bound cart",
			body: `{"type":"CART_DISABLE"}`,
			setupMocks: func(m serverMocks) {
				m.dispatcher.EXPECT().Dispatch(gomock.Any(), upgrades.DisableCart()).Return(nil)
			},
			expectedStatus: http.StatusAccepted,
		},
		{
			name: "coupon without a bound cart",
			body: `{"type":"CART_COUPON_APPLY","coupon":"SAVE10"}`,
			setupMocks: func(m serverMocks) {
				m.cart.EXPECT().Bound().Return(false)
			},
			expectedStatus: http.StatusConflict,
			errorContains:  "no cart is bound",
		},
		{
			name:           "malformed json",
			body:           `{"type":`,
			expectedStatus: http.StatusBadRequest,
			errorContains:  "invalid action payload",
		},
		{
			name:           "unknown field",
			body:           `{"type":"CART_DISABLE","site":1}`,
			expectedStatus: http.StatusBadRequest,
			errorContains:  "invalid action payload",
		},
		{
			name:           "missing type",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			errorContains:  "type is required",
		},
		{
			name:           "add without items",
			body:           `{"type":"CART_ITEMS_ADD"}`,
			expectedStatus: http.StatusBadRequest,
			errorContains:  "at least one cart item",
		},
		{
			name:           "unknown kind",
			body:           `{"type":"CART_EXPLODE"}`,
			expectedStatus: http.StatusBadRequest,
			errorContains:  "unknown action type",
		},
		{
			name: "dispatch failure",
			body: `{"type":"CART_PRIVACY_PROTECTION_ADD"}`,
			setupMocks: func(m serverMocks) {
				m.cart.EXPECT().Bound().Return(true)
				m.dispatcher.EXPECT().Dispatch(gomock.Any(), upgrades.AddPrivacyToAllDomains()).
					Return(context.Canceled)
			},
			expectedStatus: http.StatusServiceUnavailable,
			errorContains:  "failed to dispatch action",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server, m := newTestServer(t)
			if tt.setupMocks != nil {
				tt.setupMocks(m)
			}

			rr := serve(server, http.MethodPost, "/v1/actions", tt.body)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.errorContains != "" {
				var resp map[string]string
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Contains(t, resp["error"], tt.errorContains)
			}
		})
	}
}

func TestSiteEndpoints(t *testing.T) {
	t.Parallel()

	site := sites.Site{ID: 1234, Slug: "example.wordpress.com", Name: "Example"}

	tests := []struct {
		name           string
		method         string
		body           string
		setupMocks     func(serverMocks)
		expectedStatus int
	}{
		{
			name:   "list sites",
			method: http.MethodGet,
			setupMocks: func(m serverMocks) {
				m.sites.EXPECT().Sites().Return([]sites.Site{site})
				m.sites.EXPECT().SelectedSite().Return(&site)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "select site",
			method: http.MethodPut,
			body:   `{"siteId":1234}`,
			setupMocks: func(m serverMocks) {
				m.sites.EXPECT().Select(int64(1234)).Return(nil)
				m.cart.EXPECT().Get().Return(boundValue())
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "select unknown site",
			method: http.MethodPut,
			body:   `{"siteId":99}`,
			setupMocks: func(m serverMocks) {
				m.sites.EXPECT().Select(int64(99)).Return(sites.ErrSiteNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "select with invalid id",
			method:         http.MethodPut,
			body:           `{"siteId":0}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "select with string id",
			method:         http.MethodPut,
			body:           `{"siteId":"1234"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "select fails",
			method: http.MethodPut,
			body:   `{"siteId":1234}`,
			setupMocks: func(m serverMocks) {
				m.sites.EXPECT().Select(int64(1234)).Return(errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:   "clear selection",
			method: http.MethodDelete,
			setupMocks: func(m serverMocks) {
				m.sites.EXPECT().ClearSelection()
			},
			expectedStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server, m := newTestServer(t)
			if tt.setupMocks != nil {
				tt.setupMocks(m)
			}

			path := "/v1/site"
			if tt.method == http.MethodGet {
				path = "/v1/sites"
			}
			rr := serve(server, tt.method, path, tt.body)

			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("mounted when a handler is given", func(t *testing.T) {
		t.Parallel()
		metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("cartsync_cart_events_total 1\n"))
		})
		server, _ := newTestServer(t, api.WithMetricsHandler(metrics))

		rr := serve(server, http.MethodGet, "/metrics", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "cartsync_cart_events_total")
	})

	t.Run("absent by default", func(t *testing.T) {
		t.Parallel()
		server, _ := newTestServer(t)

		rr := serve(server, http.MethodGet, "/metrics", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

type sseEvent struct {
	id    string
	event string
	data  string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.event != "" {
				return ev
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "id: "):
			ev.id = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			ev.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestCartEvents(t *testing.T) {
	t.Parallel()
	server, m := newTestServer(t, api.WithKeepAliveInterval(10*time.Millisecond))

	listeners := make(chan emitter.Listener, 1)
	offCalled := make(chan struct{})
	m.cart.EXPECT().On(gomock.Any()).DoAndReturn(func(l emitter.Listener) emitter.Subscription {
		listeners <- l
		return 7
	})
	m.cart.EXPECT().Off(emitter.Subscription(7)).Do(func(emitter.Subscription) {
		close(offCalled)
	})

	empty := cartstore.Value{Cart: cartvalues.Empty("1234")}
	gomock.InOrder(
		m.cart.EXPECT().Get().Return(empty),
		m.cart.EXPECT().Get().Return(boundValue()),
	)

	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/cart/events", nil)
	require.NoError(t, err)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	first := readEvent(t, reader)
	assert.Equal(t, "change", first.event)
	assert.True(t, strings.HasSuffix(first.id, "-1"))
	assert.Contains(t, first.data, `"products":[]`)

	listener := <-listeners
	listener()

	// keep-alive comments between events are skipped
	second := readEvent(t, reader)
	assert.Equal(t, "change", second.event)
	assert.True(t, strings.HasSuffix(second.id, "-2"))
	assert.Contains(t, second.data, `"product_slug":"personal-bundle"`)
	assert.Equal(t, strings.TrimSuffix(first.id, "-1"), strings.TrimSuffix(second.id, "-2"))

	cancel()
	select {
	case <-offCalled:
	case <-time.After(5 * time.Second):
		t.Fatal("event stream did not unsubscribe after the client went away")
	}
}
