package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/cartsync/internal/api"
	"github.com/stacklok/cartsync/internal/bus"
	"github.com/stacklok/cartsync/internal/cartapi"
	"github.com/stacklok/cartsync/internal/cartstore"
	"github.com/stacklok/cartsync/internal/cartvalues"
	"github.com/stacklok/cartsync/internal/poller"
	"github.com/stacklok/cartsync/internal/products"
	"github.com/stacklok/cartsync/internal/sites"
	"github.com/stacklok/cartsync/internal/upgrades"
)

// newAgent wires the real store, poller and in-memory cart server behind the API
func newAgent(t *testing.T) (http.Handler, *cartapi.MemoryClient) {
	t.Helper()

	catalog, err := products.New(
		cartvalues.Product{ProductID: 1009, ProductSlug: "personal-bundle", ProductName: "Personal", Cost: 48, Currency: "USD"},
	)
	require.NoError(t, err)

	list := sites.NewList()
	list.SetSites([]sites.Site{{ID: 1, Slug: "one.example"}, {ID: 2, Slug: "two.example"}})
	require.NoError(t, list.Select(1))

	client := cartapi.NewMemoryClient()
	pool := poller.New(time.Hour)
	dispatcher := bus.New[upgrades.Action]()

	store := cartstore.New(cartstore.Deps{
		Sites:   list,
		Poller:  pool,
		Client:  client,
		Catalog: catalog,
		Bus:     dispatcher,
	})
	require.NoError(t, store.Start(context.Background()))
	t.Cleanup(func() {
		store.Stop()
		pool.Close()
	})

	return api.NewServer(store, dispatcher, list), client
}

func getValue(t *testing.T, h http.Handler) map[string]any {
	t.Helper()
	rr := serve(h, http.MethodGet, "/v1/cart", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestAgent_ActionReachesServer(t *testing.T) {
	t.Parallel()
	server, client := newAgent(t)

	require.Eventually(t, func() bool {
		return getValue(t, server)["hasLoadedFromServer"] == true
	}, 5*time.Second, 10*time.Millisecond)

	rr := serve(server, http.MethodPost, "/v1/actions",
		`{"type":"CART_ITEMS_ADD","cartItems":[{"product_slug":"personal-bundle"}]}`)
	require.Equal(t, http.StatusAccepted, rr.Code)

	require.Eventually(t, func() bool {
		return getValue(t, server)["hasPendingServerUpdates"] == false
	}, 5*time.Second, 10*time.Millisecond)

	stored, err := client.Get(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, stored.Products, 1)
	assert.Equal(t, int64(1009), stored.Products[0].ProductID)
	assert.InDelta(t, 48.0, stored.TotalCost, 0.001)
}

func TestAgent_SiteSwitchRebindsCart(t *testing.T) {
	t.Parallel()
	server, _ := newAgent(t)

	rr := serve(server, http.MethodGet, "/readiness", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ready","cartKey":"1"}`, rr.Body.String())

	rr = serve(server, http.MethodPut, "/v1/site", `{"siteId":2}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "2", body["cart_key"])

	rr = serve(server, http.MethodDelete, "/v1/site", "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, string(cartvalues.NoSiteKey), getValue(t, server)["cart_key"])

	rr = serve(server, http.MethodPost, "/v1/actions", `{"type":"CART_DISABLE"}`)
	require.Equal(t, http.StatusAccepted, rr.Code)

	rr = serve(server, http.MethodGet, "/readiness", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = serve(server, http.MethodPost, "/v1/actions", `{"type":"CART_COUPON_APPLY","coupon":"SAVE10"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
}
