package cartapi

import (
	"context"
	"sync"

	"github.com/stacklok/cartsync/internal/cartvalues"
)

// MemoryClient is an in-process cart server. It stores one cart per key and
// echoes what it stores, the way the remote API does.
type MemoryClient struct {
	mu    sync.Mutex
	carts map[cartvalues.Key]cartvalues.Cart
}

// NewMemoryClient creates an empty in-memory cart server
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{carts: make(map[cartvalues.Key]cartvalues.Cart)}
}

// Get returns the stored cart for key, or an empty cart
func (m *MemoryClient) Get(ctx context.Context, key cartvalues.Key) (cartvalues.Cart, error) {
	if err := ctx.Err(); err != nil {
		return cartvalues.Cart{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cart, ok := m.carts[key]
	if !ok {
		return cartvalues.Empty(key), nil
	}
	return cart.Clone(), nil
}

// Set stores cart for key, recomputing the total the way the server does
func (m *MemoryClient) Set(ctx context.Context, key cartvalues.Key, cart cartvalues.Cart) (cartvalues.Cart, error) {
	if err := ctx.Err(); err != nil {
		return cartvalues.Cart{}, err
	}

	stored := cart.Clone()
	stored.CartKey = key
	stored.TotalCost = stored.Subtotal()
	stored.IsCouponApplied = false
	if stored.Currency == "" && len(stored.Products) > 0 {
		stored.Currency = stored.Products[0].Currency
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.carts[key] = stored
	return stored.Clone(), nil
}
