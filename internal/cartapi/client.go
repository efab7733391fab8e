// Package cartapi talks to the remote shopping cart API.
package cartapi

import (
	"context"
	"fmt"

	"github.com/stacklok/cartsync/internal/cartvalues"
)

// Client reads and writes the server-side cart for a cart key.
//
//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client
type Client interface {
	// Get fetches the current server cart
	Get(ctx context.Context, key cartvalues.Key) (cartvalues.Cart, error)

	// Set replaces the server cart and returns the cart as the server stored it
	Set(ctx context.Context, key cartvalues.Key, cart cartvalues.Cart) (cartvalues.Cart, error)
}

// HTTPError represents a non-success response from the cart API
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

// Error returns the error message
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}

// Temporary reports whether retrying the request may succeed
func (e *HTTPError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, url, message string) error {
	return &HTTPError{
		StatusCode: statusCode,
		URL:        url,
		Message:    message,
	}
}
