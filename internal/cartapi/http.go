package cartapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/stacklok/cartsync/internal/cartvalues"
	"github.com/stacklok/cartsync/internal/logger"
)

const (
	// DefaultTimeout is the default timeout for a single HTTP request
	DefaultTimeout = 10 * time.Second

	// DefaultMaxTries bounds attempts for one request, including the first
	DefaultMaxTries = 3

	// MaxResponseSize is the maximum allowed response size (10MB)
	MaxResponseSize = 10 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "cartsync/1.0"

	cartPath = "me/shopping-cart"
)

// HTTPOption configures the HTTP client
type HTTPOption func(*HTTPClient)

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// WithMaxTries sets how many attempts a request gets before failing
func WithMaxTries(tries uint) HTTPOption {
	return func(c *HTTPClient) {
		if tries > 0 {
			c.maxTries = tries
		}
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithRetryInterval sets the initial wait between attempts
func WithRetryInterval(interval time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		c.retryInterval = interval
	}
}

// HTTPClient is the Client backed by the remote cart API. Transient failures
// (network errors, 5xx, 429) are retried a bounded number of times within one
// call; anything beyond that is left to the caller.
type HTTPClient struct {
	endpoint      string
	client        *http.Client
	maxTries      uint
	retryInterval time.Duration
}

// NewHTTPClient creates a client for the cart API rooted at endpoint.
func NewHTTPClient(endpoint string, opts ...HTTPOption) (*HTTPClient, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid cart API endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid cart API endpoint %q: scheme must be http or https", endpoint)
	}

	c := &HTTPClient{
		endpoint:      strings.TrimSuffix(endpoint, "/"),
		client:        &http.Client{Timeout: DefaultTimeout},
		maxTries:      DefaultMaxTries,
		retryInterval: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get fetches the server cart for key
func (c *HTTPClient) Get(ctx context.Context, key cartvalues.Key) (cartvalues.Cart, error) {
	return c.do(ctx, http.MethodGet, key, nil)
}

// Set stores cart as the server cart for key
func (c *HTTPClient) Set(ctx context.Context, key cartvalues.Key, cart cartvalues.Cart) (cartvalues.Cart, error) {
	body, err := json.Marshal(cart)
	if err != nil {
		return cartvalues.Cart{}, fmt.Errorf("failed to encode cart: %w", err)
	}
	return c.do(ctx, http.MethodPost, key, body)
}

func (c *HTTPClient) cartURL(key cartvalues.Key) string {
	return fmt.Sprintf("%s/%s/%s", c.endpoint, cartPath, url.PathEscape(key.String()))
}

func (c *HTTPClient) do(ctx context.Context, method string, key cartvalues.Key, body []byte) (cartvalues.Cart, error) {
	target := c.cartURL(key)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval

	operation := func() (cartvalues.Cart, error) {
		cart, err := c.once(ctx, method, target, body)
		if err == nil {
			return cart, nil
		}
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return cartvalues.Cart{}, err
		}
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && !httpErr.Temporary() {
			return cartvalues.Cart{}, backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return cartvalues.Cart{}, backoff.Permanent(err)
		}
		logger.Debugf("Cart API: %s %s failed, will retry: %v", method, target, err)
		return cartvalues.Cart{}, err
	}

	cart, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		return cartvalues.Cart{}, err
	}
	if cart.Products == nil {
		cart.Products = []cartvalues.CartItem{}
	}
	if cart.CartKey == "" {
		cart.CartKey = key
	}
	return cart, nil
}

func (c *HTTPClient) once(ctx context.Context, method, target string, body []byte) (cartvalues.Cart, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return cartvalues.Cart{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return cartvalues.Cart{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return cartvalues.Cart{}, NewHTTPError(resp.StatusCode, target, resp.Status)
	}

	if resp.ContentLength > MaxResponseSize {
		return cartvalues.Cart{}, fmt.Errorf("response size %d bytes exceeds maximum allowed size of %d bytes",
			resp.ContentLength, MaxResponseSize)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return cartvalues.Cart{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > MaxResponseSize {
		return cartvalues.Cart{}, fmt.Errorf("response size exceeds maximum allowed size of %d bytes", MaxResponseSize)
	}

	var cart cartvalues.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return cartvalues.Cart{}, backoff.Permanent(fmt.Errorf("failed to decode cart: %w", err))
	}
	return cart, nil
}
