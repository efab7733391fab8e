// Package api provides the REST API server of the cart agent.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/cartsync/internal/cartstore"
	"github.com/stacklok/cartsync/internal/emitter"
	"github.com/stacklok/cartsync/internal/logger"
	"github.com/stacklok/cartsync/internal/sites"
	"github.com/stacklok/cartsync/internal/upgrades"
)

//go:generate mockgen -destination=mocks/mock_api.go -package=mocks -source=server.go Cart,Dispatcher,SiteSelector

// DefaultKeepAliveInterval is how often an idle event stream sends a comment line
const DefaultKeepAliveInterval = 15 * time.Second

// Cart is the part of the cart store served over HTTP
type Cart interface {
	Get() cartstore.Value
	Bound() bool
	On(listener emitter.Listener) emitter.Subscription
	Off(sub emitter.Subscription)
}

// Dispatcher delivers actions to the cart store
type Dispatcher interface {
	Dispatch(ctx context.Context, action upgrades.Action) error
}

// SiteSelector changes the selected site
type SiteSelector interface {
	Sites() []sites.Site
	SelectedSite() *sites.Site
	Select(id int64) error
	ClearSelection()
}

// ServerOption configures the API server
type ServerOption func(*serverConfig)

type serverConfig struct {
	middlewares       []func(http.Handler) http.Handler
	requestTimeout    time.Duration
	metricsHandler    http.Handler
	keepAliveInterval time.Duration
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithRequestTimeout bounds every request except event streams
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(cfg *serverConfig) {
		cfg.requestTimeout = d
	}
}

// WithMetricsHandler mounts h on /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// WithKeepAliveInterval sets the event stream keep-alive interval
func WithKeepAliveInterval(d time.Duration) ServerOption {
	return func(cfg *serverConfig) {
		cfg.keepAliveInterval = d
	}
}

// NewServer creates and configures the HTTP router
func NewServer(cart Cart, dispatcher Dispatcher, selector SiteSelector, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		keepAliveInterval: DefaultKeepAliveInterval,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	h := &handlers{
		cart:       cart,
		dispatcher: dispatcher,
		sites:      selector,
		keepAlive:  cfg.keepAliveInterval,
	}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Group(func(r chi.Router) {
		if cfg.requestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.requestTimeout))
		}

		r.Get("/health", healthHandler)
		r.Get("/readiness", h.readiness)
		r.Get("/version", versionHandler)

		r.Route("/v1", func(r chi.Router) {
			r.Get("/cart", h.getCart)
			r.Post("/actions", h.postAction)
			r.Get("/sites", h.listSites)
			r.Put("/site", h.selectSite)
			r.Delete("/site", h.clearSite)
		})

		if cfg.metricsHandler != nil {
			r.Method(http.MethodGet, "/metrics", cfg.metricsHandler)
		}
	})

	r.Get("/v1/cart/events", h.streamEvents)

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Debugf("HTTP %s %s %d %s %s",
			r.Method,
			r.URL.Path,
			ww.Status(),
			time.Since(start),
			middleware.GetReqID(r.Context()),
		)
	})
}

type handlers struct {
	cart       Cart
	dispatcher Dispatcher
	sites      SiteSelector
	keepAlive  time.Duration
}
