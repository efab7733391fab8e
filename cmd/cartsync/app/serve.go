package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/cartsync/internal/analytics"
	"github.com/stacklok/cartsync/internal/api"
	"github.com/stacklok/cartsync/internal/bus"
	"github.com/stacklok/cartsync/internal/cartapi"
	"github.com/stacklok/cartsync/internal/cartstore"
	"github.com/stacklok/cartsync/internal/config"
	"github.com/stacklok/cartsync/internal/logger"
	"github.com/stacklok/cartsync/internal/poller"
	"github.com/stacklok/cartsync/internal/products"
	"github.com/stacklok/cartsync/internal/sites"
	"github.com/stacklok/cartsync/internal/synchronizer"
	"github.com/stacklok/cartsync/internal/telemetry"
	"github.com/stacklok/cartsync/internal/upgrades"
	"github.com/stacklok/cartsync/internal/versions"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the cart agent",
	Long: `Start the cart agent and its HTTP API.

The optional configuration file (--config) sets:
- the cart backend (remote cart API endpoint, or in-memory)
- the poll interval and product catalog
- the known sites and the site selected at startup
- telemetry

Without a configuration file the agent keeps carts in memory.
See examples/ directory for sample configurations.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second
	serverRequestTimeout   = 10 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 15 * time.Second // event streams clear their own deadline
	serverIdleTimeout      = 60 * time.Second
	actionQueueSize        = 64
)

func init() {
	serveCmd.Flags().String("address", ":8080", "Address to listen on")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format)")

	if err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		logger.Fatalf("Failed to bind address flag: %v", err)
	}
	if err := viper.BindPFlag("config", serveCmd.Flags().Lookup("config")); err != nil {
		logger.Fatalf("Failed to bind config flag: %v", err)
	}
}

// agent is the assembled cart agent
type agent struct {
	telemetry  *telemetry.Telemetry
	pool       *poller.Pool
	store      *cartstore.Store
	dispatcher *bus.Dispatcher[upgrades.Action]
	actions    *bus.Queue[upgrades.Action]
	router     http.Handler
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		logger.Info("No configuration file given, using an in-memory cart backend")
		return config.Default(), nil
	}
	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Infof("Loaded configuration from %s (backend: %s, sites: %d)",
		path, cfg.CartAPI.GetBackend(), len(cfg.Sites))
	return cfg, nil
}

func newCartClient(cfg *config.Config) (cartapi.Client, error) {
	switch backend := cfg.CartAPI.GetBackend(); backend {
	case config.BackendHTTP:
		client, err := cartapi.NewHTTPClient(cfg.CartAPI.Endpoint,
			cartapi.WithTimeout(cfg.CartAPI.GetTimeout()),
			cartapi.WithMaxTries(cfg.CartAPI.GetMaxTries()),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create cart API client: %w", err)
		}
		logger.Infof("Using cart API at %s", cfg.CartAPI.Endpoint)
		return client, nil
	case config.BackendMemory:
		logger.Warn("Using the in-memory cart backend; carts are lost on restart")
		return cartapi.NewMemoryClient(), nil
	default:
		return nil, fmt.Errorf("unknown cart backend %q", backend)
	}
}

func newCatalog(cfg *config.Config) (*products.Catalog, error) {
	path := cfg.GetCatalogPath()
	if path == "" {
		return products.New()
	}
	catalog, err := products.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load product catalog: %w", err)
	}
	logger.Infof("Loaded %d products from %s", catalog.Len(), path)
	return catalog, nil
}

func newSiteList(cfg *config.Config) (*sites.List, error) {
	list := sites.NewList()
	list.SetSites(cfg.Sites)
	if cfg.SelectedSite != 0 {
		if err := list.Select(cfg.SelectedSite); err != nil {
			return nil, fmt.Errorf("failed to select site: %w", err)
		}
	}
	return list, nil
}

// newAgent assembles and starts the cart agent. The caller must call close.
func newAgent(ctx context.Context, cfg *config.Config) (*agent, error) {
	if cfg.Telemetry != nil && cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = versions.GetVersionInfo().Version
	}
	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	a := &agent{telemetry: tel}
	if err := a.build(ctx, cfg); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *agent) build(ctx context.Context, cfg *config.Config) error {
	syncMetrics, err := telemetry.NewSyncMetrics(a.telemetry.MeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create sync metrics: %w", err)
	}
	cartMetrics, err := telemetry.NewCartMetrics(a.telemetry.MeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create cart metrics: %w", err)
	}
	httpMetrics, err := telemetry.MetricsMiddleware(a.telemetry.MeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	catalog, err := newCatalog(cfg)
	if err != nil {
		return err
	}
	client, err := newCartClient(cfg)
	if err != nil {
		return err
	}
	siteList, err := newSiteList(cfg)
	if err != nil {
		return err
	}

	a.pool = poller.New(cfg.GetPollInterval())
	a.dispatcher = bus.New[upgrades.Action]()
	a.actions = bus.NewQueue[upgrades.Action](actionQueueSize)

	a.store = cartstore.New(cartstore.Deps{
		Sites:    siteList,
		Poller:   a.pool,
		Client:   client,
		Catalog:  catalog,
		Recorder: analytics.NewRecorder(analytics.NewLogTracker(cartMetrics)),
		Bus:      a.dispatcher,
	},
		cartstore.WithCartMetrics(cartMetrics),
		cartstore.WithSyncOptions(
			synchronizer.WithMetrics(syncMetrics),
			synchronizer.WithTracer(a.telemetry.Tracer(telemetry.SyncTracerName)),
		),
	)
	if err := a.store.Start(ctx); err != nil {
		return fmt.Errorf("failed to start cart store: %w", err)
	}

	// HTTP actions are queued and delivered by run, in arrival order
	a.router = api.NewServer(a.store, a.actions, siteList,
		api.WithRequestTimeout(serverRequestTimeout),
		api.WithMetricsHandler(a.telemetry.MetricsHandler()),
		api.WithMiddlewares(
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			telemetry.TracingMiddleware(a.telemetry.TracerProvider()),
			httpMetrics,
			api.LoggingMiddleware,
		),
	)
	return nil
}

// run delivers queued actions to the cart store until ctx is cancelled
func (a *agent) run(ctx context.Context) error {
	err := a.dispatcher.Run(ctx, a.actions.Actions())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// close stops the store and the poller, then flushes telemetry
func (a *agent) close() {
	if a.actions != nil {
		a.actions.Close()
	}
	if a.store != nil {
		a.store.Stop()
	}
	if a.pool != nil {
		a.pool.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()
	if err := a.telemetry.Shutdown(ctx); err != nil {
		logger.Errorf("Failed to shutdown telemetry: %v", err)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	address := viper.GetString("address")
	logger.Infof("Starting cart agent on %s", address)

	cfg, err := loadConfig(viper.GetString("config"))
	if err != nil {
		return err
	}

	a, err := newAgent(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	server := &http.Server{
		Addr:         address,
		Handler:      a.router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
		// request contexts end with ctx, which closes open event streams
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.run(gctx)
	})
	g.Go(func() error {
		logger.Infof("Server listening on %s", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("%v", err)
		return err
	}

	logger.Info("Server shutdown complete")
	return nil
}
