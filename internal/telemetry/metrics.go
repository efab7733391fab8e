// Package telemetry provides OpenTelemetry instrumentation for cartsync.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the name used for the cart sync metrics meter
	SyncMetricsMeterName = "github.com/stacklok/cartsync/sync"

	// CartMetricsMeterName is the name used for the cart contents metrics meter
	CartMetricsMeterName = "github.com/stacklok/cartsync/cart"
)

// Sync operations recorded by SyncMetrics
const (
	OperationFetch = "fetch"
	OperationPush  = "push"
)

// SyncMetrics holds the OpenTelemetry instruments for cart sync requests
type SyncMetrics struct {
	syncDuration metric.Float64Histogram
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"cartsync_sync_duration_seconds",
		metric.WithDescription("Duration of cart API requests made by the synchronizer in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration: syncDuration,
	}, nil
}

// RecordSyncDuration records the duration of one fetch or push for a cart key
func (m *SyncMetrics) RecordSyncDuration(
	ctx context.Context, cartKey, operation string, duration time.Duration, success bool,
) {
	if m == nil || m.syncDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("cart_key", cartKey),
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	}

	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// CartMetrics holds the OpenTelemetry instruments for cart contents and events
type CartMetrics struct {
	itemsTotal  metric.Int64Gauge
	eventsTotal metric.Int64Counter
}

// NewCartMetrics creates a new CartMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewCartMetrics(provider metric.MeterProvider) (*CartMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(CartMetricsMeterName)

	itemsTotal, err := meter.Int64Gauge(
		"cartsync_cart_items_total",
		metric.WithDescription("Number of items in the active cart"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	eventsTotal, err := meter.Int64Counter(
		"cartsync_cart_events_total",
		metric.WithDescription("Number of cart analytics events recorded"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	return &CartMetrics{
		itemsTotal:  itemsTotal,
		eventsTotal: eventsTotal,
	}, nil
}

// RecordItemsTotal records the current number of items in a cart
func (m *CartMetrics) RecordItemsTotal(ctx context.Context, cartKey string, count int64) {
	if m == nil || m.itemsTotal == nil {
		return
	}

	m.itemsTotal.Record(ctx, count, metric.WithAttributes(attribute.String("cart_key", cartKey)))
}

// RecordEvent counts one analytics event
func (m *CartMetrics) RecordEvent(ctx context.Context, event string) {
	if m == nil || m.eventsTotal == nil {
		return
	}

	m.eventsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}
