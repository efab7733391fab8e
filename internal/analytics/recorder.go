// Package analytics records cart analytics events derived from cart changes.
package analytics

import (
	"context"
	"strconv"

	"github.com/stacklok/cartsync/internal/cartvalues"
	"github.com/stacklok/cartsync/internal/logger"
	"github.com/stacklok/cartsync/internal/telemetry"
)

// Event names
const (
	EventProductAdd    = "cart_product_add"
	EventProductRemove = "cart_product_remove"
	EventCouponApply   = "cart_coupon_apply"
)

// Tracker receives analytics events.
//
//go:generate mockgen -destination=mocks/mock_tracker.go -package=mocks -source=recorder.go Tracker
type Tracker interface {
	Track(ctx context.Context, name string, props map[string]string)
}

// Recorder turns a cart transition into analytics events
type Recorder struct {
	tracker Tracker
}

// NewRecorder creates a recorder that reports to tracker
func NewRecorder(tracker Tracker) *Recorder {
	return &Recorder{tracker: tracker}
}

// RecordEvents compares two cart snapshots and tracks one event per added or
// removed item, plus a coupon event when a new coupon was applied.
func (r *Recorder) RecordEvents(ctx context.Context, prev, next cartvalues.Cart) {
	if r == nil || r.tracker == nil {
		return
	}

	for _, item := range next.Products {
		if !prev.Contains(item) {
			r.tracker.Track(ctx, EventProductAdd, itemProps(item))
		}
	}
	for _, item := range prev.Products {
		if !next.Contains(item) {
			r.tracker.Track(ctx, EventProductRemove, itemProps(item))
		}
	}
	if next.Coupon != "" && next.Coupon != prev.Coupon {
		r.tracker.Track(ctx, EventCouponApply, map[string]string{"coupon_code": next.Coupon})
	}
}

func itemProps(item cartvalues.CartItem) map[string]string {
	props := map[string]string{
		"product_slug": item.ProductSlug,
		"free_trial":   strconv.FormatBool(item.FreeTrial),
	}
	if item.ProductID != 0 {
		props["product_id"] = strconv.FormatInt(item.ProductID, 10)
	}
	if item.Meta != "" {
		props["meta"] = item.Meta
	}
	return props
}

// LogTracker writes events to the log and counts them
type LogTracker struct {
	metrics *telemetry.CartMetrics
}

// NewLogTracker creates a tracker; metrics may be nil
func NewLogTracker(metrics *telemetry.CartMetrics) *LogTracker {
	return &LogTracker{metrics: metrics}
}

// Track logs the event and increments the event counter
func (t *LogTracker) Track(ctx context.Context, name string, props map[string]string) {
	kv := make([]any, 0, 2+2*len(props))
	kv = append(kv, "event", name)
	for k, v := range props {
		kv = append(kv, k, v)
	}
	logger.Infow("Cart analytics event", kv...)
	t.metrics.RecordEvent(ctx, name)
}
