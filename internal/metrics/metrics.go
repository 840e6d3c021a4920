// Package metrics exposes Prometheus collectors for the notification
// pipeline and the admin API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buildhooks_deliveries_total",
		Help: "Webhook delivery attempts by outcome.",
	}, []string{"outcome"})

	notificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "buildhooks_notification_duration_seconds",
		Help:    "Wall-clock time spent delivering one build notification to all subscribers.",
		Buckets: prometheus.DefBuckets,
	})

	remoteListingFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buildhooks_remote_listing_failures_total",
		Help: "Object-storage listings that failed and were skipped.",
	})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "buildhooks_http_request_duration_seconds",
		Help:    "Duration of admin API requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method", "status"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buildhooks_http_requests_total",
		Help: "Total number of admin API requests.",
	}, []string{"path", "method", "status"})
)

// ObserveDelivery counts one delivery attempt; outcome is delivered, rejected or failed.
func ObserveDelivery(outcome string) {
	deliveries.WithLabelValues(outcome).Inc()
}

// ObserveNotification records how long one notification batch took.
func ObserveNotification(elapsed time.Duration) {
	notificationDuration.Observe(elapsed.Seconds())
}

// RemoteListingFailed counts a skipped object-storage pass.
func RemoteListingFailed() {
	remoteListingFailures.Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records RED metrics keyed by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil && routeCtx.RoutePattern() != "" {
			path = routeCtx.RoutePattern()
		}

		status := strconv.Itoa(ww.Status())
		httpDuration.WithLabelValues(path, r.Method, status).Observe(time.Since(start).Seconds())
		httpRequests.WithLabelValues(path, r.Method, status).Inc()
	})
}
