package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	AuthOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_auth_outcomes_total",
			Help: "Sign-in, sign-out and token outcomes",
		},
		[]string{"outcome"},
	)

	AuthzDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_authz_denied_total",
			Help: "Requests rejected by role or tenant checks",
		},
		[]string{"check"},
	)

	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ActivityProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_activity_events_processed_total",
			Help: "Change events stored per tenant",
		},
		[]string{"tenant", "result"},
	)

	ActiveConsumers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crm_active_tenant_consumers",
			Help: "Number of running tenant change consumers",
		},
	)

	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crm_change_queue_depth",
			Help: "Current RabbitMQ change queue depth per tenant",
		},
		[]string{"tenant"},
	)
)

var once sync.Once

// Init registers metrics with Prometheus. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequests,
			HTTPDuration,
			AuthOutcomes,
			AuthzDenied,
			DBOperationDuration,
			ActivityProcessed,
			ActiveConsumers,
			QueueDepth,
		)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation returns a func that observes the elapsed time when called.
//
//	defer metrics.TrackDBOperation("list_leads")()
func TrackDBOperation(operation string) func() {
	start := time.Now()
	return func() {
		DBOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

func RecordAuth(outcome string) {
	AuthOutcomes.WithLabelValues(outcome).Inc()
}

func RecordDenied(check string) {
	AuthzDenied.WithLabelValues(check).Inc()
}

// Middleware records request count and latency labelled by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
