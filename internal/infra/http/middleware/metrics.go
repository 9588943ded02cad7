package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	webhookOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_outcomes_total",
			Help: "Webhook deliveries by gateway and outcome",
		},
		[]string{"gateway", "outcome"},
	)

	funnelEnrollments = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "funnel_enrollments_total",
			Help: "Leads enrolled into a funnel",
		},
	)

	workersScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "funnel_workers_scheduled_total",
			Help: "Workers created by enrollments",
		},
	)

	funnelSettlements = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "funnel_settlements_total",
			Help: "In-flight leads settled by a sale",
		},
	)

	workersCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "funnel_workers_cancelled_total",
			Help: "Pending workers deleted by settlements",
		},
	)

	recoveredRevenue = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "funnel_recovered_revenue_total",
			Help: "Revenue attributed to funnels, in BRL",
		},
	)

	dispatchPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_published_total",
			Help: "Workers published to the dispatch queue",
		},
	)

	integrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Total number of integration errors",
		},
		[]string{"service"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern keeps uid/fid out of the label set.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func RecordIntegrationError(service string) {
	integrationErrors.WithLabelValues(service).Inc()
}

// Recorder feeds the lifecycle counters. It satisfies the engine's and the
// relay's metrics interfaces.
type Recorder struct{}

func (Recorder) RecordWebhookOutcome(gateway, outcome string) {
	webhookOutcomes.WithLabelValues(gateway, outcome).Inc()
}

func (Recorder) RecordEnrollment(workers int) {
	funnelEnrollments.Inc()
	workersScheduled.Add(float64(workers))
}

func (Recorder) RecordSettlement(revenue decimal.Decimal, cancelled int64) {
	funnelSettlements.Inc()
	workersCancelled.Add(float64(cancelled))
	recoveredRevenue.Add(revenue.InexactFloat64())
}

func (Recorder) RecordDispatch(n int) {
	dispatchPublished.Add(float64(n))
}

func (Recorder) RecordIntegrationError(service string) {
	RecordIntegrationError(service)
}
