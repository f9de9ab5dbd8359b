package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"cutoutd/internal/session"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cutoutd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cutoutd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)

	httpInflight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cutoutd",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "In-flight HTTP requests",
		},
		[]string{"path"},
	)

	sessionPhase = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cutoutd",
			Subsystem: "session",
			Name:      "phase",
			Help:      "1 for the phase the session is in, 0 otherwise",
		},
		[]string{"phase"},
	)

	sessionCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cutoutd",
			Subsystem: "session",
			Name:      "cycles_total",
			Help:      "Finished processing cycles by outcome",
		},
		[]string{"outcome"},
	)

	sessionHistory = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cutoutd",
			Subsystem: "session",
			Name:      "history_items",
			Help:      "Items in the result history",
		},
	)

	downloadBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cutoutd",
			Subsystem: "download",
			Name:      "bytes",
			Help:      "Latest model download progress",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, httpInflight,
		sessionPhase, sessionCycles, sessionHistory, downloadBytes)
}

// statusRecorder wraps http.ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working behind the recorder.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// MetricsMiddleware instruments requests for Prometheus
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sr := &statusRecorder{ResponseWriter: w, status: 200}
		start := time.Now()
		next.ServeHTTP(sr, r)
		// Resolve after routing so chi has filled in the pattern.
		path := routePatternOrPath(r)
		statusLabel := strconv.Itoa(sr.status)
		httpRequestsTotal.WithLabelValues(path, r.Method, statusLabel).Inc()
		httpRequestDuration.WithLabelValues(path, r.Method, statusLabel).Observe(time.Since(start).Seconds())
	})
}

// InflightMiddleware tracks in-flight requests per route. It must run
// inside the router so the route pattern is known.
func InflightMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := routePatternOrPath(r)
		httpInflight.WithLabelValues(path).Inc()
		defer httpInflight.WithLabelValues(path).Dec()
		next.ServeHTTP(w, r)
	})
}

// routePatternOrPath returns the chi route pattern if available, otherwise
// falls back to URL path. This avoids high-cardinality label values.
func routePatternOrPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

var allPhases = []session.Phase{
	session.PhaseIdle, session.PhaseLoading, session.PhaseProcessing,
	session.PhaseDone, session.PhaseError,
}

// MetricsPublisher mirrors session events into Prometheus gauges and
// counters. It never blocks.
type MetricsPublisher struct{}

func (MetricsPublisher) Publish(e session.Event) {
	for _, p := range allPhases {
		v := 0.0
		if p == e.Phase {
			v = 1
		}
		sessionPhase.WithLabelValues(string(p)).Set(v)
	}
	switch e.Name {
	case "done":
		sessionCycles.WithLabelValues("done").Inc()
		if n, ok := e.Fields["history_len"].(int); ok {
			sessionHistory.Set(float64(n))
		}
	case "error":
		sessionCycles.WithLabelValues("error").Inc()
	case "history_remove":
		if n, ok := e.Fields["history_len"].(int); ok {
			sessionHistory.Set(float64(n))
		}
	case "download_progress":
		if n, ok := e.Fields["downloaded"].(int64); ok {
			downloadBytes.WithLabelValues("downloaded").Set(float64(n))
		}
		if n, ok := e.Fields["total"].(int64); ok {
			downloadBytes.WithLabelValues("total").Set(float64(n))
		}
	}
}
