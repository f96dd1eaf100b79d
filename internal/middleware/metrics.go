package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promoter_admin_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promoter_admin_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// AI metrics
	aiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promoter_admin_ai_request_duration_seconds",
		Help:    "Duration of summarizer requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})

	aiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promoter_admin_ai_requests_total",
		Help: "Total number of summarizer requests",
	}, []string{"status"})

	// Insight cache metrics
	insightGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promoter_admin_insight_generations_total",
		Help: "Total number of insight generation attempts",
	}, []string{"status"})

	insightCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promoter_admin_insight_cache_hits_total",
		Help: "Total number of insight cache hits",
	})

	insightCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promoter_admin_insight_cache_misses_total",
		Help: "Total number of insight cache misses",
	})

	// Rate limit metrics
	rateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promoter_admin_rate_limit_exceeded_total",
		Help: "Total number of rate limit exceeded events",
	}, []string{"client"})
)

// Metrics provides methods to record metrics
type Metrics struct{}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordAIRequest records a summarizer request
func (m *Metrics) RecordAIRequest(status string, duration time.Duration) {
	aiRequestDuration.WithLabelValues(status).Observe(duration.Seconds())
	aiRequestsTotal.WithLabelValues(status).Inc()
}

// RecordInsightGeneration records an insight generation attempt
func (m *Metrics) RecordInsightGeneration(status string) {
	insightGenerations.WithLabelValues(status).Inc()
}

// RecordInsightCacheHit records an insight cache hit
func (m *Metrics) RecordInsightCacheHit() {
	insightCacheHits.Inc()
}

// RecordInsightCacheMiss records an insight cache miss
func (m *Metrics) RecordInsightCacheMiss() {
	insightCacheMisses.Inc()
}

// RecordRateLimitExceeded records a rate limit exceeded event
func (m *Metrics) RecordRateLimitExceeded(client string) {
	rateLimitExceeded.WithLabelValues(client).Inc()
}

// statusRecorder captures the response status for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument wraps a handler with request counting and timing. The route
// template is used as the path label to keep cardinality bounded.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// StartMetricsServer starts the metrics HTTP server
func StartMetricsServer(port int, path string) error {
	router := mux.NewRouter()
	router.Handle(path, promhttp.Handler())

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
