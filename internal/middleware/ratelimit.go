package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/promoter-admin-go/internal/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RateLimiter limits requests per client. Clients are keyed by API key when
// present, else by remote IP.
type RateLimiter struct {
	enabled         bool
	limiters        map[string]*rate.Limiter
	mu              sync.RWMutex
	rpm             int
	burst           int
	metrics         *Metrics
	logger          *logrus.Logger
	cleanupInterval time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(cfg *config.RateLimitConfig, metrics *Metrics, logger *logrus.Logger) *RateLimiter {
	rl := &RateLimiter{
		enabled:         cfg.Enabled,
		limiters:        make(map[string]*rate.Limiter),
		rpm:             cfg.RequestsPerMinute,
		burst:           cfg.Burst,
		metrics:         metrics,
		logger:          logger,
		cleanupInterval: time.Hour,
	}

	if rl.enabled {
		go rl.cleanup()
	}

	return rl
}

// Middleware rejects over-limit requests with 429.
func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !r.enabled {
			next.ServeHTTP(w, req)
			return
		}

		client := clientKey(req)
		if !r.getLimiter(client).Allow() {
			r.logger.WithField("client", client).Warn("Rate limit exceeded")
			r.metrics.RecordRateLimitExceeded(client)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, req)
	})
}

func clientKey(req *http.Request) string {
	if key := req.Header.Get("X-API-Key"); key != "" {
		return key
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

// getLimiter gets or creates a rate limiter for a client
func (r *RateLimiter) getLimiter(client string) *rate.Limiter {
	r.mu.RLock()
	limiter, exists := r.limiters[client]
	r.mu.RUnlock()

	if exists {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := r.limiters[client]; exists {
		return limiter
	}

	rps := float64(r.rpm) / 60.0
	limiter = rate.NewLimiter(rate.Limit(rps), r.burst)
	r.limiters[client] = limiter

	return limiter
}

// cleanup bounds the limiter map
func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(r.cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		r.mu.Lock()
		if len(r.limiters) > 10000 {
			r.logger.Warn("Rate limiter map size exceeded threshold, clearing")
			r.limiters = make(map[string]*rate.Limiter)
		}
		r.mu.Unlock()
	}
}
