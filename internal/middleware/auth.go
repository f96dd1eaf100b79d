package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/sirupsen/logrus"
)

// APIKeyAuth rejects requests whose X-API-Key header does not match the
// configured key. With an empty configured key the check is disabled (local
// development).
func APIKeyAuth(apiKey string, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				logger.WithField("path", r.URL.Path).Warn("Rejected request with invalid API key")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid api key"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
