package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/evyataryagoni/geodbsync/internal/limiter"
	"github.com/evyataryagoni/geodbsync/internal/metrics"
	"github.com/evyataryagoni/geodbsync/internal/models"
)

// RateLimitMiddleware enforces a per-client quota and answers 429 when it
// is exceeded. m may be nil.
func RateLimitMiddleware(lim limiter.Limiter, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow(r.Context(), clientKey(r)) {
				if m != nil {
					m.RateLimitedTotal.Inc()
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(models.ErrorResponse{
					Error: "Rate limit exceeded. Please try again later.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies the caller.
// Priority: X-Real-IP > first X-Forwarded-For entry > RemoteAddr host
func clientKey(r *http.Request) string {
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
