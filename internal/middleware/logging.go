package middleware

import (
	"net/http"
	"time"

	"github.com/evyataryagoni/geodbsync/internal/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// LoggingMiddleware logs one structured line per completed request.
// Must run after chi's RequestID middleware.
func LoggingMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			reqLog := log.WithRequestID(middleware.GetReqID(r.Context()))

			next.ServeHTTP(ww, r)

			level := zerolog.InfoLevel
			switch {
			case ww.Status() >= 500:
				level = zerolog.ErrorLevel
			case ww.Status() >= 400:
				level = zerolog.WarnLevel
			case r.URL.Path == "/health" || r.URL.Path == "/metrics":
				level = zerolog.DebugLevel
			}

			reqLog.WithLevel(level).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Str("user_agent", r.UserAgent()).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration_ms", time.Since(start)).
				Msg("Request completed")
		})
	}
}
