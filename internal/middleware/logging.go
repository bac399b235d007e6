package middleware

import (
	"net/http"
	"time"

	logpkg "github.com/benvon/pimtask/internal/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// HealthPath is logged at debug level so probes do not flood the log
const HealthPath = "/healthz"

// Logging creates logging middleware
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap ResponseWriter to capture status code
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			level := zapcore.InfoLevel
			switch {
			case r.URL.Path == HealthPath && wrapped.statusCode < http.StatusBadRequest:
				level = zapcore.DebugLevel
			case wrapped.statusCode >= http.StatusInternalServerError:
				level = zapcore.WarnLevel
			}
			logger.Log(level, "http_request",
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("client_ip", logpkg.SanitizeIdentifier(ClientIP(r))),
				zap.Int("status_code", wrapped.statusCode),
				zap.Int("bytes", wrapped.bytes),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	bytes       int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}
