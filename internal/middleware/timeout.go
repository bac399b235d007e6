package middleware

import (
	"net/http"
	"time"
)

// DefaultRequestTimeout covers a submit with both persist calls
const DefaultRequestTimeout = 30 * time.Second

const timeoutBody = `{"success":false,"error":"Service Unavailable","message":"Request timed out"}`

// Timeout answers 503 when a handler runs longer than timeout. The
// handler's context is cancelled, which aborts pending store calls.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}
