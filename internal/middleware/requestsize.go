package middleware

import (
	"fmt"
	"net/http"
)

// DefaultMaxRequestSize bounds draft edit bodies. The largest field, a
// description, is capped well below it.
const DefaultMaxRequestSize int64 = 64 << 10

// MaxRequestSize rejects bodies larger than maxBytes. A declared length
// is refused up front; a body without one is cut off while it is read.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeError(w, r, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
					fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytes))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
