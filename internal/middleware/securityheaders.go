package middleware

import (
	"net/http"
	"strings"
)

// apiHeaders are sent on every response. The API only serves JSON and
// YAML documents, so nothing may be framed, sniffed or scripted.
var apiHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"X-XSS-Protection", "1; mode=block"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "camera=(), microphone=(), geolocation=()"},
	{"Content-Security-Policy", "default-src 'none'"},
}

// noStorePrefixes hold per-edit state that must never be served from a cache
var noStorePrefixes = []string{"/api/v1/drafts", "/api/v1/tasks"}

// SecurityHeaders sets security headers on all responses. HSTS is only
// sent when enabled and the request arrived over TLS.
func SecurityHeaders(enableHSTS bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range apiHeaders {
				h.Set(kv[0], kv[1])
			}
			for _, prefix := range noStorePrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					h.Set("Cache-Control", "no-store")
					break
				}
			}
			if enableHSTS && r.TLS != nil {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			}

			next.ServeHTTP(w, r)
		})
	}
}
