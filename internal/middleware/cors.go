package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// DefaultAllowedOrigin is used when no origins are configured
const DefaultAllowedOrigin = "http://localhost:3000"

// CORS returns middleware answering preflight requests and setting CORS
// headers for the allowed origins.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{DefaultAllowedOrigin}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		MaxAge:           86400,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler
}
