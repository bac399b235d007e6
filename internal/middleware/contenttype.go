package middleware

import (
	"net/http"
	"strings"
)

// ContentType requires a JSON Content-Type on POST, PUT and PATCH requests
// that carry a body. Action endpoints such as submit and delete confirm are
// POSTed without a body and pass through.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasBody := r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody
		if !hasBody || (r.Method != http.MethodPost && r.Method != http.MethodPatch && r.Method != http.MethodPut) {
			next.ServeHTTP(w, r)
			return
		}

		contentType := r.Header.Get("Content-Type")
		switch {
		case contentType == "":
			writeError(w, r, http.StatusBadRequest, "Bad Request", "Content-Type header is required")
		case !strings.HasPrefix(strings.ToLower(contentType), "application/json"):
			writeError(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type", "Content-Type must be application/json")
		default:
			next.ServeHTTP(w, r)
		}
	})
}
