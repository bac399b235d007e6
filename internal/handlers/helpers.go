package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	logpkg "github.com/benvon/pimtask/internal/logger"
)

// maxErrorMessageLength bounds messages echoed back to clients
const maxErrorMessageLength = 200

// envelope wraps every API response
type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	body.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are sent; a failed encode cannot change the response any more.
	_ = json.NewEncoder(w).Encode(body)
}

// respondJSON sends data in a success envelope
func respondJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, envelope{Success: true, Data: data})
}

// respondJSONError sends an error envelope. message is echoed to the
// client, so it is stripped of control characters and truncated.
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	writeEnvelope(w, status, envelope{Error: errorType, Message: sanitizeErrorMessage(message)})
}

func sanitizeErrorMessage(message string) string {
	return logpkg.SanitizeString(message, maxErrorMessageLength)
}
