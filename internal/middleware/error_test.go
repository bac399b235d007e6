package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecover(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantJSON   bool
	}{
		{
			name: "no panic passes through",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "string panic",
			handler: func(w http.ResponseWriter, r *http.Request) {
				panic("cascade exploded")
			},
			wantStatus: http.StatusInternalServerError,
			wantJSON:   true,
		},
		{
			name: "runtime error panic",
			handler: func(w http.ResponseWriter, r *http.Request) {
				var tags map[string]bool
				tags["home"] = true
			},
			wantStatus: http.StatusInternalServerError,
			wantJSON:   true,
		},
		{
			name: "error value panic",
			handler: func(w http.ResponseWriter, r *http.Request) {
				panic(errors.New("store vanished"))
			},
			wantStatus: http.StatusInternalServerError,
			wantJSON:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts/abc/submit", nil)
			rr := httptest.NewRecorder()
			Recover(nil)(tt.handler).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if !tt.wantJSON {
				return
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected JSON content type, got %q", ct)
			}
			var body ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if body.Success || body.Error != "Internal Server Error" || body.Message != "An unexpected error occurred" {
				t.Errorf("Unexpected error body: %+v", body)
			}
			if body.Path != "/api/v1/drafts/abc/submit" || body.Timestamp == "" {
				t.Errorf("Expected path and timestamp, got %+v", body)
			}
		})
	}
}

func TestRecover_AbortHandlerIsReraised(t *testing.T) {
	t.Parallel()

	handler := Recover(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("Expected http.ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	t.Error("Expected panic to propagate")
}
