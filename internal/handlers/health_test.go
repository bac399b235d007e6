package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthChecker(t *testing.T) {
	t.Parallel()

	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		mode       string
		checks     map[string]CheckFunc
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "basic mode skips checks",
			checks:     map[string]CheckFunc{"database": down},
			wantStatus: http.StatusOK,
		},
		{
			name:       "extended all healthy",
			mode:       "extended",
			checks:     map[string]CheckFunc{"database": ok, "redis": ok, "queue": nil},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"database": "healthy", "redis": "healthy"},
		},
		{
			name:       "extended with failure",
			mode:       "extended",
			checks:     map[string]CheckFunc{"database": ok, "redis": down},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"database": "healthy", "redis": "unhealthy: connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			url := "/healthz"
			if tt.mode != "" {
				url += "?mode=" + tt.mode
			}
			w := httptest.NewRecorder()
			NewHealthChecker(tt.checks, nil).HealthCheck(w, httptest.NewRequest(http.MethodGet, url, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var body HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if len(body.Checks) != len(tt.wantChecks) {
				t.Fatalf("Expected checks %v, got %v", tt.wantChecks, body.Checks)
			}
			for name, want := range tt.wantChecks {
				if body.Checks[name] != want {
					t.Errorf("Expected %s=%q, got %q", name, want, body.Checks[name])
				}
			}
		})
	}
}
