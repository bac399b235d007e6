package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		method        string
		path          string
		handlerStatus int
		wantLevel     zapcore.Level
	}{
		{
			name:          "GET request",
			method:        http.MethodGet,
			path:          "/api/v1/collections",
			handlerStatus: http.StatusOK,
			wantLevel:     zapcore.InfoLevel,
		},
		{
			name:          "submit rejected",
			method:        http.MethodPost,
			path:          "/api/v1/drafts/abc/submit",
			handlerStatus: http.StatusUnprocessableEntity,
			wantLevel:     zapcore.InfoLevel,
		},
		{
			name:          "store failure",
			method:        http.MethodPost,
			path:          "/api/v1/drafts/abc/submit",
			handlerStatus: http.StatusBadGateway,
			wantLevel:     zapcore.WarnLevel,
		},
		{
			name:          "health probe",
			method:        http.MethodGet,
			path:          HealthPath,
			handlerStatus: http.StatusOK,
			wantLevel:     zapcore.DebugLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.DebugLevel)
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
			})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			Logging(zap.New(core))(handler).ServeHTTP(w, req)

			if w.Code != tt.handlerStatus {
				t.Errorf("Expected status %d, got %d", tt.handlerStatus, w.Code)
			}
			entries := logs.FilterMessage("http_request").All()
			if len(entries) != 1 {
				t.Fatalf("Expected 1 log entry, got %d", len(entries))
			}
			if entries[0].Level != tt.wantLevel {
				t.Errorf("Expected level %s, got %s", tt.wantLevel, entries[0].Level)
			}
			fields := entries[0].ContextMap()
			if fields["path"] != tt.path {
				t.Errorf("Expected path %q, got %v", tt.path, fields["path"])
			}
			if fields["status_code"] != int64(tt.handlerStatus) {
				t.Errorf("Expected status_code %d, got %v", tt.handlerStatus, fields["status_code"])
			}
		})
	}
}

func TestLoggingResponseWriter(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("test")) // Ignore error in test
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	Logging(zap.New(core))(handler).ServeHTTP(w, req)

	fields := logs.All()[0].ContextMap()
	if fields["status_code"] != int64(http.StatusOK) {
		t.Errorf("Expected implicit 200 to be logged, got %v", fields["status_code"])
	}
	if fields["bytes"] != int64(4) {
		t.Errorf("Expected 4 bytes logged, got %v", fields["bytes"])
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded for", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, remote: "10.0.0.1:1234", want: "203.0.113.7"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": " 198.51.100.2 "}, remote: "10.0.0.1:1234", want: "198.51.100.2"},
		{name: "remote addr port stripped", remote: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "remote addr without port", remote: "192.0.2.1", want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
