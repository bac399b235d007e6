package telemetry

import (
	"context"
	"testing"
	"time"
)

// The OTLP HTTP exporter connects lazily, so these tests need no collector.

func TestInitTracer(t *testing.T) {
	for _, service := range []string{ServerServiceName, WorkerServiceName, ""} {
		t.Run("service="+service, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tp, err := InitTracer(ctx, service, "localhost:4318")
			if err != nil {
				t.Fatalf("InitTracer() error = %v", err)
			}
			if err := Shutdown(ctx, tp); err != nil {
				t.Errorf("Shutdown() error = %v", err)
			}
		})
	}
}

func TestShutdown_NilProvider(t *testing.T) {
	if err := Shutdown(context.Background(), nil); err != nil {
		t.Errorf("Shutdown(nil) should be a no-op, got %v", err)
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		endpoint string
	}{
		{name: "disabled", enabled: false, endpoint: "localhost:4318"},
		{name: "enabled without endpoint", enabled: true, endpoint: ""},
		{name: "enabled", enabled: true, endpoint: "localhost:4318"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			shutdown := Setup(ctx, tt.enabled, ServerServiceName, tt.endpoint, nil)
			if shutdown == nil {
				t.Fatal("Expected a shutdown func")
			}
			if err := shutdown(ctx); err != nil {
				t.Errorf("shutdown() error = %v", err)
			}
		})
	}
}
