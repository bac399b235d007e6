package logger

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestSanitizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain", in: "/api/v1/drafts/abc", want: "/api/v1/drafts/abc"},
		{name: "control characters removed", in: "/api/\x00v1\x1b/drafts", want: "/api/v1/drafts"},
		{name: "invalid utf8 dropped", in: "/api/\xff\xfev1", want: "/api/v1"},
		{name: "truncated", in: "/" + strings.Repeat("a", MaxPathLength+10), want: "/" + strings.Repeat("a", MaxPathLength-1) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizePath(tt.in); got != tt.want {
				t.Errorf("SanitizePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	if got := SanitizeString("abc\u0007def", 0); got != "abcdef" {
		t.Errorf("Expected control character removed, got %q", got)
	}
	if got := SanitizeString("abcdef", 3); got != "abc..." {
		t.Errorf("Expected truncation, got %q", got)
	}
	if got := SanitizeIdentifier(strings.Repeat("x", MaxIdentifierLength+1)); len(got) != MaxIdentifierLength+3 {
		t.Errorf("Expected identifier truncated to %d chars, got %d", MaxIdentifierLength, len(got))
	}
	if got := SanitizeDocument("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"); got != "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n" {
		t.Errorf("Expected line endings kept, got %q", got)
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if got := SanitizeError(nil); got != "" {
		t.Errorf("Expected empty string for nil error, got %q", got)
	}
	if got := SanitizeError(errors.New("failed\x00 to save")); got != "failed to save" {
		t.Errorf("Expected sanitized error, got %q", got)
	}
}

func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	for _, debug := range []bool{true, false} {
		log, err := NewProductionLogger("pimtask-test", debug)
		if err != nil {
			t.Fatalf("NewProductionLogger(%v) failed: %v", debug, err)
		}
		if got := log.Core().Enabled(zapcore.DebugLevel); got != debug {
			t.Errorf("Expected debug level enabled=%v, got %v", debug, got)
		}
	}
	if err := Sync(nil); err != nil {
		t.Errorf("Expected Sync(nil) to be a no-op, got %v", err)
	}
}

func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	log, err := NewDevelopmentLogger(false)
	if err != nil {
		t.Fatalf("NewDevelopmentLogger failed: %v", err)
	}
	if log.Core().Enabled(zapcore.InfoLevel) {
		t.Error("Expected info entries to be dropped outside debug mode")
	}
	if !log.Core().Enabled(zapcore.WarnLevel) {
		t.Error("Expected warnings to be logged")
	}

	log, err = NewDevelopmentLogger(true)
	if err != nil {
		t.Fatalf("NewDevelopmentLogger failed: %v", err)
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected debug entries in debug mode")
	}
}
