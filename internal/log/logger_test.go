package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentLedger, Output: &buf})

	logger.With(FieldMonth, "2024-03").InfoContext(context.Background(), "Summary computed")
	logger.WithComponent(ComponentStorage).Debug("Row decoded")

	out := buf.String()
	for _, want := range []string{"component=ledger", "month=2024-03", "component=storage", "Row decoded"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})

	logger.Info("quiet")
	logger.Warn("loud")

	if strings.Contains(buf.String(), "quiet") || !strings.Contains(buf.String(), "loud") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
	if logger.Component() != ComponentApp {
		t.Errorf("Component() = %q, want %q", logger.Component(), ComponentApp)
	}
}

func TestContextCarriesLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Output: &buf})

	if got := FromContext(NewContext(context.Background(), logger)); got != logger {
		t.Fatal("FromContext did not return the stored logger")
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext should fall back to the default logger")
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Component: ComponentHTTP, Output: &buf}))
	r := httptest.NewRequest(http.MethodGet, "/api/summary?month=2024-03", nil)

	sl.LogHTTPStart(context.Background(), r, "req_1", "10.0.0.1")
	sl.LogHTTPEnd(context.Background(), r, "req_1", http.StatusInternalServerError, 12)
	sl.LogError(context.Background(), "Summary failed", errors.New("disk"), OpSummary, ErrorTypeStorage, nil)

	out := buf.String()
	for _, want := range []string{
		"HTTP request started", "client_ip=10.0.0.1",
		"level=ERROR", "status_code=500", "success=false", "duration_human=12ms",
		"error_type=storage_error", "operation=summary",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
