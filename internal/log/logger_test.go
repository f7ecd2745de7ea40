package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNew_JSONFormatAndComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentDashboard, Format: "json", Output: &buf})

	l.Info("reloaded", FieldRows, 3)
	l.Debug("hidden")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0][FieldComponent] != ComponentDashboard || lines[0][FieldRows] != float64(3) {
		t.Fatalf("unexpected fields: %v", lines[0])
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Output: &buf}).WithComponent(ComponentWorker)
	l.Warn("requeued")
	lines := decodeLines(t, &buf)
	if lines[0][FieldComponent] != ComponentWorker {
		t.Fatalf("component = %v", lines[0][FieldComponent])
	}
}

func TestStructuredLogger_RecordsAndErrors(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
	ctx := context.Background()

	sl.LogRecordsCreated(ctx, []core.Record{{
		ID:                "r1",
		SaleDate:          time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		CompanyName:       "FOUR N",
		AggregateType:     core.TypeS1,
		AggregateQuantity: decimal.NewFromInt(2),
		Amount:            decimal.NewFromInt(1400),
		PaymentType:       core.Cash,
	}})
	sl.LogError(ctx, "store failed", errors.New("boom"), ComponentStorage, OpUpdate, NewFields().WithRecordID("r1"))

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0][FieldAmount] != "1400.00" || lines[0][FieldCompany] != "FOUR N" {
		t.Fatalf("unexpected record fields: %v", lines[0])
	}
	if lines[1][FieldError] != "boom" || lines[1][FieldOperation] != OpUpdate || lines[1]["level"] != "ERROR" {
		t.Fatalf("unexpected error fields: %v", lines[1])
	}
}

func TestMiddleware_FromContext(t *testing.T) {
	l := New(Config{Component: ComponentHTTP, Output: &bytes.Buffer{}})
	var got *Logger
	h := Middleware(l)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("logger not propagated: %+v", got)
	}
	if FromContext(context.Background()).Component() != ComponentApp {
		t.Fatal("expected default logger outside a request")
	}
}
