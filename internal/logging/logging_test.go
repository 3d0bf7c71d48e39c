package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestContextWithLogger(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)
	ctx := ContextWithLogger(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Fatalf("expected logger from context")
	}
	if got := FromContext(context.Background()); got != nil {
		t.Fatalf("expected nil logger for bare context, got %v", got)
	}
	if got := ContextWithLogger(ctx, nil); got != ctx {
		t.Fatalf("expected nil logger to leave context unchanged")
	}
}

func TestTraceHandlerAddsSpanIDs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(Options{Production: true, Output: &buf})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	logger.With("service", "test").InfoContext(ctx, "hello")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output: %v (%s)", err, buf.String())
	}
	if record["trace_id"] != traceID.String() || record["span_id"] != spanID.String() {
		t.Fatalf("expected trace attributes, got %v", record)
	}
	if record["service"] != "test" {
		t.Fatalf("expected WithAttrs to be preserved, got %v", record)
	}
}

func TestTraceHandlerWithoutSpan(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(Options{Production: true, Output: &buf})
	logger.Debug("hidden")
	logger.Info("shown")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected a single JSON record: %v (%s)", err, buf.String())
	}
	if _, ok := record["trace_id"]; ok {
		t.Fatalf("expected no trace_id without span, got %v", record)
	}
}

func TestComponentTagsRecords(t *testing.T) {
	t.Parallel()

	var fallbackBuf, ctxBuf bytes.Buffer
	fallback := slog.New(slog.NewJSONHandler(&fallbackBuf, nil))
	Component(context.Background(), fallback, "service", "TaskService", "CreateTask", "task_id", "task-1").Info("created")

	var record map[string]any
	if err := json.Unmarshal(fallbackBuf.Bytes(), &record); err != nil {
		t.Fatalf("failed to decode record: %v", err)
	}
	if record["service"] != "TaskService" || record["operation"] != "CreateTask" || record["task_id"] != "task-1" {
		t.Fatalf("unexpected attributes: %v", record)
	}

	ctx := ContextWithLogger(context.Background(), slog.New(slog.NewJSONHandler(&ctxBuf, nil)))
	Component(ctx, fallback, "handler", "TaskHandler", "").Info("listed")
	if ctxBuf.Len() == 0 {
		t.Fatal("expected the context logger to receive the record")
	}
	if bytes.Contains(ctxBuf.Bytes(), []byte(`"operation"`)) {
		t.Fatalf("expected empty operation to be omitted, got %s", ctxBuf.String())
	}
}

func TestOrDefault(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.DiscardHandler)
	if OrDefault(custom) != custom {
		t.Fatal("expected custom logger")
	}
	if OrDefault(nil) != slog.Default() {
		t.Fatal("expected slog.Default for nil")
	}
}
