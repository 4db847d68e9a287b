package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"ecommerce-dashboard/internal/config"
)

func TestStartSpan_InheritsTrace(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "load tables")
	_, child := StartSpan(ctx, "load profit_product")

	if child.TraceID != parent.TraceID {
		t.Errorf("child trace = %q, want %q", child.TraceID, parent.TraceID)
	}
	if child.ParentID != parent.SpanID {
		t.Errorf("child parent = %q, want %q", child.ParentID, parent.SpanID)
	}
	if len(parent.SpanID) != 16 {
		t.Errorf("span id length = %d, want 16", len(parent.SpanID))
	}
}

func TestSpan_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, span := StartSpan(context.Background(), "view profit")
	span.SetAttr("view", "profit")
	span.SetError(errors.New("table missing"))
	span.End(ctx, logger)

	out := buf.String()
	for _, want := range []string{"span finished", "operation=\"view profit\"", "status=ERROR", "view=profit", "table missing"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, root := StartSpan(context.Background(), "refresh all")
	var inner *Span
	err := Trace(ctx, logger, "view segments", func(ctx context.Context) error {
		inner = GetSpan(ctx)
		return nil
	})
	if err != nil {
		t.Fatalf("Trace() = %v", err)
	}
	if inner == nil || inner.ParentID != root.SpanID {
		t.Fatalf("expected child span of %q, got %+v", root.SpanID, inner)
	}
	if !strings.Contains(buf.String(), "status=OK") {
		t.Errorf("expected OK status: %s", buf.String())
	}

	errBoom := errors.New("boom")
	if err := Trace(ctx, logger, "view profit", func(context.Context) error { return errBoom }); !errors.Is(err, errBoom) {
		t.Errorf("Trace() = %v, want %v", err, errBoom)
	}
}

func TestContextIDs(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithSessionID(ctx, "sess-1")

	if got := GetRequestID(ctx); got != "req-1" {
		t.Errorf("GetRequestID() = %q", got)
	}
	if got := GetSessionID(ctx); got != "sess-1" {
		t.Errorf("GetSessionID() = %q", got)
	}
	if got := GetSessionID(context.Background()); got != "" {
		t.Errorf("GetSessionID() on empty ctx = %q", got)
	}
}

func TestNewLoggerTo_AddsContextIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "debug", Format: "text"})

	ctx := WithSessionID(WithRequestID(context.Background(), "req-9"), "sess-9")
	logger.InfoContext(ctx, "view rendered", "view", "profit")

	out := buf.String()
	for _, want := range []string{"request_id=req-9", "session_id=sess-9", "view=profit"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}

	buf.Reset()
	logger.Info("no request")
	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("unexpected request id without context: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
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
