package observability

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SpanStatus string

const (
	SpanStatusOK    SpanStatus = "OK"
	SpanStatusError SpanStatus = "ERROR"
)

// Span times one operation. Spans started from a context holding another span
// share its trace id.
type Span struct {
	TraceID   string
	SpanID    string
	ParentID  string
	Operation string
	StartTime time.Time
	Duration  time.Duration
	Status    SpanStatus
	Err       error

	attrs []slog.Attr
}

type spanContextKey struct{}

func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	span := &Span{
		SpanID:    newID(),
		Operation: operation,
		StartTime: time.Now(),
		Status:    SpanStatusOK,
	}

	if parent := GetSpan(ctx); parent != nil {
		span.TraceID = parent.TraceID
		span.ParentID = parent.SpanID
	} else {
		span.TraceID = newID()
	}

	return context.WithValue(ctx, spanContextKey{}, span), span
}

func GetSpan(ctx context.Context) *Span {
	span, _ := ctx.Value(spanContextKey{}).(*Span)
	return span
}

func (s *Span) SetAttr(key string, value any) {
	s.attrs = append(s.attrs, slog.Any(key, value))
}

// SetError marks the span failed. A nil error leaves it untouched.
func (s *Span) SetError(err error) {
	if err == nil {
		return
	}
	s.Status = SpanStatusError
	s.Err = err
}

// End records the duration and writes the span at debug level.
func (s *Span) End(ctx context.Context, logger *slog.Logger) {
	s.Duration = time.Since(s.StartTime)

	attrs := []slog.Attr{
		slog.String("trace_id", s.TraceID),
		slog.String("span_id", s.SpanID),
		slog.String("operation", s.Operation),
		slog.String("status", string(s.Status)),
		slog.Duration("duration", s.Duration),
	}
	if s.ParentID != "" {
		attrs = append(attrs, slog.String("parent_id", s.ParentID))
	}
	attrs = append(attrs, s.attrs...)
	if s.Err != nil {
		attrs = append(attrs, slog.String("error", s.Err.Error()))
	}

	logger.LogAttrs(ctx, slog.LevelDebug, "span finished", attrs...)
}

// Trace runs fn inside a child span of ctx.
func Trace(ctx context.Context, logger *slog.Logger, operation string, fn func(ctx context.Context) error) error {
	ctx, span := StartSpan(ctx, operation)
	err := fn(ctx)
	span.SetError(err)
	span.End(ctx, logger)
	return err
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
