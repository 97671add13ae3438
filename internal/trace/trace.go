// Package trace tags capture passes and OCR calls with W3C-style trace and
// span ids so a slow or failing reading can be followed through the logs.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"
)

// gRPC metadata keys.
const (
	TraceIDKey      = "x-trace-id"
	SpanIDKey       = "x-span-id"
	ParentSpanIDKey = "x-parent-span-id"
)

type ctxKey struct{}

// Context identifies one span of a trace.
type Context struct {
	TraceID      string
	SpanID       string
	ParentSpanID string
}

// New starts a fresh trace.
func New() Context {
	return Context{TraceID: randomHex(16), SpanID: randomHex(8)}
}

// Child returns a new span in the same trace.
func (c Context) Child() Context {
	return Context{TraceID: c.TraceID, SpanID: randomHex(8), ParentSpanID: c.SpanID}
}

func (c Context) Valid() bool { return c.TraceID != "" }

func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(ctxKey{}).(Context)
	return tc, ok
}

func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// Ensure returns ctx's trace, attaching a new one if there is none.
func Ensure(ctx context.Context) (context.Context, Context) {
	if tc, ok := FromContext(ctx); ok {
		return ctx, tc
	}
	tc := New()
	return WithContext(ctx, tc), tc
}

// FromRemote continues a trace received from a peer: the peer's span becomes
// the parent of a new local span.
func FromRemote(traceID, spanID string) Context {
	if traceID == "" {
		return New()
	}
	return Context{TraceID: traceID, SpanID: randomHex(8), ParentSpanID: spanID}
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Attrs returns the ids as slog attributes.
func (c Context) Attrs() []any {
	args := []any{"trace_id", c.TraceID, "span_id", c.SpanID}
	if c.ParentSpanID != "" {
		args = append(args, "parent_span_id", c.ParentSpanID)
	}
	return args
}

// Span times one operation.
type Span struct {
	Name  string
	Ctx   Context
	Start time.Time

	mu    sync.Mutex
	end   time.Time
	attrs []slog.Attr
}

// StartSpan opens a span under ctx's trace, or a new trace.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	tc := New()
	if parent, ok := FromContext(ctx); ok && parent.Valid() {
		tc = parent.Child()
	}
	s := &Span{Name: name, Ctx: tc, Start: time.Now()}
	return WithContext(ctx, tc), s
}

// Set records an attribute reported when the span is logged.
func (s *Span) Set(key string, val any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, slog.Any(key, val))
	s.mu.Unlock()
}

// End closes the span and returns its duration. Calling End twice keeps the
// first end time.
func (s *Span) End() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.end.IsZero() {
		s.end = time.Now()
	}
	return s.end.Sub(s.Start)
}

func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.end.IsZero() {
		return 0
	}
	return s.end.Sub(s.Start)
}

// LogValue implements slog.LogValuer.
func (s *Span) LogValue() slog.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	attrs := []slog.Attr{
		slog.String("name", s.Name),
		slog.String("trace_id", s.Ctx.TraceID),
		slog.String("span_id", s.Ctx.SpanID),
	}
	if !s.end.IsZero() {
		attrs = append(attrs, slog.Duration("duration", s.end.Sub(s.Start)))
	}
	attrs = append(attrs, s.attrs...)
	return slog.GroupValue(attrs...)
}

// Logger returns the default logger annotated with ctx's trace, if any.
func Logger(ctx context.Context) *slog.Logger {
	tc, ok := FromContext(ctx)
	if !ok {
		return slog.Default()
	}
	return slog.Default().With(tc.Attrs()...)
}
