package trace

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestNew(t *testing.T) {
	tc := New()
	if len(tc.TraceID) != 32 || len(tc.SpanID) != 16 {
		t.Errorf("ids = %q/%q, want 32/16 hex chars", tc.TraceID, tc.SpanID)
	}
	if tc.ParentSpanID != "" {
		t.Error("new trace should not have a parent")
	}
	if New().TraceID == tc.TraceID {
		t.Error("trace ids should be unique")
	}
}

func TestChild(t *testing.T) {
	parent := New()
	child := parent.Child()

	if child.TraceID != parent.TraceID {
		t.Error("child should inherit trace ID")
	}
	if child.SpanID == parent.SpanID || child.ParentSpanID != parent.SpanID {
		t.Errorf("child = %+v, parent = %+v", child, parent)
	}
}

func TestEnsure(t *testing.T) {
	ctx, tc := Ensure(context.Background())
	if !tc.Valid() {
		t.Fatal("Ensure should create a trace")
	}
	_, again := Ensure(ctx)
	if again != tc {
		t.Errorf("Ensure = %+v, want existing %+v", again, tc)
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Error("empty context should carry no trace")
	}
}

func TestFromRemote(t *testing.T) {
	tc := FromRemote("abc", "def")
	if tc.TraceID != "abc" || tc.ParentSpanID != "def" || tc.SpanID == "def" {
		t.Errorf("FromRemote = %+v", tc)
	}
	if tc := FromRemote("", "def"); len(tc.TraceID) != 32 || tc.ParentSpanID != "" {
		t.Errorf("FromRemote without trace = %+v", tc)
	}
}

func TestSpan(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "capture_pass")
	_, child := StartSpan(ctx, "recognize")

	if child.Ctx.TraceID != parent.Ctx.TraceID || child.Ctx.ParentSpanID != parent.Ctx.SpanID {
		t.Errorf("child %+v not nested under %+v", child.Ctx, parent.Ctx)
	}
	if parent.Duration() != 0 {
		t.Error("open span should report zero duration")
	}

	parent.Set("targets", 3)
	first := parent.End()
	if second := parent.End(); second != first {
		t.Errorf("End twice = %v then %v", first, second)
	}

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("done", "span", parent)
	out := buf.String()
	if !strings.Contains(out, "span.name=capture_pass") || !strings.Contains(out, "span.targets=3") {
		t.Errorf("log output = %q", out)
	}
}

func TestInjectExtract(t *testing.T) {
	tc := New()
	ctx := Inject(WithContext(context.Background(), tc))

	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		t.Fatal("no outgoing metadata")
	}
	in := metadata.NewIncomingContext(context.Background(), md)
	got := Extract(in)
	if got.TraceID != tc.TraceID || got.ParentSpanID != tc.SpanID {
		t.Errorf("Extract = %+v, want continuation of %+v", got, tc)
	}
}

func TestInjectKeepsExistingMetadata(t *testing.T) {
	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-ocr-languages", "eng")
	md, _ := metadata.FromOutgoingContext(Inject(ctx))
	if md.Get("x-ocr-languages")[0] != "eng" || len(md.Get(TraceIDKey)) != 1 {
		t.Errorf("metadata = %v", md)
	}
}

func TestUnaryServerInterceptor(t *testing.T) {
	caller := New()
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(TraceIDKey, caller.TraceID, SpanIDKey, caller.SpanID))

	var seen Context
	handler := func(ctx context.Context, _ any) (any, error) {
		seen, _ = FromContext(ctx)
		return "ok", nil
	}
	resp, err := UnaryServerInterceptor()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/test/Method"}, handler)
	if err != nil || resp != "ok" {
		t.Fatalf("interceptor = %v, %v", resp, err)
	}
	if seen.TraceID != caller.TraceID || seen.ParentSpanID != caller.SpanID {
		t.Errorf("handler saw %+v", seen)
	}
}

func TestLogger(t *testing.T) {
	if Logger(context.Background()) != slog.Default() {
		t.Error("untraced context should use the default logger")
	}
	Logger(WithContext(context.Background(), New())).Debug("traced")
}
