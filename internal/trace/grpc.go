package trace

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryClientInterceptor sends the caller's trace ids with every call.
func UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(Inject(ctx), method, req, reply, cc, opts...)
	}
}

// UnaryServerInterceptor continues the caller's trace and logs each call.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		tc := Extract(ctx)
		ctx = WithContext(ctx, tc)

		start := time.Now()
		resp, err := handler(ctx, req)
		log := Logger(ctx).With("method", info.FullMethod, "duration", time.Since(start))
		if err != nil {
			log.Warn("rpc failed", "code", status.Code(err), "error", err)
		} else {
			log.Debug("rpc served")
		}
		return resp, err
	}
}

// Inject copies ctx's trace ids into outgoing metadata, starting a trace if
// ctx has none.
func Inject(ctx context.Context) context.Context {
	ctx, tc := Ensure(ctx)
	md, ok := metadata.FromOutgoingContext(ctx)
	if ok {
		md = md.Copy()
	} else {
		md = metadata.MD{}
	}
	md.Set(TraceIDKey, tc.TraceID)
	md.Set(SpanIDKey, tc.SpanID)
	if tc.ParentSpanID != "" {
		md.Set(ParentSpanIDKey, tc.ParentSpanID)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

// Extract reads trace ids from incoming metadata.
func Extract(ctx context.Context) Context {
	md, _ := metadata.FromIncomingContext(ctx)
	first := func(key string) string {
		if v := md.Get(key); len(v) > 0 {
			return v[0]
		}
		return ""
	}
	tc := FromRemote(first(TraceIDKey), first(SpanIDKey))
	if tc.ParentSpanID == "" {
		slog.Debug("incoming call without trace metadata")
	}
	return tc
}
