package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"

	apperrors "github.com/x-itg/ocr/internal/errors"
	"github.com/x-itg/ocr/internal/ocr"
	"github.com/x-itg/ocr/internal/trace"
	pb "github.com/x-itg/ocr/pkg/pb"
)

// Server implements pb.RecognizerServer on top of a local recognizer.
type Server struct {
	pb.UnimplementedRecognizerServer

	rec   ocr.Recognizer
	langs []string
}

// New serves rec. Requests without a language header use langs.
func New(rec ocr.Recognizer, langs []string) *Server {
	return &Server{rec: rec, langs: langs}
}

// NewGRPCServer builds a grpc.Server with tracing and keepalive policy and
// registers s on it.
func NewGRPCServer(s *Server, opts ...grpc.ServerOption) *grpc.Server {
	base := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(trace.UnaryServerInterceptor()),
		grpc.MaxRecvMsgSize(MaxImageBytes + 1024),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             MinClientPingInterval,
			PermitWithoutStream: true,
		}),
	}
	g := grpc.NewServer(append(base, opts...)...)
	pb.RegisterRecognizerServer(g, s)
	return g
}

func (s *Server) Recognize(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	img := in.GetValue()
	if len(img) == 0 {
		return nil, apperrors.New(apperrors.CodeOCRInvalidImage, "empty image")
	}
	if len(img) > MaxImageBytes {
		return nil, apperrors.Newf(apperrors.CodeOCRInvalidImage, "image of %d bytes exceeds %d", len(img), MaxImageBytes)
	}

	ctx, cancel := context.WithTimeout(ctx, RecognizeTimeout)
	defer cancel()

	langs := s.languages(ctx)
	text, err := s.rec.Recognize(ctx, img, langs)
	if err != nil {
		trace.Logger(ctx).Warn("recognize failed", "bytes", len(img), "languages", ocr.LanguageSpec(langs), "error", err)
		return nil, toAppError(err)
	}
	trace.Logger(ctx).Debug("recognized", "bytes", len(img), "chars", len(text))
	return wrapperspb.String(strings.TrimSpace(text)), nil
}

func (s *Server) languages(ctx context.Context) []string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return s.langs
	}
	for _, v := range md.Get(pb.LanguagesKey) {
		if langs := ocr.ParseLanguageSpec(v); len(langs) > 0 {
			return langs
		}
	}
	return s.langs
}

// toAppError keeps engine error codes and classifies anything else.
func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(err, apperrors.CodeTimeout, "recognize timed out")
	case errors.Is(err, context.Canceled):
		return apperrors.Wrap(err, apperrors.CodeCancelled, "recognize cancelled")
	}
	slog.Debug("unclassified recognizer error", "error", err)
	return apperrors.Wrap(err, apperrors.CodeOCRExtractFailed, "recognize")
}
