package grpcclient

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"

	apperrors "github.com/x-itg/ocr/internal/errors"
	"github.com/x-itg/ocr/internal/ocr"
	"github.com/x-itg/ocr/internal/resilience"
	"github.com/x-itg/ocr/internal/trace"
	pb "github.com/x-itg/ocr/pkg/pb"
)

// Client sends region images to a Recognizer service. Calls are retried with
// backoff and guarded by a circuit breaker so a dead server costs the capture
// loop little.
type Client struct {
	conn    *grpc.ClientConn
	rpc     pb.RecognizerClient
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
	timeout time.Duration
}

var _ ocr.Recognizer = (*Client)(nil)

// New connects lazily to addr; extra dial options are appended to the defaults.
func New(addr string, opts ...grpc.DialOption) (*Client, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                DefaultKeepaliveTime,
			Timeout:             DefaultKeepaliveTimeout,
			PermitWithoutStream: true,
		}),
		grpc.WithChainUnaryInterceptor(trace.UnaryClientInterceptor()),
	}
	conn, err := grpc.NewClient(addr, append(base, opts...)...)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeOCRInitFailed, "dial %s", addr)
	}
	return &Client{
		conn:    conn,
		rpc:     pb.NewRecognizerClient(conn),
		breaker: resilience.New("ocr/"+addr, resilience.RemoteConfig()),
		retry:   resilience.OCRRetryConfig(),
		timeout: DefaultCallTimeout,
	}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Breaker exposes the circuit breaker state for status displays.
func (c *Client) Breaker() *resilience.Breaker { return c.breaker }

// Ready waits briefly for the connection to become usable.
func (c *Client) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ReadyTimeout)
	defer cancel()

	c.conn.Connect()
	for {
		s := c.conn.GetState()
		if s == connectivity.Ready {
			return nil
		}
		if !c.conn.WaitForStateChange(ctx, s) {
			return apperrors.Newf(apperrors.CodeUnavailable, "ocr service not ready (state %s)", s)
		}
	}
}

// Recognize implements ocr.Recognizer.
func (c *Client) Recognize(ctx context.Context, img []byte, langs []string) (string, error) {
	if err := c.breaker.Allow(); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeUnavailable, "ocr service circuit open")
	}

	ctx, span := trace.StartSpan(ctx, "remote_recognize")
	defer span.End()
	span.Set("bytes", len(img))
	if len(langs) > 0 {
		ctx = metadata.AppendToOutgoingContext(ctx, pb.LanguagesKey, ocr.LanguageSpec(langs))
	}

	var text string
	err := resilience.Retry(ctx, c.retry, func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		resp, err := c.rpc.Recognize(callCtx, wrapperspb.Bytes(img))
		if err != nil {
			return apperrors.FromGRPCError(err)
		}
		text = resp.GetValue()
		return nil
	})

	switch {
	case err == nil:
		c.breaker.Success()
		return text, nil
	case apperrors.IsRetryable(asAppError(err)):
		// Only server-side trouble counts against the breaker.
		c.breaker.Failure()
	default:
		c.breaker.Success()
	}
	trace.Logger(ctx).Debug("remote recognize failed", "span", span, "error", err)
	return "", err
}

func asAppError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return err
}
