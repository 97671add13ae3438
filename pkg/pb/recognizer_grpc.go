// Package pb holds the wire contract of the OCR recognizer service.
//
// The service carries well-known wrapper messages, so no generated message
// code is needed: the request is a google.protobuf.BytesValue holding an
// encoded image and the response a google.protobuf.StringValue with the
// recognized text. The language set travels in the LanguagesKey metadata.
package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	RecognizerServiceName     = "screenocr.v1.Recognizer"
	RecognizerRecognizeMethod = "/screenocr.v1.Recognizer/Recognize"

	// LanguagesKey is the metadata key carrying a tesseract language spec,
	// e.g. "chi_sim+eng".
	LanguagesKey = "x-ocr-languages"
)

// RecognizerClient is the client API for the Recognizer service.
type RecognizerClient interface {
	Recognize(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
}

type recognizerClient struct {
	cc grpc.ClientConnInterface
}

func NewRecognizerClient(cc grpc.ClientConnInterface) RecognizerClient {
	return &recognizerClient{cc}
}

func (c *recognizerClient) Recognize(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, RecognizerRecognizeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RecognizerServer is the server API for the Recognizer service.
type RecognizerServer interface {
	Recognize(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
}

// UnimplementedRecognizerServer can be embedded for forward compatibility.
type UnimplementedRecognizerServer struct{}

func (UnimplementedRecognizerServer) Recognize(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Recognize not implemented")
}

func RegisterRecognizerServer(s grpc.ServiceRegistrar, srv RecognizerServer) {
	s.RegisterService(&Recognizer_ServiceDesc, srv)
}

func _Recognizer_Recognize_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecognizerServer).Recognize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: RecognizerRecognizeMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RecognizerServer).Recognize(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Recognizer_ServiceDesc is the grpc.ServiceDesc for the Recognizer service.
var Recognizer_ServiceDesc = grpc.ServiceDesc{
	ServiceName: RecognizerServiceName,
	HandlerType: (*RecognizerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Recognize",
			Handler:    _Recognizer_Recognize_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "screenocr/v1/recognizer.proto",
}
