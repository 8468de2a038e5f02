// Package payment carries card-authorization requests to the external
// payment service over gRPC. The service has exactly one unary method, so the
// wire types and service descriptor are maintained by hand with a JSON codec
// instead of generated message code.
package payment

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	// CodecName is the gRPC content-subtype both sides negotiate.
	CodecName = "json"

	serviceName     = "tradepost.payment.v1.Authorization"
	authorizeMethod = "/" + serviceName + "/Authorize"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

// AuthorizeRequest is one card-authorization attempt.
type AuthorizeRequest struct {
	HolderName string `json:"holder_name"`
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

// AuthorizeResponse is the service's verdict. Reason is informational and
// only set on declines.
type AuthorizeResponse struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// AuthorizationServer is the server side of the authorization service.
type AuthorizationServer interface {
	Authorize(ctx context.Context, req *AuthorizeRequest) (*AuthorizeResponse, error)
}

// RegisterAuthorizationServer attaches srv to a gRPC server.
func RegisterAuthorizationServer(reg grpc.ServiceRegistrar, srv AuthorizationServer) {
	reg.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*AuthorizationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Authorize", Handler: authorizeHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func authorizeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AuthorizeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthorizationServer).Authorize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: authorizeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthorizationServer).Authorize(ctx, req.(*AuthorizeRequest))
	}
	return interceptor(ctx, in, info, handler)
}
