// Package proto declares the maillist.v1.Subscriptions gRPC service. Messages
// are google.protobuf.Struct values, so no generated code is needed; this
// file plays the role of the usual *_grpc.pb.go.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "maillist.v1.Subscriptions"

const (
	Subscriptions_Signup_FullMethodName      = "/maillist.v1.Subscriptions/Signup"
	Subscriptions_Verify_FullMethodName      = "/maillist.v1.Subscriptions/Verify"
	Subscriptions_Unsubscribe_FullMethodName = "/maillist.v1.Subscriptions/Unsubscribe"
)

// SubscriptionsClient is the client API for the Subscriptions service.
type SubscriptionsClient interface {
	Signup(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Verify(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Unsubscribe(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type subscriptionsClient struct {
	cc grpc.ClientConnInterface
}

func NewSubscriptionsClient(cc grpc.ClientConnInterface) SubscriptionsClient {
	return &subscriptionsClient{cc}
}

func (c *subscriptionsClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *subscriptionsClient) Signup(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Subscriptions_Signup_FullMethodName, in, opts...)
}

func (c *subscriptionsClient) Verify(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Subscriptions_Verify_FullMethodName, in, opts...)
}

func (c *subscriptionsClient) Unsubscribe(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Subscriptions_Unsubscribe_FullMethodName, in, opts...)
}

// SubscriptionsServer is the server API for the Subscriptions service.
type SubscriptionsServer interface {
	Signup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Verify(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Unsubscribe(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterSubscriptionsServer(s grpc.ServiceRegistrar, srv SubscriptionsServer) {
	s.RegisterService(&Subscriptions_ServiceDesc, srv)
}

type methodFunc func(SubscriptionsServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call methodFunc) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SubscriptionsServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(SubscriptionsServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Subscriptions_ServiceDesc is the grpc.ServiceDesc for the Subscriptions service.
var Subscriptions_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SubscriptionsServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Signup",
			Handler:    unaryHandler(Subscriptions_Signup_FullMethodName, SubscriptionsServer.Signup),
		},
		{
			MethodName: "Verify",
			Handler:    unaryHandler(Subscriptions_Verify_FullMethodName, SubscriptionsServer.Verify),
		},
		{
			MethodName: "Unsubscribe",
			Handler:    unaryHandler(Subscriptions_Unsubscribe_FullMethodName, SubscriptionsServer.Unsubscribe),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "maillist/v1/subscriptions.proto",
}
