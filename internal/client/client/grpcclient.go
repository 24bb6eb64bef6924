package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/maillist/internal/common"
	pb "github.com/dmitrijs2005/maillist/internal/proto"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      pb.SubscriptionsClient
}

var _ Client = (*GRPCClient)(nil)

func NewMaillistClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(requestIDInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewSubscriptionsClient(conn)
	return nil
}

// requestIDInterceptor stamps every outgoing call with a fresh x-request-id
// so client and server logs can be correlated.
func requestIDInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	ctx = metadata.AppendToOutgoingContext(ctx, common.RequestIDHeader, uuid.NewString())
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (s *GRPCClient) Signup(ctx context.Context, email string) (pb.Reply, error) {
	return s.call(ctx, s.client.Signup, pb.NewEmailRequest(email))
}

func (s *GRPCClient) Verify(ctx context.Context, email, code string) (pb.Reply, error) {
	return s.call(ctx, s.client.Verify, pb.NewVerifyRequest(email, code))
}

func (s *GRPCClient) Unsubscribe(ctx context.Context, email string) (pb.Reply, error) {
	return s.call(ctx, s.client.Unsubscribe, pb.NewEmailRequest(email))
}

type rpc func(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)

func (s *GRPCClient) call(ctx context.Context, method rpc, req *structpb.Struct) (pb.Reply, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := method(ctx, req)
	if err != nil {
		return pb.Reply{}, s.mapError(err)
	}
	return pb.ReplyFromStruct(resp), nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
