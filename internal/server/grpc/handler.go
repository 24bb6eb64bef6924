package grpc

import (
	"context"

	pb "github.com/dmitrijs2005/maillist/internal/proto"
	"github.com/dmitrijs2005/maillist/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Signup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return reply(s.subscriptions.Signup(ctx, pb.StringField(req, pb.FieldEmail)))
}

func (s *GRPCServer) Verify(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return reply(s.subscriptions.Verify(ctx, pb.StringField(req, pb.FieldEmail), pb.StringField(req, pb.FieldCode)))
}

func (s *GRPCServer) Unsubscribe(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return reply(s.subscriptions.Unsubscribe(ctx, pb.StringField(req, pb.FieldEmail)))
}

// reply maps a workflow result to the wire. Only bad input and an
// unavailable store are gRPC errors; every other outcome is a normal reply.
func reply(r services.Result) (*structpb.Struct, error) {
	switch r.Outcome {
	case services.OutcomeInvalidInput:
		return nil, status.Error(codes.InvalidArgument, r.Message)
	case services.OutcomeStoreUnavailable:
		return nil, status.Error(codes.Unavailable, r.Message)
	}
	return pb.Reply{
		Outcome:  string(r.Outcome),
		Message:  r.Message,
		NextStep: string(r.NextStep),
	}.Struct(), nil
}
