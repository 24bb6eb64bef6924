package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/maillist/internal/common"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const requestIDKey ctxKey = "requestID"

// RequestID returns the identifier assigned to the current call.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// incomingRequestID reuses the caller's x-request-id when present.
func incomingRequestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.RequestIDHeader); len(values) > 0 && values[0] != "" {
			return values[0]
		}
	}
	return uuid.NewString()
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	id := incomingRequestID(ctx)
	ctx = context.WithValue(ctx, requestIDKey, id)
	_ = grpc.SetHeader(ctx, metadata.Pairs(common.RequestIDHeader, id))

	start := time.Now()
	resp, err := handler(ctx, req)

	s.logger.Info(ctx, "grpc call",
		common.RequestIDKey, id,
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start).String(),
	)

	return resp, err
}
