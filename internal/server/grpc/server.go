package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/maillist/internal/logging"
	pb "github.com/dmitrijs2005/maillist/internal/proto"
	"github.com/dmitrijs2005/maillist/internal/server/services"
	"google.golang.org/grpc"
)

// Subscriptions is the workflow behind the gRPC API.
type Subscriptions interface {
	Signup(ctx context.Context, email string) services.Result
	Verify(ctx context.Context, email, code string) services.Result
	Unsubscribe(ctx context.Context, email string) services.Result
}

type GRPCServer struct {
	address       string
	subscriptions Subscriptions
	logger        logging.Logger
}

var _ pb.SubscriptionsServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, subs Subscriptions) *GRPCServer {
	return &GRPCServer{
		address:       a,
		logger:        l.With("module", "grpc_server"),
		subscriptions: subs,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	pb.RegisterSubscriptionsServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
