package client

import (
	"context"

	pb "github.com/dmitrijs2005/maillist/internal/proto"
)

type Client interface {
	Close() error
	Signup(ctx context.Context, email string) (pb.Reply, error)
	Verify(ctx context.Context, email, code string) (pb.Reply, error)
	Unsubscribe(ctx context.Context, email string) (pb.Reply, error)
}
