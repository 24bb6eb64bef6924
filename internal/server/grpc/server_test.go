package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/maillist/internal/logging"
	pb "github.com/dmitrijs2005/maillist/internal/proto"
	"github.com/dmitrijs2005/maillist/internal/server/services"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

type fakeSubscriptions struct {
	result    services.Result
	gotEmail  string
	gotCode   string
	gotMethod string
}

func (f *fakeSubscriptions) Signup(_ context.Context, email string) services.Result {
	f.gotMethod, f.gotEmail = "signup", email
	return f.result
}

func (f *fakeSubscriptions) Verify(_ context.Context, email, code string) services.Result {
	f.gotMethod, f.gotEmail, f.gotCode = "verify", email, code
	return f.result
}

func (f *fakeSubscriptions) Unsubscribe(_ context.Context, email string) services.Result {
	f.gotMethod, f.gotEmail = "unsubscribe", email
	return f.result
}

// startBufconn serves srv over an in-memory listener and returns a client.
func startBufconn(t *testing.T, srv *GRPCServer) pb.SubscriptionsClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return pb.NewSubscriptionsClient(conn)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", logging.Discard(), &fakeSubscriptions{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", logging.Discard(), &fakeSubscriptions{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}
