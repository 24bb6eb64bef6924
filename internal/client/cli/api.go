package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/maillist/internal/client/client"
	pb "github.com/dmitrijs2005/maillist/internal/proto"
	"github.com/dmitrijs2005/maillist/internal/server"
	"github.com/dmitrijs2005/maillist/internal/server/notify"
)

func notifierConfig(a *App) notify.Config {
	return server.NotifierConfig(a.serverConfig)
}

func (a *App) withClient(ctx context.Context, call func(c client.Client) (pb.Reply, error)) error {
	c, err := newAPIClient(a.clientConfig.ServerEndpointAddr, a.clientConfig.RequestTimeout)
	if err != nil {
		return err
	}
	defer c.Close()

	reply, err := call(c)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, reply.Message)
	if reply.NextStep != "" {
		fmt.Fprintf(a.out, "(%s, next: %s)\n", reply.Outcome, reply.NextStep)
	} else {
		fmt.Fprintf(a.out, "(%s)\n", reply.Outcome)
	}
	return nil
}

func (a *App) signup(ctx context.Context, args []string) error {
	return a.withClient(ctx, func(c client.Client) (pb.Reply, error) {
		return c.Signup(ctx, args[0])
	})
}

func (a *App) verify(ctx context.Context, args []string) error {
	return a.withClient(ctx, func(c client.Client) (pb.Reply, error) {
		return c.Verify(ctx, args[0], args[1])
	})
}

func (a *App) unsubscribe(ctx context.Context, args []string) error {
	return a.withClient(ctx, func(c client.Client) (pb.Reply, error) {
		return c.Unsubscribe(ctx, args[0])
	})
}
