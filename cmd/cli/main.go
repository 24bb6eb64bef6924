package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/maillist/internal/client/cli"
	"github.com/dmitrijs2005/maillist/internal/client/config"
	"github.com/dmitrijs2005/maillist/internal/flagx"
	srvconfig "github.com/dmitrijs2005/maillist/internal/server/config"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc := srvconfig.LoadConfig()
	cc := config.LoadConfig()

	valueFlags := append([]string{"-c", "-config"}, srvconfig.Flags...)
	valueFlags = append(valueFlags, config.Flags...)
	args := flagx.Positional(os.Args[1:], valueFlags)

	code := cli.NewApp(sc, cc).Run(ctx, args)
	stop()
	os.Exit(code)
}
