package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/maillist/internal/client/client"
	"github.com/dmitrijs2005/maillist/internal/client/config"
	"github.com/dmitrijs2005/maillist/internal/logging"
	"github.com/dmitrijs2005/maillist/internal/server"
	srvconfig "github.com/dmitrijs2005/maillist/internal/server/config"
	"github.com/dmitrijs2005/maillist/internal/server/notify"
)

// Exit codes returned by Run.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// seams for tests
var (
	openStore   = server.OpenStore
	newNotifier = func(cfg notify.Config, l logging.Logger) (notify.Notifier, error) {
		return notify.NewEmailNotifier(cfg, l)
	}
	newPublisher = server.NewPublisher
	newAPIClient = func(addr string, timeout time.Duration) (client.Client, error) {
		return client.NewMaillistClient(addr, timeout)
	}
)

type App struct {
	serverConfig *srvconfig.Config
	clientConfig *config.Config
	reader       *bufio.Reader
	out          io.Writer
	errOut       io.Writer
	logger       logging.Logger
	now          func() time.Time
}

func NewApp(sc *srvconfig.Config, cc *config.Config) *App {
	return &App{
		serverConfig: sc,
		clientConfig: cc,
		reader:       bufio.NewReader(os.Stdin),
		out:          os.Stdout,
		errOut:       os.Stderr,
		logger:       logging.NewLogger(sc.LogLevel, "text", os.Stderr),
		now:          time.Now,
	}
}

type command struct {
	usage string
	min   int
	max   int
	run   func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"migrate":        {usage: "migrate", run: (*App).migrate},
	"list":           {usage: "list", run: (*App).list},
	"rebuild-mirror": {usage: "rebuild-mirror", run: (*App).rebuildMirror},
	"publish-mirror": {usage: "publish-mirror", run: (*App).publishMirror},
	"send-test":      {usage: "send-test [address]", max: 1, run: (*App).sendTest},
	"signup":         {usage: "signup <email>", min: 1, max: 1, run: (*App).signup},
	"verify":         {usage: "verify <email> <code>", min: 2, max: 2, run: (*App).verify},
	"unsubscribe":    {usage: "unsubscribe <email>", min: 1, max: 1, run: (*App).unsubscribe},
}

var commandOrder = []string{"migrate", "list", "rebuild-mirror", "publish-mirror", "send-test", "signup", "verify", "unsubscribe"}

// Run executes the command named by args[0] and returns a process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.usage()
		return ExitUsage
	}

	name, rest := args[0], args[1:]
	if name == "help" || name == "-h" || name == "--help" {
		a.usage()
		return ExitOK
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintln(a.errOut, "Unknown command:", name)
		a.usage()
		return ExitUsage
	}
	if len(rest) < cmd.min || len(rest) > cmd.max {
		fmt.Fprintln(a.errOut, "Usage: maillistctl", cmd.usage)
		return ExitUsage
	}

	if err := cmd.run(a, ctx, rest); err != nil {
		fmt.Fprintln(a.errOut, "Error:", err)
		return ExitFailure
	}
	return ExitOK
}

func (a *App) usage() {
	fmt.Fprintln(a.errOut, "Usage: maillistctl [flags] <command> [args]")
	fmt.Fprintln(a.errOut, "Commands:")
	for _, name := range commandOrder {
		fmt.Fprintln(a.errOut, "  "+commands[name].usage)
	}
}
