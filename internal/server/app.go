// Package server initializes and runs the maillist server: the gRPC
// subscription API, the ops HTTP surface and the optional mirror reconciler.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/maillist/internal/logging"
	"github.com/dmitrijs2005/maillist/internal/server/auth"
	"github.com/dmitrijs2005/maillist/internal/server/config"
	"github.com/dmitrijs2005/maillist/internal/server/httpapi"
	"github.com/dmitrijs2005/maillist/internal/server/metrics"
	"github.com/dmitrijs2005/maillist/internal/server/mirror"
	"github.com/dmitrijs2005/maillist/internal/server/notify"
	"github.com/dmitrijs2005/maillist/internal/server/publish"
	"github.com/dmitrijs2005/maillist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/maillist/internal/server/services"

	gs "github.com/dmitrijs2005/maillist/internal/server/grpc"
)

// seams for tests
var (
	openStore   = repomanager.Open
	newNotifier = func(cfg notify.Config, l logging.Logger) (notify.Notifier, error) {
		return notify.NewEmailNotifier(cfg, l)
	}
	newPublisher = func(ctx context.Context, cfg publish.Config, l logging.Logger) (services.Publisher, error) {
		return publish.NewS3Publisher(ctx, cfg, l)
	}
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	db            *sql.DB
	metrics       *metrics.Metrics
	subscriptions *services.SubscriptionService
	mirrors       *services.MirrorService
}

// NewLogger builds the process logger from the configured level and format.
func NewLogger(c *config.Config, w io.Writer) logging.Logger {
	return logging.NewLogger(c.LogLevel, c.LogFormat, w)
}

// NotifierConfig derives the SMTP notifier settings. Unsubscribe links are
// only added when both a public URL and a signing secret are configured.
func NotifierConfig(c *config.Config) notify.Config {
	cfg := notify.Config{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUser,
		Password: c.SMTPPassword,
		CodeTTL:  c.CodeTTL,
	}
	if c.PublicBaseURL != "" && c.SecretKey != "" {
		cfg.UnsubscribeLink = auth.UnsubscribeLinker{
			BaseURL:   c.PublicBaseURL,
			SecretKey: []byte(c.SecretKey),
			Validity:  c.UnsubscribeTokenTTL,
		}.Link
	}
	return cfg
}

// PublisherConfig derives the S3 snapshot publishing settings.
func PublisherConfig(c *config.Config) publish.Config {
	return publish.Config{
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
	}
}

// OpenStore connects to the subscriber store and migrates it forward.
func OpenStore(ctx context.Context, c *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	db, rm, err := openStore(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db migration error: %w", err)
	}
	return db, rm, nil
}

// NewPublisher returns nil when publishing is not configured or the client
// cannot be built; the failure is logged.
func NewPublisher(ctx context.Context, c *config.Config, l logging.Logger) services.Publisher {
	cfg := PublisherConfig(c)
	if !cfg.Enabled() {
		return nil
	}
	p, err := newPublisher(ctx, cfg, l)
	if err != nil {
		l.Warn(ctx, "mirror publishing disabled", "error", err)
		return nil
	}
	return p
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := NewLogger(c, os.Stdout)

	if c.PublicBaseURL != "" && c.SecretKey == "" {
		logger.Warn(ctx, "public base url set without secret key, unsubscribe links disabled")
	}

	// fail fast before touching the store
	notifier, err := newNotifier(NotifierConfig(c), logger)
	if err != nil {
		return nil, fmt.Errorf("notifier init error: %w", err)
	}

	db, rm, err := OpenStore(ctx, c)
	if err != nil {
		return nil, err
	}

	store := mirror.NewCSVStore(c.MirrorPath, logger)
	if err := store.EnsureHeader(ctx); err != nil {
		logger.Warn(ctx, "mirror header check failed", "error", err)
	}

	m := metrics.New()

	return &App{
		config:        c,
		logger:        logger,
		db:            db,
		metrics:       m,
		subscriptions: services.NewSubscriptionService(db, rm, store, notifier, c, logger, m),
		mirrors:       services.NewMirrorService(db, rm, store, NewPublisher(ctx, c, logger), logger, m),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.subscriptions)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.db, app.subscriptions, app.metrics.Handler())
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a termination signal arrives, ctx is cancelled or one of
// the listeners fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.mirrors.Run(ctx, app.config.MirrorRebuildInterval)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing db", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
