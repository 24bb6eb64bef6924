// Package httpapi serves the operational HTTP surface: health, Prometheus
// metrics and the one-click unsubscribe link embedded in verification mail.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/maillist/internal/logging"
	"github.com/dmitrijs2005/maillist/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// Pinger reports whether the subscriber store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Unsubscriber handles signed unsubscribe tokens.
type Unsubscriber interface {
	UnsubscribeByToken(ctx context.Context, token string) services.Result
}

type HTTPServer struct {
	address string
	router  *gin.Engine
	logger  logging.Logger
}

func NewHTTPServer(address string, l logging.Logger, store Pinger, unsub Unsubscriber, metrics http.Handler) *HTTPServer {
	logger := l.With("module", "http_server")
	return &HTTPServer{
		address: address,
		router:  NewRouter(logger, store, unsub, metrics),
		logger:  logger,
	}
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler { return s.router }

func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve handles requests on lis until ctx is cancelled, then shuts down
// gracefully.
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
