package services

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/maillist/internal/logging"
	"github.com/dmitrijs2005/maillist/internal/server/mirror"
	"github.com/dmitrijs2005/maillist/internal/server/models"
	"github.com/dmitrijs2005/maillist/internal/server/publish"
	"github.com/dmitrijs2005/maillist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/maillist/internal/timex"
)

// MirrorStore is the part of the CSV mirror used for reconciliation.
type MirrorStore interface {
	Rebuild(ctx context.Context, records []mirror.Record) error
	Snapshot(ctx context.Context) ([]byte, error)
	Path() string
}

// Publisher uploads a mirror snapshot.
type Publisher interface {
	Publish(ctx context.Context, name string, body []byte) (*publish.Published, error)
}

// MirrorService reconciles the CSV mirror with the subscriber store and
// optionally publishes snapshots of it.
type MirrorService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       MirrorStore
	publisher   Publisher
	logger      logging.Logger
	observer    Observer
}

// NewMirrorService builds a MirrorService. publisher may be nil when
// publishing is not configured.
func NewMirrorService(db *sql.DB, m repomanager.RepositoryManager, store MirrorStore, publisher Publisher,
	logger logging.Logger, observer Observer) *MirrorService {
	if observer == nil {
		observer = noopObserver{}
	}
	return &MirrorService{
		db:          db,
		repomanager: m,
		store:       store,
		publisher:   publisher,
		logger:      logger.With("module", "reconcile"),
		observer:    observer,
	}
}

// ListSubscribers returns every subscriber ordered by id.
func (s *MirrorService) ListSubscribers(ctx context.Context) ([]*models.Subscriber, error) {
	return s.repomanager.Subscribers(s.db).List(ctx)
}

// RebuildMirror rewrites the mirror from the store and returns the number
// of records written.
func (s *MirrorService) RebuildMirror(ctx context.Context) (int, error) {
	subs, err := s.ListSubscribers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subscribers: %w", err)
	}

	records := make([]mirror.Record, 0, len(subs))
	for _, sub := range subs {
		records = append(records, mirror.Record{
			Time:  timex.FormatISO(sub.SignupTime),
			Email: sub.Email,
			Send:  sub.Send,
		})
	}

	if err := s.store.Rebuild(ctx, records); err != nil {
		s.observer.ObserveMirrorFailure("rebuild")
		return 0, fmt.Errorf("rebuild mirror: %w", err)
	}

	s.logger.Info(ctx, "mirror rebuilt", "records", len(records))
	return len(records), nil
}

// PublishMirror rebuilds the mirror and uploads the result.
func (s *MirrorService) PublishMirror(ctx context.Context) (*publish.Published, error) {
	if s.publisher == nil {
		return nil, publish.ErrDisabled
	}
	if _, err := s.RebuildMirror(ctx); err != nil {
		return nil, err
	}

	body, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot mirror: %w", err)
	}

	return s.publisher.Publish(ctx, filepath.Base(s.store.Path()), body)
}

// Run rebuilds the mirror every interval until ctx is done. Failures are
// logged and retried on the next tick.
func (s *MirrorService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info(ctx, "mirror reconciler started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "mirror reconciler stopped")
			return
		case <-ticker.C:
			if _, err := s.RebuildMirror(ctx); err != nil {
				s.logger.Warn(ctx, "scheduled mirror rebuild failed", "error", err)
			}
		}
	}
}
