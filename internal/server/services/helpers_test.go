package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/maillist/internal/dbx"
	"github.com/dmitrijs2005/maillist/internal/logging"
	"github.com/dmitrijs2005/maillist/internal/server/config"
	"github.com/dmitrijs2005/maillist/internal/server/mirror"
	"github.com/dmitrijs2005/maillist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/maillist/internal/server/repositories/subscribers"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// --- store ---

func openStore(t *testing.T) (*sql.DB, repomanager.RepositoryManager) {
	t.Helper()
	ctx := context.Background()
	db, m, err := repomanager.Open(ctx, filepath.Join(t.TempDir(), "emails.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, m.RunMigrations(ctx, db))
	return db, m
}

// wrappingManager lets a test intercept the repository handed to the service.
type wrappingManager struct {
	repomanager.RepositoryManager
	wrap func(subscribers.Repository) subscribers.Repository
}

func (w *wrappingManager) Subscribers(db dbx.DBTX) subscribers.Repository {
	return w.wrap(w.RepositoryManager.Subscribers(db))
}

// --- notifier ---

type sentCode struct {
	To   string
	Code string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (f *fakeNotifier) SendVerificationCode(_ context.Context, to, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentCode{To: to, Code: code})
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeNotifier) last() sentCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

// --- mirror ---

type failingMirror struct{}

func (failingMirror) UpsertOnSignup(context.Context, time.Time, string, bool) error {
	return errors.New("disk full")
}
func (failingMirror) SetSend(context.Context, string, bool) error { return errors.New("disk full") }

// --- observer ---

type recordingObserver struct {
	mu              sync.Mutex
	outcomes        []string
	mirrorFailures  []string
	notifierFailure int
}

func (o *recordingObserver) ObserveOutcome(op, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, op+":"+outcome)
}

func (o *recordingObserver) ObserveMirrorFailure(op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mirrorFailures = append(o.mirrorFailures, op)
}

func (o *recordingObserver) ObserveNotifierFailure() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notifierFailure++
}

// --- fixture ---

type fixture struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	mirror   *mirror.CSVStore
	notifier *fakeNotifier
	observer *recordingObserver
	svc      *SubscriptionService
	now      time.Time

	mu    sync.Mutex
	codes []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, rm := openStore(t)
	f := &fixture{
		db:       db,
		rm:       rm,
		mirror:   mirror.NewCSVStore(filepath.Join(t.TempDir(), "emails.csv"), logging.Discard()),
		notifier: &fakeNotifier{},
		observer: &recordingObserver{},
		now:      t0,
	}
	f.svc = f.build(rm, f.mirror)
	return f
}

func (f *fixture) build(rm repomanager.RepositoryManager, m Mirror) *SubscriptionService {
	cfg := &config.Config{CodeTTL: 10 * time.Minute, SecretKey: "unsubscribe-secret"}
	svc := NewSubscriptionService(f.db, rm, m, f.notifier, cfg, logging.Discard(), f.observer)
	svc.now = func() time.Time { return f.now }
	svc.generateCode = func() (string, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if len(f.codes) == 0 {
			return "123456", nil
		}
		c := f.codes[0]
		f.codes = f.codes[1:]
		return c, nil
	}
	return svc
}

func (f *fixture) repo() subscribers.Repository {
	return f.rm.Subscribers(f.db)
}

func (f *fixture) rowCount(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM subscribers`).Scan(&n))
	return n
}
