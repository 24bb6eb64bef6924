// Package repomanager picks a storage backend from the DSN, opens it, runs
// its migrations and vends repositories bound to a DB or transaction handle.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/maillist/internal/common"
	"github.com/dmitrijs2005/maillist/internal/dbx"
	"github.com/dmitrijs2005/maillist/internal/server/migrations"
	"github.com/dmitrijs2005/maillist/internal/server/repositories/subscribers"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	Backend() Backend
	RunMigrations(context.Context, *sql.DB) error
	Subscribers(db dbx.DBTX) subscribers.Repository
}

type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// BackendFromDSN treats postgres:// and postgresql:// URLs as PostgreSQL and
// anything else as a SQLite path or URI.
func BackendFromDSN(dsn string) Backend {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return BackendPostgres
	}
	return BackendSQLite
}

// seams for tests
var (
	sqlOpen = sql.Open

	runProvider = func(ctx context.Context, db *sql.DB, set migrations.Set) ([]*goose.MigrationResult, error) {
		p, err := migrations.NewProvider(db, set)
		if err != nil {
			return nil, err
		}
		return p.Up(ctx)
	}
)

// Open connects to the database named by dsn and returns it together with the
// matching RepositoryManager. The connection is verified with a ping.
func Open(ctx context.Context, dsn string) (*sql.DB, RepositoryManager, error) {
	var (
		driver string
		source string
		m      RepositoryManager
	)

	switch BackendFromDSN(dsn) {
	case BackendPostgres:
		driver, source, m = "pgx", dsn, NewPostgresRepositoryManager()
	default:
		driver, source, m = "sqlite", SQLiteDSN(dsn), NewSQLiteRepositoryManager()
	}

	db, err := sqlOpen(driver, source)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if isSQLiteMemory(dsn) {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w: %w", driver, common.ErrorStoreUnavailable, err)
	}

	return db, m, nil
}

func isSQLiteMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
