package repomanager

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/maillist/internal/dbx"
	"github.com/dmitrijs2005/maillist/internal/server/migrations"
	"github.com/dmitrijs2005/maillist/internal/server/repositories/subscribers"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends SQLite-backed repositories.
type SQLiteRepositoryManager struct{}

func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

func (m *SQLiteRepositoryManager) Backend() Backend { return BackendSQLite }

func (m *SQLiteRepositoryManager) Subscribers(db dbx.DBTX) subscribers.Repository {
	return subscribers.NewSQLiteRepository(db)
}

// RunMigrations applies the SQLite migration set, including the guarded
// upgrade of databases created before migrations were versioned.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := runProvider(ctx, db, migrations.SQLite())
	return err
}

// SQLiteDSN appends a busy timeout, WAL journaling and immediate write
// transactions to a SQLite path. DSNs that already carry pragmas, and
// in-memory databases, are returned unchanged.
func SQLiteDSN(dsn string) string {
	if dsn == ":memory:" || strings.Contains(dsn, "_pragma=") {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + sqlitePragmas
}

const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
