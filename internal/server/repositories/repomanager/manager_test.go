package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/maillist/internal/common"
	"github.com/dmitrijs2005/maillist/internal/server/migrations"
	"github.com/dmitrijs2005/maillist/internal/server/repositories/subscribers"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendFromDSN(t *testing.T) {
	tests := map[string]Backend{
		"emails.db":                              BackendSQLite,
		"/var/lib/maillist/emails.db":            BackendSQLite,
		"file:emails.db?mode=ro":                 BackendSQLite,
		":memory:":                               BackendSQLite,
		"postgres://u:p@localhost:5432/maillist": BackendPostgres,
		"PostgreSQL://localhost/maillist":        BackendPostgres,
		"  postgres://localhost/maillist":        BackendPostgres,
	}
	for dsn, want := range tests {
		assert.Equal(t, want, BackendFromDSN(dsn), dsn)
	}
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "emails.db?"+sqlitePragmas, SQLiteDSN("emails.db"))
	assert.Equal(t, "file:emails.db?cache=shared&"+sqlitePragmas, SQLiteDSN("file:emails.db?cache=shared"))
	assert.Equal(t, ":memory:", SQLiteDSN(":memory:"))
	assert.Equal(t, "x.db?_pragma=busy_timeout(0)", SQLiteDSN("x.db?_pragma=busy_timeout(0)"))
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var lite RepositoryManager = NewSQLiteRepositoryManager()
	var pg RepositoryManager = NewPostgresRepositoryManager()

	assert.IsType(t, &subscribers.SQLiteRepository{}, lite.Subscribers(db))
	assert.IsType(t, &subscribers.PostgresRepository{}, pg.Subscribers(db))
	assert.Equal(t, BackendSQLite, lite.Backend())
	assert.Equal(t, BackendPostgres, pg.Backend())
}

func TestRunMigrations_PicksDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var got []goose.Dialect
	orig := runProvider
	runProvider = func(ctx context.Context, db *sql.DB, set migrations.Set) ([]*goose.MigrationResult, error) {
		got = append(got, set.Dialect)
		return nil, nil
	}
	defer func() { runProvider = orig }()

	require.NoError(t, NewSQLiteRepositoryManager().RunMigrations(context.Background(), db))
	require.NoError(t, NewPostgresRepositoryManager().RunMigrations(context.Background(), db))

	assert.Equal(t, []goose.Dialect{goose.DialectSQLite3, goose.DialectPostgres}, got)
}

func TestRunMigrations_Error(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := runProvider
	runProvider = func(ctx context.Context, db *sql.DB, set migrations.Set) ([]*goose.MigrationResult, error) {
		return nil, errors.New("boom")
	}
	defer func() { runProvider = orig }()

	err = NewPostgresRepositoryManager().RunMigrations(context.Background(), db)
	require.EqualError(t, err, "boom")
}

func TestOpen_SQLiteFileAndMigrate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "emails.db")

	db, m, err := Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, BackendSQLite, m.Backend())
	require.NoError(t, m.RunMigrations(ctx, db))
	require.NoError(t, m.RunMigrations(ctx, db), "migrations are idempotent")

	var mode string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)

	_, err = m.Subscribers(db).FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestOpen_PingFailureIsUnavailable(t *testing.T) {
	orig := sqlOpen
	defer func() { sqlOpen = orig }()

	var gotDriver string
	sqlOpen = func(driverName, dsn string) (*sql.DB, error) {
		gotDriver = driverName
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			return nil, err
		}
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		return db, nil
	}

	_, _, err := Open(context.Background(), "postgres://localhost:1/maillist")
	require.Error(t, err)
	assert.Equal(t, "pgx", gotDriver)
	assert.ErrorIs(t, err, common.ErrorStoreUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestOpen_DriverError(t *testing.T) {
	orig := sqlOpen
	defer func() { sqlOpen = orig }()
	sqlOpen = func(driverName, dsn string) (*sql.DB, error) { return nil, errors.New("unknown driver") }

	_, _, err := Open(context.Background(), "emails.db")
	require.ErrorContains(t, err, "open sqlite: unknown driver")
}
