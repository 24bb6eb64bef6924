package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/maillist/internal/dbx"
	"github.com/dmitrijs2005/maillist/internal/server/migrations"
	"github.com/dmitrijs2005/maillist/internal/server/repositories/subscribers"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Backend() Backend { return BackendPostgres }

// Subscribers returns a subscribers.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Subscribers(db dbx.DBTX) subscribers.Repository {
	return subscribers.NewPostgresRepository(db)
}

// RunMigrations runs the embedded PostgreSQL migrations through goose.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := runProvider(ctx, db, migrations.Postgres())
	return err
}
