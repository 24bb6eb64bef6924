// Package migrations embeds the versioned schema for both storage backends
// and builds goose providers over them.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql
var sqliteFS embed.FS

//go:embed postgres/*.sql
var postgresFS embed.FS

// Set is one backend's migration list: SQL files plus Go steps.
type Set struct {
	Dialect goose.Dialect
	FS      fs.FS
	Go      []*goose.Migration
}

// SQLite returns the migration set for SQLite databases, including the
// guarded step that upgrades databases created before versioning existed.
func SQLite() Set {
	sub, err := fs.Sub(sqliteFS, "sqlite")
	if err != nil {
		panic(err)
	}
	return Set{
		Dialect: goose.DialectSQLite3,
		FS:      sub,
		Go: []*goose.Migration{
			goose.NewGoMigration(2, &goose.GoFunc{RunTx: addLegacyColumns}, nil),
		},
	}
}

func Postgres() Set {
	sub, err := fs.Sub(postgresFS, "postgres")
	if err != nil {
		panic(err)
	}
	return Set{Dialect: goose.DialectPostgres, FS: sub}
}

// NewProvider builds a goose provider for set over db.
func NewProvider(db *sql.DB, set Set) (*goose.Provider, error) {
	opts := []goose.ProviderOption{goose.WithDisableGlobalRegistry(true)}
	if len(set.Go) > 0 {
		opts = append(opts, goose.WithGoMigrations(set.Go...))
	}
	p, err := goose.NewProvider(set.Dialect, db, set.FS, opts...)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return p, nil
}

// addLegacyColumns brings a pre-versioning subscribers table up to the
// current column set. The legacy "active" flag seeds "send" when present.
func addLegacyColumns(ctx context.Context, tx *sql.Tx) error {
	cols, err := tableColumns(ctx, tx, "subscribers")
	if err != nil {
		return err
	}

	steps := []struct {
		column string
		ddl    string
		after  func() error
	}{
		{column: "time", ddl: `ALTER TABLE subscribers ADD COLUMN time TEXT`},
		{
			column: "send",
			ddl:    `ALTER TABLE subscribers ADD COLUMN send INTEGER DEFAULT 1`,
			after: func() error {
				if _, ok := cols["active"]; !ok {
					return nil
				}
				_, err := tx.ExecContext(ctx, `UPDATE subscribers SET send = active WHERE active IS NOT NULL`)
				return err
			},
		},
		{column: "verified", ddl: `ALTER TABLE subscribers ADD COLUMN verified INTEGER DEFAULT 0`},
		{column: "verification_code", ddl: `ALTER TABLE subscribers ADD COLUMN verification_code TEXT`},
		{column: "code_expires_at", ddl: `ALTER TABLE subscribers ADD COLUMN code_expires_at TEXT`},
	}

	for _, s := range steps {
		if _, ok := cols[s.column]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, s.ddl); err != nil {
			return fmt.Errorf("add column %s: %w", s.column, err)
		}
		if s.after != nil {
			if err := s.after(); err != nil {
				return fmt.Errorf("backfill %s: %w", s.column, err)
			}
		}
	}
	return nil
}

func tableColumns(ctx context.Context, tx *sql.Tx, table string) (map[string]struct{}, error) {
	rows, err := tx.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = struct{}{}
	}
	return cols, rows.Err()
}
