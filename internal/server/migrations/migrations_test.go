package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "emails.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func columns(t *testing.T, db *sql.DB) map[string]bool {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM pragma_table_info('subscribers')`)
	require.NoError(t, err)
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		out[name] = true
	}
	require.NoError(t, rows.Err())
	return out
}

func up(t *testing.T, db *sql.DB) []*goose.MigrationResult {
	t.Helper()
	p, err := NewProvider(db, SQLite())
	require.NoError(t, err)
	res, err := p.Up(context.Background())
	require.NoError(t, err)
	return res
}

func TestSQLite_FreshDatabase(t *testing.T) {
	db := openSQLite(t)

	res := up(t, db)
	assert.Len(t, res, 4)

	cols := columns(t, db)
	for _, c := range []string{"id", "email", "time", "send", "verified", "verification_code", "code_expires_at"} {
		assert.True(t, cols[c], "missing column %s", c)
	}
}

func TestSQLite_RerunIsNoop(t *testing.T) {
	db := openSQLite(t)
	up(t, db)

	_, err := db.Exec(`INSERT INTO subscribers (email, time, send, verified) VALUES ('a@b.co', '2024-01-01T00:00:00.000000', 0, 1)`)
	require.NoError(t, err)

	res := up(t, db)
	assert.Empty(t, res)

	var send, verified int
	require.NoError(t, db.QueryRow(`SELECT send, verified FROM subscribers WHERE email = 'a@b.co'`).Scan(&send, &verified))
	assert.Equal(t, 0, send)
	assert.Equal(t, 1, verified)
}

func TestSQLite_LegacyActiveColumnSeedsSend(t *testing.T) {
	db := openSQLite(t)

	_, err := db.Exec(`CREATE TABLE subscribers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE NOT NULL,
		active INTEGER
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO subscribers (email, active) VALUES ('on@example.com', 1), ('off@example.com', 0), ('unknown@example.com', NULL)`)
	require.NoError(t, err)

	up(t, db)

	cols := columns(t, db)
	assert.True(t, cols["send"])
	assert.True(t, cols["verified"])
	assert.True(t, cols["active"], "legacy column is left in place")

	got := map[string]int{}
	rows, err := db.Query(`SELECT email, send, verified FROM subscribers ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var email string
		var send, verified int
		require.NoError(t, rows.Scan(&email, &send, &verified))
		assert.Equal(t, 0, verified)
		got[email] = send
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, map[string]int{
		"on@example.com":      1,
		"off@example.com":     0,
		"unknown@example.com": 1,
	}, got)
}

func TestSQLite_PartiallyMigratedTable(t *testing.T) {
	db := openSQLite(t)

	_, err := db.Exec(`CREATE TABLE subscribers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE NOT NULL,
		time TEXT,
		send INTEGER DEFAULT 1,
		verified INTEGER DEFAULT 0
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO subscribers (email, time, send, verified) VALUES ('kept@example.com', '2023-03-01T12:00:00', 0, 1)`)
	require.NoError(t, err)

	up(t, db)

	cols := columns(t, db)
	assert.True(t, cols["verification_code"])
	assert.True(t, cols["code_expires_at"])

	var send int
	require.NoError(t, db.QueryRow(`SELECT send FROM subscribers WHERE email = 'kept@example.com'`).Scan(&send))
	assert.Equal(t, 0, send, "existing data must survive")
}

func TestSQLite_StaleCodesOnVerifiedRowsAreCleared(t *testing.T) {
	db := openSQLite(t)

	_, err := db.Exec(`CREATE TABLE subscribers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE NOT NULL,
		time TEXT,
		send INTEGER DEFAULT 1,
		verified INTEGER DEFAULT 0,
		verification_code TEXT,
		code_expires_at TEXT
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO subscribers (email, verified, verification_code, code_expires_at, send) VALUES
		('done@example.com', 1, 'abc', '2024-01-01T00:10:00', NULL),
		('half@example.com', 0, 'abc', NULL, 1),
		('pending@example.com', 0, 'abc', '2024-01-01T00:10:00', 1)`)
	require.NoError(t, err)

	up(t, db)

	check := func(email string, wantCode bool, wantSend int) {
		var code, exp sql.NullString
		var send int
		require.NoError(t, db.QueryRow(`SELECT verification_code, code_expires_at, send FROM subscribers WHERE email = ?`, email).Scan(&code, &exp, &send))
		assert.Equal(t, wantCode, code.Valid, email)
		assert.Equal(t, code.Valid, exp.Valid, email)
		assert.Equal(t, wantSend, send, email)
	}
	check("done@example.com", false, 1)
	check("half@example.com", false, 1)
	check("pending@example.com", true, 1)
}

func TestPostgres_SetIsEmbedded(t *testing.T) {
	set := Postgres()
	assert.Equal(t, goose.DialectPostgres, set.Dialect)
	assert.Empty(t, set.Go)

	for _, name := range []string{
		"00001_create_subscribers.sql",
		"00002_add_missing_columns.sql",
		"00003_code_fields_consistency.sql",
		"00004_email_lower_index.sql",
	} {
		_, err := set.FS.Open(name)
		assert.NoError(t, err, name)
	}
}
