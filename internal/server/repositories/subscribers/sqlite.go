package subscribers

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/maillist/internal/common"
	"github.com/dmitrijs2005/maillist/internal/dbx"
	"github.com/dmitrijs2005/maillist/internal/server/models"
	"github.com/dmitrijs2005/maillist/internal/timex"
)

// SQLiteRepository stores subscribers in the legacy emails.db layout:
// timestamps as UTC text, booleans as 0/1 integers.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const sqliteSelect = `SELECT id, email, time, COALESCE(send, 1), COALESCE(verified, 0), verification_code, code_expires_at
  FROM subscribers`

func (r *SQLiteRepository) FindByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	query := sqliteSelect + `
 WHERE email = ? COLLATE NOCASE
 ORDER BY id
 LIMIT 1`

	s, err := scanSQLite(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, classify(err)
	}
	return s, nil
}

func (r *SQLiteRepository) InsertPending(ctx context.Context, email string, now time.Time, code models.PendingCode) (*models.Subscriber, error) {
	query :=
		`INSERT INTO subscribers (email, time, send, verified, verification_code, code_expires_at)
		 VALUES (?, ?, 1, 0, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, email, timex.FormatISO(now), code.Digest, timex.FormatISO(code.ExpiresAt))
	if err != nil {
		return nil, classify(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, classify(err)
	}

	return &models.Subscriber{
		ID:            id,
		Email:         email,
		SignupTime:    now.UTC(),
		Send:          true,
		CodeDigest:    code.Digest,
		CodeExpiresAt: code.ExpiresAt.UTC(),
	}, nil
}

func (r *SQLiteRepository) ReissueCode(ctx context.Context, email string, now time.Time, code models.PendingCode) error {
	query :=
		`UPDATE subscribers
		    SET send = 1, verified = 0, time = ?, verification_code = ?, code_expires_at = ?
		  WHERE email = ? COLLATE NOCASE`

	return r.execOne(ctx, query, timex.FormatISO(now), code.Digest, timex.FormatISO(code.ExpiresAt), email)
}

func (r *SQLiteRepository) MarkVerified(ctx context.Context, email, digest string) error {
	query :=
		`UPDATE subscribers
		    SET verified = 1, verification_code = NULL, code_expires_at = NULL
		  WHERE email = ? COLLATE NOCASE AND verification_code = ?`

	return r.execOne(ctx, query, email, digest)
}

func (r *SQLiteRepository) SetSend(ctx context.Context, email string, send bool) error {
	query := `UPDATE subscribers SET send = ? WHERE email = ? COLLATE NOCASE`

	flag := 0
	if send {
		flag = 1
	}
	return r.execOne(ctx, query, flag, email)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx, sqliteSelect+` ORDER BY id`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []*models.Subscriber
	for rows.Next() {
		s, err := scanSQLite(rows)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (r *SQLiteRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func scanSQLite(row scanner) (*models.Subscriber, error) {
	var (
		s                 models.Subscriber
		signup, code, exp sql.NullString
		send, verified    int64
	)
	if err := row.Scan(&s.ID, &s.Email, &signup, &send, &verified, &code, &exp); err != nil {
		return nil, err
	}

	s.Send = send != 0
	s.Verified = verified != 0

	if signup.Valid {
		if t, err := timex.ParseISO(signup.String); err == nil {
			s.SignupTime = t
		}
	}

	if code.Valid && exp.Valid && code.String != "" {
		s.CodeDigest = code.String
		t, err := timex.ParseISO(exp.String)
		if err != nil {
			// an unreadable expiry can never be honoured
			t = time.Unix(0, 0).UTC()
		}
		s.CodeExpiresAt = t
	}

	return &s, nil
}
