package subscribers

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/maillist/internal/common"
	"github.com/dmitrijs2005/maillist/internal/dbx"
	"github.com/dmitrijs2005/maillist/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	query :=
		`SELECT id, email, time, send, verified, verification_code, code_expires_at
		   FROM subscribers
		  WHERE lower(email) = lower($1)
		 `

	s, err := scanPostgres(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, classify(err)
	}
	return s, nil
}

func (r *PostgresRepository) InsertPending(ctx context.Context, email string, now time.Time, code models.PendingCode) (*models.Subscriber, error) {
	query :=
		`INSERT INTO subscribers (email, time, send, verified, verification_code, code_expires_at)
		 VALUES ($1, $2, TRUE, FALSE, $3, $4)
		 RETURNING id
		 `

	s := &models.Subscriber{
		Email:         email,
		SignupTime:    now.UTC(),
		Send:          true,
		CodeDigest:    code.Digest,
		CodeExpiresAt: code.ExpiresAt.UTC(),
	}
	if err := r.db.QueryRowContext(ctx, query, email, s.SignupTime, code.Digest, s.CodeExpiresAt).Scan(&s.ID); err != nil {
		return nil, classify(err)
	}
	return s, nil
}

func (r *PostgresRepository) ReissueCode(ctx context.Context, email string, now time.Time, code models.PendingCode) error {
	query :=
		`UPDATE subscribers
		    SET send = TRUE, verified = FALSE, time = $1, verification_code = $2, code_expires_at = $3
		  WHERE lower(email) = lower($4)
		 `

	return r.execOne(ctx, query, now.UTC(), code.Digest, code.ExpiresAt.UTC(), email)
}

func (r *PostgresRepository) MarkVerified(ctx context.Context, email, digest string) error {
	query :=
		`UPDATE subscribers
		    SET verified = TRUE, verification_code = NULL, code_expires_at = NULL
		  WHERE lower(email) = lower($1) AND verification_code = $2
		 `

	return r.execOne(ctx, query, email, digest)
}

func (r *PostgresRepository) SetSend(ctx context.Context, email string, send bool) error {
	query :=
		`UPDATE subscribers SET send = $1
		  WHERE lower(email) = lower($2)
		 `

	return r.execOne(ctx, query, send, email)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Subscriber, error) {
	query :=
		`SELECT id, email, time, send, verified, verification_code, code_expires_at
		   FROM subscribers
		  ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []*models.Subscriber
	for rows.Next() {
		s, err := scanPostgres(rows)
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

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
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

func scanPostgres(row scanner) (*models.Subscriber, error) {
	var (
		s           models.Subscriber
		signup, exp sql.NullTime
		code        sql.NullString
	)
	if err := row.Scan(&s.ID, &s.Email, &signup, &s.Send, &s.Verified, &code, &exp); err != nil {
		return nil, err
	}
	if signup.Valid {
		s.SignupTime = signup.Time.UTC()
	}
	if code.Valid && exp.Valid {
		s.CodeDigest = code.String
		s.CodeExpiresAt = exp.Time.UTC()
	}
	return &s, nil
}
