// Package subscribers persists subscriber rows. Every method is atomic at the
// row level; multi-step flows compose them inside dbx.WithTx.
package subscribers

import (
	"context"
	"time"

	"github.com/dmitrijs2005/maillist/internal/server/models"
)

// Repository is implemented by the SQLite and PostgreSQL backends.
//
// Errors: common.ErrorNotFound when no row matched, common.ErrorAlreadyExists
// on a uniqueness violation, common.ErrorStoreUnavailable when the store is
// busy or unreachable. Anything else is wrapped as "db error: ...".
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	InsertPending(ctx context.Context, email string, now time.Time, code models.PendingCode) (*models.Subscriber, error)
	ReissueCode(ctx context.Context, email string, now time.Time, code models.PendingCode) error
	MarkVerified(ctx context.Context, email, digest string) error
	SetSend(ctx context.Context, email string, send bool) error
	List(ctx context.Context) ([]*models.Subscriber, error)
}

type scanner interface {
	Scan(dest ...any) error
}
