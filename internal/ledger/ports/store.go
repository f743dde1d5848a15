// Package ports defines the narrow persistence boundary the kernel depends
// on. The kernel never assumes an ORM: a host implements Store against
// whatever it likes (internal/infrastructure/persistence/postgres for
// production, internal/infrastructure/persistence/memory for tests and the
// kernel's own unit tests).
package ports

import (
	"context"
	"time"

	"ledger-api/internal/ledger/models"

	"github.com/google/uuid"
)

// Store is the persistence port required by the engine. Every mutating
// method is expected to participate in the transaction started by
// WithinTransaction when called from inside one.
type Store interface {
	SaveProfile(ctx context.Context, p *models.Profile) error
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)

	SaveBook(ctx context.Context, b *models.Book) error
	GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error)

	SaveGroup(ctx context.Context, g *models.Group) error
	GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error)

	SaveAccount(ctx context.Context, a *models.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	// CodeExists reports whether an account or group code is already used
	// within the given book; codes are unique per book.
	CodeExists(ctx context.Context, bookID uuid.UUID, code string) (bool, error)

	// PocketsByAccount returns the account's pockets with account_balance > 0,
	// ordered by date ascending (FIFO order).
	PocketsByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Pocket, error)
	SavePocket(ctx context.Context, p *models.Pocket) error
	DeletePocket(ctx context.Context, id uuid.UUID) error

	SaveTransaction(ctx context.Context, t *models.Transaction) error
	SaveSplit(ctx context.Context, s *models.Split) error
	// SplitsAfter returns this account's currently linked splits whose
	// transaction's transaction_date is strictly after `after`, ordered by
	// transaction_date ascending; the chronological re-link set.
	SplitsAfter(ctx context.Context, accountID uuid.UUID, after time.Time) ([]*models.Split, error)
	// TransactionDateOf returns the transaction_date of the transaction a
	// split belongs to.
	TransactionDateOf(ctx context.Context, s *models.Split) (time.Time, error)

	// WithinTransaction runs fn inside one persistence transaction. If fn
	// returns an error, every write it performed is rolled back and the
	// error is returned unchanged.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
