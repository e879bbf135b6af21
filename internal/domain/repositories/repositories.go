package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"accounts-service/internal/domain/entities"
)

// ErrDuplicate is returned by Create when a uniqueness constraint rejects
// the write (username, email, or the per-user email address pair).
var ErrDuplicate = errors.New("duplicate record")

type UserRepository interface {
	Create(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error)
	FindById(ctx context.Context, id uuid.UUID) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	FindByUsername(ctx context.Context, username string) (*entities.User, error)
	Update(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type EmailAddressRepository interface {
	Create(ctx context.Context, address *entities.EmailAddress) (*entities.EmailAddress, error)
	FindById(ctx context.Context, id uuid.UUID) (*entities.EmailAddress, error)
	FindByUserAndEmail(ctx context.Context, userId uuid.UUID, email string) (*entities.EmailAddress, error)
	FindPrimary(ctx context.Context, userId uuid.UUID) (*entities.EmailAddress, error)
	ListByUser(ctx context.Context, userId uuid.UUID) ([]*entities.EmailAddress, error)
	// MarkVerified flips is_verified to true. The flip is monotonic, there is
	// no operation that clears it.
	MarkVerified(ctx context.Context, id uuid.UUID) error
	// SetPrimary promotes the address and demotes the user's previous primary.
	// Callers must run it inside a transaction.
	SetPrimary(ctx context.Context, userId, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteByUser removes every address owned by the user. Account deletion
	// runs it in the same transaction that deletes the user row.
	DeleteByUser(ctx context.Context, userId uuid.UUID) error
}

// Store bundles the repositories with transaction control. AfterCommit
// registers a callback that runs once the enclosing transaction has
// committed; outside a transaction it runs immediately. Side effects that
// must not observe rolled-back records (such as queueing a verification
// email for a freshly created address) go through AfterCommit.
type Store interface {
	Users() UserRepository
	EmailAddresses() EmailAddressRepository
	Transact(ctx context.Context, fn func(tx Store) error) error
	AfterCommit(fn func())
}
