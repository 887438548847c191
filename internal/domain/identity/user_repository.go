package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/upigw/backend/internal/domain/shared"
)

// UserFilter narrows account listings. Zero values mean "no constraint".
type UserFilter struct {
	shared.Filter
	Role     *Role
	ParentID *uuid.UUID
	Search   string
	Scope    Scope
}

// UserRepository is the persistence port for accounts. Write operations
// re-validate the role/parent hierarchy inside the transaction.
type UserRepository interface {
	// Create persists a new account. Returns DUPLICATE_HANDLE when the
	// username is taken and INVALID_HIERARCHY when the parent reference
	// does not satisfy the role invariant.
	Create(ctx context.Context, user *User) error

	// Update persists changes to an existing account with the same
	// hierarchy re-validation as Create.
	Update(ctx context.Context, user *User) error

	// FindByID loads an account by primary key, soft-deleted rows included.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindActiveByID loads an account only if it is active. Returns
	// ErrNotFound for missing and soft-deleted rows alike.
	FindActiveByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByUsername loads an active account by its normalized handle.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// List returns a page of accounts visible inside the filter's scope.
	List(ctx context.Context, filter UserFilter) (shared.Paginated[*User], error)

	// CountMembers returns the number of active members under a merchant.
	CountMembers(ctx context.Context, merchantID uuid.UUID) (int64, error)

	// ExistsByUsername reports whether an active account holds the handle.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}
