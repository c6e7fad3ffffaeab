package store

import (
	"context"
	"errors"

	"github.com/harborworks/gatehouse/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement it. Sub-repositories keep query surfaces per concern.
type Store interface {
	Users() Users
	Roles() Roles

	// ApplyMigrations brings the schema up to date from embedded files.
	ApplyMigrations() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during password login.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail is used for federated account linking.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByIdentifier accepts a username or an email. Login calls
	// this so either credential form works.
	GetUserByIdentifier(ctx context.Context, identifier string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Duplicate username or email returns ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error
}

type Roles interface {
	// GetRolesForUser returns every role granted to the user.
	GetRolesForUser(ctx context.Context, userID string) ([]domain.Role, error)

	// GetRoleByName returns a role by its unique name.
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)

	// CreateRole inserts a role with its permission keys.
	CreateRole(ctx context.Context, r domain.Role) error

	// AssignRole grants a role to a user. Re-assigning is a no-op.
	AssignRole(ctx context.Context, userID, roleID string) error
}
