package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harborworks/gatehouse/internal/auth/domain"
	"github.com/harborworks/gatehouse/internal/auth/store"
	"github.com/harborworks/gatehouse/internal/auth/store/drivers/sqlite"
	"github.com/harborworks/gatehouse/pkg/idx"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := domain.User{
		ID:           idx.New().String(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$argon2id$...",
	}
	require.NoError(t, s.Users().CreateUser(ctx, u))

	byID, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", byID.Username)
	require.True(t, byID.Local())
	require.False(t, byID.CreatedAt.IsZero())

	byName, err := s.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, u.ID, byName.ID)

	byEmail, err := s.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
}

func TestGetUserByIdentifier(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := domain.User{
		ID:           idx.New().String(),
		Username:     "bob",
		Email:        "bob@example.com",
		PasswordHash: "h",
	}
	require.NoError(t, s.Users().CreateUser(ctx, u))

	byUsername, err := s.Users().GetUserByIdentifier(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, u.ID, byUsername.ID)

	byEmail, err := s.Users().GetUserByIdentifier(ctx, "bob@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	_, err = s.Users().GetUserByIdentifier(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDuplicateUserRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := domain.User{ID: idx.New().String(), Username: "carol", Email: "carol@example.com", PasswordHash: "h"}
	require.NoError(t, s.Users().CreateUser(ctx, u))

	dupName := domain.User{ID: idx.New().String(), Username: "carol", Email: "other@example.com", PasswordHash: "h"}
	require.ErrorIs(t, s.Users().CreateUser(ctx, dupName), store.ErrAlreadyExists)

	dupEmail := domain.User{ID: idx.New().String(), Username: "carol2", Email: "carol@example.com", PasswordHash: "h"}
	require.ErrorIs(t, s.Users().CreateUser(ctx, dupEmail), store.ErrAlreadyExists)
}

func TestRolesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := domain.User{ID: idx.New().String(), Username: "dave", Email: "dave@example.com", PasswordHash: "h"}
	require.NoError(t, s.Users().CreateUser(ctx, u))

	admin := domain.Role{ID: idx.New().String(), Name: "admin", Permissions: []string{"users:read", "users:write"}}
	viewer := domain.Role{ID: idx.New().String(), Name: "viewer", Permissions: []string{"users:read"}}
	require.NoError(t, s.Roles().CreateRole(ctx, admin))
	require.NoError(t, s.Roles().CreateRole(ctx, viewer))

	require.NoError(t, s.Roles().AssignRole(ctx, u.ID, admin.ID))
	require.NoError(t, s.Roles().AssignRole(ctx, u.ID, viewer.ID))
	// Re-assigning is a no-op, not an error.
	require.NoError(t, s.Roles().AssignRole(ctx, u.ID, admin.ID))

	roles, err := s.Roles().GetRolesForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	require.Equal(t, "admin", roles[0].Name)
	require.Equal(t, []string{"users:read", "users:write"}, roles[0].Permissions)

	byName, err := s.Roles().GetRoleByName(ctx, "viewer")
	require.NoError(t, err)
	require.Equal(t, viewer.ID, byName.ID)

	_, err = s.Roles().GetRoleByName(ctx, "ghost")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDuplicateRoleRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := domain.Role{ID: idx.New().String(), Name: "admin"}
	require.NoError(t, s.Roles().CreateRole(ctx, r))

	dup := domain.Role{ID: idx.New().String(), Name: "admin"}
	require.ErrorIs(t, s.Roles().CreateRole(ctx, dup), store.ErrAlreadyExists)
}
