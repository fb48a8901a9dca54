package usecase

import (
	"context"
	"testing"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/dto/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUpdateProfileIgnoresRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.subject(t, "alice", entity.RoleUser)

	resp, err := env.svc.User.UpdateProfile(ctx, alice.ID, &request.UpdateUserRequest{
		Bio:  strPtr("hello"),
		Role: strPtr("admin"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Bio)
	assert.Equal(t, entity.RoleUser, resp.Role)

	stored, err := env.repo.User.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, stored.Role)
}

func TestAdminUpdatesRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.subject(t, "bob", entity.RoleUser)

	resp, err := env.svc.User.UpdateUser(ctx, "bob", &request.UpdateUserRequest{Role: strPtr("moderator")})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleModerator, resp.Role)

	_, err = env.svc.User.UpdateUser(ctx, "bob", &request.UpdateUserRequest{Role: strPtr("owner")})
	requireFieldError(t, err, "role")
}

func TestCreateUserRejectsDuplicatesAndReservedNames(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.User.CreateUser(ctx, &request.CreateUserRequest{Username: "carol", Email: "carol@example.com"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, created.Role)

	_, err = env.svc.User.CreateUser(ctx, &request.CreateUserRequest{Username: "Carol", Email: "x@example.com"})
	requireFieldError(t, err, "username")

	_, err = env.svc.User.CreateUser(ctx, &request.CreateUserRequest{Username: "me", Email: "me@example.com"})
	requireFieldError(t, err, "username")
}

func TestUserDirectoryLookupsAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.subject(t, "dave", entity.RoleUser)
	env.subject(t, "erin", entity.RoleUser)

	page, err := env.svc.User.GetAllUsers(ctx, &request.PaginatedRequest{Page: 1, PerPage: 10, Search: "da"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "dave", page.Data[0].Username)

	require.NoError(t, env.svc.User.DeleteUser(ctx, "dave"))

	_, err = env.svc.User.GetUser(ctx, "dave")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.svc.User.DeleteUser(ctx, "dave"), ErrNotFound)
}
