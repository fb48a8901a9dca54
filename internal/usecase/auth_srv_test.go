package usecase

import (
	"context"
	"testing"

	"yamdb-api/internal/dto/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupRejectsReservedUsernames(t *testing.T) {
	env := newTestEnv(t)

	for _, name := range []string{"me", "ME", "admin", "Admin"} {
		_, err := env.svc.Auth.Signup(context.Background(), &request.SignupRequest{Email: name + "@example.com", Username: name})
		requireFieldError(t, err, "username")
	}

	assert.Empty(t, env.mail.sent)
}

func TestSignupValidatesInput(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Auth.Signup(context.Background(), &request.SignupRequest{Email: "not-an-email", Username: "bad name"})
	vErr := requireFieldError(t, err, "email")
	assert.Contains(t, vErr.Fields, "username")
}

func TestSignupIsIdempotentAndRegeneratesCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := &request.SignupRequest{Email: "alice@example.com", Username: "alice"}

	resp, err := env.svc.Auth.Signup(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "alice@example.com", resp.Email)
	first := env.mail.lastCode(t, "alice@example.com")
	assert.Len(t, first, 6)

	_, err = env.svc.Auth.Signup(ctx, req)
	require.NoError(t, err)
	second := env.mail.lastCode(t, "alice@example.com")
	require.Len(t, env.mail.sent, 2)

	count, err := env.repo.User.CountAll(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	if first != second {
		_, err = env.svc.Auth.ObtainToken(ctx, &request.TokenRequest{Username: "alice", ConfirmationCode: first})
		requireFieldError(t, err, "confirmation_code")
	}

	_, err = env.svc.Auth.ObtainToken(ctx, &request.TokenRequest{Username: "alice", ConfirmationCode: second})
	require.NoError(t, err)
}

func TestSignupRejectsCaseInsensitiveDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Auth.Signup(ctx, &request.SignupRequest{Email: "alice@example.com", Username: "alice"})
	require.NoError(t, err)

	_, err = env.svc.Auth.Signup(ctx, &request.SignupRequest{Email: "other@example.com", Username: "ALICE"})
	requireFieldError(t, err, "username")

	_, err = env.svc.Auth.Signup(ctx, &request.SignupRequest{Email: "ALICE@example.com", Username: "bob"})
	requireFieldError(t, err, "email")

	// same email, different username is not the idempotent path
	_, err = env.svc.Auth.Signup(ctx, &request.SignupRequest{Email: "alice@example.com", Username: "alice2"})
	requireFieldError(t, err, "email")

	require.Len(t, env.mail.sent, 1)
}

func TestObtainToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Auth.Signup(ctx, &request.SignupRequest{Email: "alice@example.com", Username: "alice"})
	require.NoError(t, err)
	code := env.mail.lastCode(t, "alice@example.com")

	t.Run("unknown username", func(t *testing.T) {
		_, err := env.svc.Auth.ObtainToken(ctx, &request.TokenRequest{Username: "nobody", ConfirmationCode: code})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("wrong code leaves user pending", func(t *testing.T) {
		_, err := env.svc.Auth.ObtainToken(ctx, &request.TokenRequest{Username: "alice", ConfirmationCode: "wrong!"})
		requireFieldError(t, err, "confirmation_code")

		user, err := env.repo.User.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, user.IsConfirmed)
	})

	t.Run("correct code confirms and issues token", func(t *testing.T) {
		resp, err := env.svc.Auth.ObtainToken(ctx, &request.TokenRequest{Username: "alice", ConfirmationCode: code})
		require.NoError(t, err)

		claims, err := env.tokens.Parse(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Username)

		user, err := env.repo.User.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, user.IsConfirmed)
		assert.Equal(t, user.ID.String(), claims.UserID)
	})

	t.Run("code can be reused", func(t *testing.T) {
		_, err := env.svc.Auth.ObtainToken(ctx, &request.TokenRequest{Username: "alice", ConfirmationCode: code})
		require.NoError(t, err)
	})
}
