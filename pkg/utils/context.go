package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	AuthUserKey contextKey = "auth_user"
	TokenKey    contextKey = "token"
)

// AuthUser is the authenticated caller as loaded from the user directory.
type AuthUser struct {
	ID          uuid.UUID
	Username    string
	Role        string
	IsSuperuser bool
}

func SetAuthUser(ctx context.Context, user AuthUser) context.Context {
	return context.WithValue(ctx, AuthUserKey, user)
}

func GetAuthUser(ctx context.Context) (AuthUser, bool) {
	user, ok := ctx.Value(AuthUserKey).(AuthUser)
	return user, ok
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	user, ok := GetAuthUser(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return user.ID, true
}

// GetTokenFromContext returns the raw bearer token stored by Authenticate.
func GetTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

func SetTokenContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}
