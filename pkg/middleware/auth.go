package middleware

import (
	"net/http"
	"strings"

	"yamdb-api/internal/data/repository"
	"yamdb-api/internal/policy"
	"yamdb-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Authenticate resolves an optional bearer token into the calling user.
// Requests without an Authorization header pass through anonymously; a header
// that is malformed, expired or points at a deleted user is rejected with 401.
func Authenticate(tokens *utils.TokenManager, userRepo repository.UserRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			token := strings.TrimSpace(parts[1])

			claims, err := tokens.Parse(token)
			if err != nil {
				logger.Warn("Invalid or expired token", zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			userID, _ := uuid.Parse(claims.UserID)

			// role is read on every request so demotions apply immediately
			user, err := userRepo.FindByID(r.Context(), userID)
			if err != nil {
				logger.Error("Failed to load token user",
					zap.String("user_id", claims.UserID),
					zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}

			if user == nil {
				logger.Warn("Token user no longer exists", zap.String("user_id", claims.UserID))
				utils.ResponseUnauthorized(w, "User not found")
				return
			}

			ctx := utils.SetAuthUser(r.Context(), utils.AuthUser{
				ID:          user.ID,
				Username:    user.Username,
				Role:        string(user.Role),
				IsSuperuser: user.IsSuperuser,
			})
			ctx = utils.SetTokenContext(ctx, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := utils.GetAuthUser(r.Context()); !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authorize applies the class-level access policy for resource and action.
// Ownership checks on feedback are left to the services.
func Authorize(resource policy.Resource, action policy.Action, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := policy.SubjectFromContext(r.Context())

			switch policy.Check(subject, resource, action, uuid.Nil) {
			case policy.DenyUnauthenticated:
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			case policy.DenyForbidden:
				logger.Warn("Access denied",
					zap.String("user_id", subject.ID.String()),
					zap.String("role", string(subject.Role)),
					zap.String("resource", resource.String()),
					zap.String("action", action.String()),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "You do not have permission to perform this action")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
