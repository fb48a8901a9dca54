package wire

import (
	"net/http"

	"yamdb-api/internal/adaptor"
	"yamdb-api/internal/policy"
	"yamdb-api/pkg/middleware"
	"yamdb-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireUser configures the profile and admin user directory routes
func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	log *zap.Logger,
) {
	r.Route("/users", func(r chi.Router) {
		// ==================== PROFILE ROUTES ====================
		r.With(middleware.Authorize(policy.Profile, policy.Retrieve, log)).Get("/me", userHandler.GetProfile)
		r.With(middleware.Authorize(policy.Profile, policy.Update, log)).Patch("/me", userHandler.UpdateProfile)
		r.Delete("/me", func(w http.ResponseWriter, _ *http.Request) {
			utils.ResponseMethodNotAllowed(w)
		})

		// ==================== ADMIN ROUTES ====================
		r.With(middleware.Authorize(policy.Users, policy.List, log)).Get("/", userHandler.GetAllUsers)
		r.With(middleware.Authorize(policy.Users, policy.Create, log)).Post("/", userHandler.CreateUser)
		r.With(middleware.Authorize(policy.Users, policy.Retrieve, log)).Get("/{username}", userHandler.GetUser)
		r.With(middleware.Authorize(policy.Users, policy.Update, log)).Patch("/{username}", userHandler.UpdateUser)
		r.With(middleware.Authorize(policy.Users, policy.Delete, log)).Delete("/{username}", userHandler.DeleteUser)
	})
}
