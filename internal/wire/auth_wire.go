package wire

import (
	"yamdb-api/internal/adaptor"
	"yamdb-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	limiter middleware.Limiter,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// Rate limited per client address
	r.With(middleware.RateLimit(limiter, log)).Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/token", authHandler.Token)
	})
}
