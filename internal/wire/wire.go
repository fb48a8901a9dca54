// internal/wire/wire.go
package wire

import (
	"net/http"

	"yamdb-api/internal/adaptor"
	"yamdb-api/internal/data/repository"
	"yamdb-api/internal/usecase"
	"yamdb-api/pkg/mailer"
	"yamdb-api/pkg/middleware"
	"yamdb-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the wired HTTP router.
type App struct {
	Router *chi.Mux
}

// Deps are the collaborators built by the caller from configuration.
type Deps struct {
	Tokens  *utils.TokenManager
	Mailer  mailer.Mailer
	Limiter middleware.Limiter
}

// Wiring builds services, handlers and routes on top of repo.
func Wiring(repo *repository.Repository, config *utils.Config, deps Deps, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, deps.Tokens, deps.Mailer, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, repo, deps, logger)

	return &App{
		Router: router,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	deps Deps,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())
	r.Use(chimw.StripSlashes)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseNotFound(w, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseMethodNotAllowed(w)
	})

	r.Route("/api/v1", func(r chi.Router) {
		// anonymous callers pass through; invalid tokens are rejected
		r.Use(middleware.Authenticate(deps.Tokens, repo.User, logger))

		wireAuth(r, handler.Auth, deps.Limiter, logger)
		wireUser(r, handler.User, logger)
		wireCategory(r, handler.Category, logger)
		wireGenre(r, handler.Genre, logger)
		r.Route("/titles", func(r chi.Router) {
			wireTitle(r, handler.Title, logger)
			wireReview(r, handler.Review, handler.Comment, logger)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
