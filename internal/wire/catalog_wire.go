package wire

import (
	"yamdb-api/internal/adaptor"
	"yamdb-api/internal/policy"
	"yamdb-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireCategory(r chi.Router, categoryHandler *adaptor.CategoryHandler, log *zap.Logger) {
	r.Route("/categories", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Get("/", categoryHandler.GetCategories)

		// ==================== ADMIN ROUTES ====================
		r.With(middleware.Authorize(policy.Catalog, policy.Create, log)).Post("/", categoryHandler.CreateCategory)
		r.With(middleware.Authorize(policy.Catalog, policy.Delete, log)).Delete("/{slug}", categoryHandler.DeleteCategory)
	})
}

func wireGenre(r chi.Router, genreHandler *adaptor.GenreHandler, log *zap.Logger) {
	r.Route("/genres", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Get("/", genreHandler.GetGenres)

		// ==================== ADMIN ROUTES ====================
		r.With(middleware.Authorize(policy.Catalog, policy.Create, log)).Post("/", genreHandler.CreateGenre)
		r.With(middleware.Authorize(policy.Catalog, policy.Delete, log)).Delete("/{slug}", genreHandler.DeleteGenre)
	})
}

// wireTitle expects r to be mounted at /titles.
func wireTitle(r chi.Router, titleHandler *adaptor.TitleHandler, log *zap.Logger) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/", titleHandler.GetTitles)
	r.Get("/{title_id}", titleHandler.GetTitle)

	// ==================== ADMIN ROUTES ====================
	r.With(middleware.Authorize(policy.Catalog, policy.Create, log)).Post("/", titleHandler.CreateTitle)
	r.With(middleware.Authorize(policy.Catalog, policy.Update, log)).Patch("/{title_id}", titleHandler.UpdateTitle)
	r.With(middleware.Authorize(policy.Catalog, policy.Delete, log)).Delete("/{title_id}", titleHandler.DeleteTitle)
}
