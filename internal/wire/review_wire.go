package wire

import (
	"yamdb-api/internal/adaptor"
	"yamdb-api/internal/policy"
	"yamdb-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireReview mounts reviews and their comments under /titles/{title_id}.
// Ownership of the target object is checked by the services.
func wireReview(
	r chi.Router,
	reviewHandler *adaptor.ReviewHandler,
	commentHandler *adaptor.CommentHandler,
	log *zap.Logger,
) {
	r.Route("/{title_id}/reviews", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Get("/", reviewHandler.GetTitleReviews)
		r.Get("/{review_id}", reviewHandler.GetReview)
		r.Get("/{review_id}/comments", commentHandler.GetReviewComments)
		r.Get("/{review_id}/comments/{comment_id}", commentHandler.GetComment)

		// ==================== PROTECTED ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth())

			r.With(middleware.Authorize(policy.Feedback, policy.Create, log)).Post("/", reviewHandler.CreateReview)
			r.Patch("/{review_id}", reviewHandler.UpdateReview)
			r.Delete("/{review_id}", reviewHandler.DeleteReview)

			r.With(middleware.Authorize(policy.Feedback, policy.Create, log)).Post("/{review_id}/comments", commentHandler.CreateComment)
			r.Patch("/{review_id}/comments/{comment_id}", commentHandler.UpdateComment)
			r.Delete("/{review_id}/comments/{comment_id}", commentHandler.DeleteComment)
		})
	})
}
