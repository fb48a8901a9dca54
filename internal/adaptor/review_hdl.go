package adaptor

import (
	"net/http"

	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/policy"
	"yamdb-api/internal/usecase"
	"yamdb-api/pkg/utils"

	"go.uber.org/zap"
)

type ReviewHandler struct {
	service usecase.ReviewService
	log     *zap.Logger
}

func NewReviewHandler(service usecase.ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log.With(zap.String("handler", "review")),
	}
}

// GetTitleReviews handles GET /api/v1/titles/{title_id}/reviews (public)
func (h *ReviewHandler) GetTitleReviews(w http.ResponseWriter, r *http.Request) {
	titleID, ok := uuidParam(w, r, "title_id")
	if !ok {
		return
	}

	req := pageFromQuery(r)
	reviews, err := h.service.GetTitleReviews(r.Context(), titleID, &req)
	if err != nil {
		respondServiceError(w, h.log, err, "get title reviews")
		return
	}

	utils.ResponseSuccess(w, "success", reviews)
}

// GetReview handles GET /api/v1/titles/{title_id}/reviews/{review_id} (public)
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	titleID, ok := uuidParam(w, r, "title_id")
	if !ok {
		return
	}
	reviewID, ok := uuidParam(w, r, "review_id")
	if !ok {
		return
	}

	review, err := h.service.GetReview(r.Context(), titleID, reviewID)
	if err != nil {
		respondServiceError(w, h.log, err, "get review")
		return
	}

	utils.ResponseSuccess(w, "success", review)
}

// CreateReview handles POST /api/v1/titles/{title_id}/reviews (authenticated)
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	titleID, ok := uuidParam(w, r, "title_id")
	if !ok {
		return
	}

	var req request.CreateReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	review, err := h.service.CreateReview(r.Context(), policy.SubjectFromContext(r.Context()), titleID, &req)
	if err != nil {
		respondServiceError(w, h.log, err, "create review")
		return
	}

	utils.ResponseCreated(w, "Review created", review)
}

// UpdateReview handles PATCH /api/v1/titles/{title_id}/reviews/{review_id}
// (author, moderator or admin)
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	titleID, ok := uuidParam(w, r, "title_id")
	if !ok {
		return
	}
	reviewID, ok := uuidParam(w, r, "review_id")
	if !ok {
		return
	}

	var req request.UpdateReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	review, err := h.service.UpdateReview(r.Context(), policy.SubjectFromContext(r.Context()), titleID, reviewID, &req)
	if err != nil {
		respondServiceError(w, h.log, err, "update review")
		return
	}

	utils.ResponseSuccess(w, "Review updated", review)
}

// DeleteReview handles DELETE /api/v1/titles/{title_id}/reviews/{review_id}
// (author, moderator or admin)
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	titleID, ok := uuidParam(w, r, "title_id")
	if !ok {
		return
	}
	reviewID, ok := uuidParam(w, r, "review_id")
	if !ok {
		return
	}

	if err := h.service.DeleteReview(r.Context(), policy.SubjectFromContext(r.Context()), titleID, reviewID); err != nil {
		respondServiceError(w, h.log, err, "delete review")
		return
	}

	utils.ResponseSuccess(w, "Review deleted", nil)
}
