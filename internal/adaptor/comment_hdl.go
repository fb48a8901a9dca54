package adaptor

import (
	"net/http"

	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/policy"
	"yamdb-api/internal/usecase"
	"yamdb-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CommentHandler struct {
	service usecase.CommentService
	log     *zap.Logger
}

func NewCommentHandler(service usecase.CommentService, log *zap.Logger) *CommentHandler {
	return &CommentHandler{
		service: service,
		log:     log.With(zap.String("handler", "comment")),
	}
}

// reviewPath reads the title and review ids every comment route carries.
func reviewPath(w http.ResponseWriter, r *http.Request) (titleID, reviewID uuid.UUID, ok bool) {
	if titleID, ok = uuidParam(w, r, "title_id"); !ok {
		return
	}
	reviewID, ok = uuidParam(w, r, "review_id")
	return
}

// GetReviewComments handles GET .../reviews/{review_id}/comments (public)
func (h *CommentHandler) GetReviewComments(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := reviewPath(w, r)
	if !ok {
		return
	}

	req := pageFromQuery(r)
	comments, err := h.service.GetReviewComments(r.Context(), titleID, reviewID, &req)
	if err != nil {
		respondServiceError(w, h.log, err, "get review comments")
		return
	}

	utils.ResponseSuccess(w, "success", comments)
}

// GetComment handles GET .../comments/{comment_id} (public)
func (h *CommentHandler) GetComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := reviewPath(w, r)
	if !ok {
		return
	}
	commentID, ok := uuidParam(w, r, "comment_id")
	if !ok {
		return
	}

	comment, err := h.service.GetComment(r.Context(), titleID, reviewID, commentID)
	if err != nil {
		respondServiceError(w, h.log, err, "get comment")
		return
	}

	utils.ResponseSuccess(w, "success", comment)
}

// CreateComment handles POST .../reviews/{review_id}/comments (authenticated)
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := reviewPath(w, r)
	if !ok {
		return
	}

	var req request.CreateCommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := h.service.CreateComment(r.Context(), policy.SubjectFromContext(r.Context()), titleID, reviewID, &req)
	if err != nil {
		respondServiceError(w, h.log, err, "create comment")
		return
	}

	utils.ResponseCreated(w, "Comment created", comment)
}

// UpdateComment handles PATCH .../comments/{comment_id}
func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := reviewPath(w, r)
	if !ok {
		return
	}
	commentID, ok := uuidParam(w, r, "comment_id")
	if !ok {
		return
	}

	var req request.UpdateCommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := h.service.UpdateComment(r.Context(), policy.SubjectFromContext(r.Context()), titleID, reviewID, commentID, &req)
	if err != nil {
		respondServiceError(w, h.log, err, "update comment")
		return
	}

	utils.ResponseSuccess(w, "Comment updated", comment)
}

// DeleteComment handles DELETE .../comments/{comment_id}
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := reviewPath(w, r)
	if !ok {
		return
	}
	commentID, ok := uuidParam(w, r, "comment_id")
	if !ok {
		return
	}

	if err := h.service.DeleteComment(r.Context(), policy.SubjectFromContext(r.Context()), titleID, reviewID, commentID); err != nil {
		respondServiceError(w, h.log, err, "delete comment")
		return
	}

	utils.ResponseSuccess(w, "Comment deleted", nil)
}
