package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/data/repository"
	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/dto/response"
	"yamdb-api/internal/policy"
	"yamdb-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommentService works on comments of a review, which is itself addressed
// through its title.
type CommentService interface {
	GetReviewComments(ctx context.Context, titleID, reviewID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.CommentResponse], error)
	GetComment(ctx context.Context, titleID, reviewID, commentID uuid.UUID) (*response.CommentResponse, error)
	CreateComment(ctx context.Context, actor policy.Subject, titleID, reviewID uuid.UUID, req *request.CreateCommentRequest) (*response.CommentResponse, error)
	UpdateComment(ctx context.Context, actor policy.Subject, titleID, reviewID, commentID uuid.UUID, req *request.UpdateCommentRequest) (*response.CommentResponse, error)
	DeleteComment(ctx context.Context, actor policy.Subject, titleID, reviewID, commentID uuid.UUID) error
}

type commentService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewCommentService(repo *repository.Repository, log *zap.Logger) CommentService {
	return &commentService{
		repo: repo,
		log:  log.With(zap.String("service", "comment")),
	}
}

func (s *commentService) GetReviewComments(ctx context.Context, titleID, reviewID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.CommentResponse], error) {
	if _, err := findReview(ctx, s.repo, titleID, reviewID); err != nil {
		return nil, err
	}

	comments, err := s.repo.Comment.FindByReviewID(ctx, reviewID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list comments of review %s: %w", reviewID, err)
	}

	total, err := s.repo.Comment.CountByReviewID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("count comments of review %s: %w", reviewID, err)
	}

	data := make([]response.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		data = append(data, response.CommentToResponse(comment))
	}

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *commentService) GetComment(ctx context.Context, titleID, reviewID, commentID uuid.UUID) (*response.CommentResponse, error) {
	comment, err := s.findComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	resp := response.CommentToResponse(comment)
	return &resp, nil
}

func (s *commentService) CreateComment(ctx context.Context, actor policy.Subject, titleID, reviewID uuid.UUID, req *request.CreateCommentRequest) (*response.CommentResponse, error) {
	if err := decisionError(policy.Check(actor, policy.Feedback, policy.Create, uuid.Nil)); err != nil {
		return nil, err
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationErrors(errs)
	}

	if _, err := findReview(ctx, s.repo, titleID, reviewID); err != nil {
		return nil, err
	}

	comment := &entity.Comment{
		ID:       uuid.New(),
		ReviewID: reviewID,
		AuthorID: actor.ID,
		Text:     req.Text,
		PubDate:  time.Now(),
	}

	if err := s.repo.Comment.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrReference) {
			return nil, notFound("review %s", reviewID)
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.log.Info("Comment created",
		zap.String("comment_id", comment.ID.String()),
		zap.String("review_id", reviewID.String()))

	return s.GetComment(ctx, titleID, reviewID, comment.ID)
}

func (s *commentService) UpdateComment(ctx context.Context, actor policy.Subject, titleID, reviewID, commentID uuid.UUID, req *request.UpdateCommentRequest) (*response.CommentResponse, error) {
	comment, err := s.findComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	if err := decisionError(policy.Check(actor, policy.Feedback, policy.Update, comment.AuthorID)); err != nil {
		return nil, err
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationErrors(errs)
	}

	if req.Text != nil {
		comment.Text = *req.Text
	}

	if err := s.repo.Comment.Update(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("comment %s", commentID)
		}
		return nil, fmt.Errorf("update comment %s: %w", commentID, err)
	}

	resp := response.CommentToResponse(comment)
	return &resp, nil
}

func (s *commentService) DeleteComment(ctx context.Context, actor policy.Subject, titleID, reviewID, commentID uuid.UUID) error {
	comment, err := s.findComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}

	if err := decisionError(policy.Check(actor, policy.Feedback, policy.Delete, comment.AuthorID)); err != nil {
		return err
	}

	if err := s.repo.Comment.Delete(ctx, commentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("comment %s", commentID)
		}
		return fmt.Errorf("delete comment %s: %w", commentID, err)
	}

	s.log.Info("Comment deleted",
		zap.String("comment_id", commentID.String()),
		zap.String("actor_id", actor.ID.String()))
	return nil
}

func (s *commentService) findComment(ctx context.Context, titleID, reviewID, commentID uuid.UUID) (*entity.Comment, error) {
	if _, err := findReview(ctx, s.repo, titleID, reviewID); err != nil {
		return nil, err
	}

	comment, err := s.repo.Comment.FindByID(ctx, reviewID, commentID)
	if err != nil {
		return nil, fmt.Errorf("find comment %s: %w", commentID, err)
	}
	if comment == nil {
		return nil, notFound("comment %s", commentID)
	}
	return comment, nil
}
