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
	"yamdb-api/pkg/metrics"
	"yamdb-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const duplicateReviewMessage = "only one review per work is allowed"

type ReviewService interface {
	GetTitleReviews(ctx context.Context, titleID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error)
	GetReview(ctx context.Context, titleID, reviewID uuid.UUID) (*response.ReviewResponse, error)
	// CreateReview fails with a non_field_errors validation error when actor
	// already reviewed the title.
	CreateReview(ctx context.Context, actor policy.Subject, titleID uuid.UUID, req *request.CreateReviewRequest) (*response.ReviewResponse, error)
	UpdateReview(ctx context.Context, actor policy.Subject, titleID, reviewID uuid.UUID, req *request.UpdateReviewRequest) (*response.ReviewResponse, error)
	DeleteReview(ctx context.Context, actor policy.Subject, titleID, reviewID uuid.UUID) error
}

type reviewService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewReviewService(repo *repository.Repository, log *zap.Logger) ReviewService {
	return &reviewService{
		repo: repo,
		log:  log.With(zap.String("service", "review")),
	}
}

func (s *reviewService) GetTitleReviews(ctx context.Context, titleID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error) {
	if err := s.ensureTitle(ctx, titleID); err != nil {
		return nil, err
	}

	reviews, err := s.repo.Review.FindByTitleID(ctx, titleID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list reviews of title %s: %w", titleID, err)
	}

	total, err := s.repo.Review.CountByTitleID(ctx, titleID)
	if err != nil {
		return nil, fmt.Errorf("count reviews of title %s: %w", titleID, err)
	}

	data := make([]response.ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		data = append(data, response.ReviewToResponse(review))
	}

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *reviewService) GetReview(ctx context.Context, titleID, reviewID uuid.UUID) (*response.ReviewResponse, error) {
	review, err := findReview(ctx, s.repo, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	resp := response.ReviewToResponse(review)
	return &resp, nil
}

func (s *reviewService) CreateReview(ctx context.Context, actor policy.Subject, titleID uuid.UUID, req *request.CreateReviewRequest) (*response.ReviewResponse, error) {
	if err := decisionError(policy.Check(actor, policy.Feedback, policy.Create, uuid.Nil)); err != nil {
		return nil, err
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationErrors(errs)
	}

	if err := s.ensureTitle(ctx, titleID); err != nil {
		return nil, err
	}

	// The unique (author, title) constraint decides; no pre-check.
	review := &entity.Review{
		ID:       uuid.New(),
		TitleID:  titleID,
		AuthorID: actor.ID,
		Text:     req.Text,
		Score:    req.Score,
		PubDate:  time.Now(),
	}

	if err := s.repo.Review.Create(ctx, review); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			metrics.ReviewsTotal.WithLabelValues("duplicate").Inc()
			s.log.Warn("Duplicate review rejected",
				zap.String("title_id", titleID.String()),
				zap.String("author_id", actor.ID.String()))
			return nil, fieldError(NonFieldErrors, duplicateReviewMessage)
		case errors.Is(err, repository.ErrReference):
			return nil, notFound("title %s", titleID)
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	metrics.ReviewsTotal.WithLabelValues("created").Inc()
	s.log.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("title_id", titleID.String()),
		zap.Int("score", review.Score))

	return s.GetReview(ctx, titleID, review.ID)
}

func (s *reviewService) UpdateReview(ctx context.Context, actor policy.Subject, titleID, reviewID uuid.UUID, req *request.UpdateReviewRequest) (*response.ReviewResponse, error) {
	review, err := findReview(ctx, s.repo, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	if err := decisionError(policy.Check(actor, policy.Feedback, policy.Update, review.AuthorID)); err != nil {
		return nil, err
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationErrors(errs)
	}

	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		review.Score = *req.Score
	}

	if err := s.repo.Review.Update(ctx, review); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("review %s", reviewID)
		}
		return nil, fmt.Errorf("update review %s: %w", reviewID, err)
	}

	s.log.Info("Review updated",
		zap.String("review_id", reviewID.String()),
		zap.String("actor_id", actor.ID.String()))

	resp := response.ReviewToResponse(review)
	return &resp, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, actor policy.Subject, titleID, reviewID uuid.UUID) error {
	review, err := findReview(ctx, s.repo, titleID, reviewID)
	if err != nil {
		return err
	}

	if err := decisionError(policy.Check(actor, policy.Feedback, policy.Delete, review.AuthorID)); err != nil {
		return err
	}

	if err := s.repo.Review.Delete(ctx, reviewID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("review %s", reviewID)
		}
		return fmt.Errorf("delete review %s: %w", reviewID, err)
	}

	s.log.Info("Review deleted",
		zap.String("review_id", reviewID.String()),
		zap.String("actor_id", actor.ID.String()))
	return nil
}

func (s *reviewService) ensureTitle(ctx context.Context, titleID uuid.UUID) error {
	exists, err := s.repo.Title.Exists(ctx, titleID)
	if err != nil {
		return fmt.Errorf("check title %s: %w", titleID, err)
	}
	if !exists {
		return notFound("title %s", titleID)
	}
	return nil
}

// findReview loads a review that belongs to titleID. An unknown title and a
// review of another title are both not found.
func findReview(ctx context.Context, repo *repository.Repository, titleID, reviewID uuid.UUID) (*entity.Review, error) {
	review, err := repo.Review.FindByID(ctx, titleID, reviewID)
	if err != nil {
		return nil, fmt.Errorf("find review %s: %w", reviewID, err)
	}
	if review == nil {
		return nil, notFound("review %s of title %s", reviewID, titleID)
	}
	return review, nil
}
