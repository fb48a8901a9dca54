package memory

import (
	"context"
	"fmt"
	"sort"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/data/repository"

	"github.com/google/uuid"
)

type reviewRepository struct {
	*store
}

func (r *reviewRepository) viewLocked(review *entity.Review) *entity.Review {
	v := *review
	v.AuthorUsername = r.usernameLocked(review.AuthorID)
	return &v
}

// Create checks the (author, title) pair under the write lock, so concurrent
// creations for one pair cannot both succeed.
func (r *reviewRepository) Create(_ context.Context, review *entity.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.titles[review.TitleID]; !ok {
		return fmt.Errorf("create review: %w", missingReference("reviews_title_id_fkey"))
	}
	if _, ok := r.users[review.AuthorID]; !ok {
		return fmt.Errorf("create review: %w", missingReference("reviews_author_id_fkey"))
	}
	for _, other := range r.reviews {
		if other.AuthorID == review.AuthorID && other.TitleID == review.TitleID {
			return fmt.Errorf("create review for title %s by user %s: %w",
				review.TitleID, review.AuthorID, duplicate(repository.ConstraintReviewAuthorTitle))
		}
	}

	v := *review
	v.AuthorUsername = ""
	r.reviews[review.ID] = &v
	return nil
}

func (r *reviewRepository) FindByID(_ context.Context, titleID, id uuid.UUID) (*entity.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	review, ok := r.reviews[id]
	if !ok || review.TitleID != titleID {
		return nil, nil
	}
	return r.viewLocked(review), nil
}

func (r *reviewRepository) byTitleLocked(titleID uuid.UUID) []*entity.Review {
	reviews := make([]*entity.Review, 0)
	for _, review := range r.reviews {
		if review.TitleID == titleID {
			reviews = append(reviews, r.viewLocked(review))
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		if !reviews[i].PubDate.Equal(reviews[j].PubDate) {
			return reviews[i].PubDate.After(reviews[j].PubDate)
		}
		return reviews[i].ID.String() < reviews[j].ID.String()
	})
	return reviews
}

func (r *reviewRepository) FindByTitleID(_ context.Context, titleID uuid.UUID, limit, offset int) ([]*entity.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return page(r.byTitleLocked(titleID), limit, offset), nil
}

func (r *reviewRepository) CountByTitleID(_ context.Context, titleID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.byTitleLocked(titleID))), nil
}

func (r *reviewRepository) Update(_ context.Context, review *entity.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.reviews[review.ID]
	if !ok {
		return fmt.Errorf("update review %s: %w", review.ID, repository.ErrNotFound)
	}
	stored.Text = review.Text
	stored.Score = review.Score
	return nil
}

func (r *reviewRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reviews[id]; !ok {
		return fmt.Errorf("delete review %s: %w", id, repository.ErrNotFound)
	}
	r.deleteReviewLocked(id)
	return nil
}

type commentRepository struct {
	*store
}

func (r *commentRepository) viewLocked(comment *entity.Comment) *entity.Comment {
	v := *comment
	v.AuthorUsername = r.usernameLocked(comment.AuthorID)
	return &v
}

func (r *commentRepository) Create(_ context.Context, comment *entity.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reviews[comment.ReviewID]; !ok {
		return fmt.Errorf("create comment: %w", missingReference("comments_review_id_fkey"))
	}
	if _, ok := r.users[comment.AuthorID]; !ok {
		return fmt.Errorf("create comment: %w", missingReference("comments_author_id_fkey"))
	}

	v := *comment
	v.AuthorUsername = ""
	r.comments[comment.ID] = &v
	return nil
}

func (r *commentRepository) FindByID(_ context.Context, reviewID, id uuid.UUID) (*entity.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	comment, ok := r.comments[id]
	if !ok || comment.ReviewID != reviewID {
		return nil, nil
	}
	return r.viewLocked(comment), nil
}

func (r *commentRepository) byReviewLocked(reviewID uuid.UUID) []*entity.Comment {
	comments := make([]*entity.Comment, 0)
	for _, comment := range r.comments {
		if comment.ReviewID == reviewID {
			comments = append(comments, r.viewLocked(comment))
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].PubDate.Equal(comments[j].PubDate) {
			return comments[i].PubDate.Before(comments[j].PubDate)
		}
		return comments[i].ID.String() < comments[j].ID.String()
	})
	return comments
}

func (r *commentRepository) FindByReviewID(_ context.Context, reviewID uuid.UUID, limit, offset int) ([]*entity.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return page(r.byReviewLocked(reviewID), limit, offset), nil
}

func (r *commentRepository) CountByReviewID(_ context.Context, reviewID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.byReviewLocked(reviewID))), nil
}

func (r *commentRepository) Update(_ context.Context, comment *entity.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.comments[comment.ID]
	if !ok {
		return fmt.Errorf("update comment %s: %w", comment.ID, repository.ErrNotFound)
	}
	stored.Text = comment.Text
	return nil
}

func (r *commentRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.comments[id]; !ok {
		return fmt.Errorf("delete comment %s: %w", id, repository.ErrNotFound)
	}
	delete(r.comments, id)
	return nil
}
