package usecase

import (
	"context"
	"sync"
	"testing"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/policy"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateReviewRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.subject(t, "alice", entity.RoleUser)
	titleID := uuid.MustParse(env.title(t, "X", 2020, "").ID)

	review, err := env.svc.Review.CreateReview(ctx, alice, titleID, &request.CreateReviewRequest{Text: "good", Score: 8})
	require.NoError(t, err)
	assert.Equal(t, "alice", review.Author)

	_, err = env.svc.Review.CreateReview(ctx, alice, titleID, &request.CreateReviewRequest{Text: "again", Score: 3})
	vErr := requireFieldError(t, err, NonFieldErrors)
	assert.Equal(t, "only one review per work is allowed", vErr.Fields[NonFieldErrors])

	title, err := env.svc.Title.GetTitle(ctx, titleID)
	require.NoError(t, err)
	require.NotNil(t, title.Rating)
	assert.Equal(t, 8, *title.Rating)
}

func TestConcurrentDuplicateReview(t *testing.T) {
	env := newTestEnv(t)
	alice := env.subject(t, "alice", entity.RoleUser)
	titleID := uuid.MustParse(env.title(t, "X", 2020, "").ID)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.Review.CreateReview(context.Background(), alice, titleID, &request.CreateReviewRequest{Text: "t", Score: 5})
		}(i)
	}
	wg.Wait()

	var created, rejected int
	for _, err := range errs {
		var vErr *ValidationError
		switch {
		case err == nil:
			created++
		case assert.ErrorAs(t, err, &vErr):
			rejected++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, rejected)
}

func TestReviewScoreBoundsAndUnknownTitle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.subject(t, "alice", entity.RoleUser)
	titleID := uuid.MustParse(env.title(t, "X", 2020, "").ID)

	_, err := env.svc.Review.CreateReview(ctx, alice, titleID, &request.CreateReviewRequest{Text: "t", Score: 11})
	requireFieldError(t, err, "score")

	_, err = env.svc.Review.CreateReview(ctx, alice, uuid.New(), &request.CreateReviewRequest{Text: "t", Score: 5})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.Review.GetTitleReviews(ctx, uuid.New(), &request.PaginatedRequest{Page: 1, PerPage: 10})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeedbackOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.subject(t, "alice", entity.RoleUser)
	bob := env.subject(t, "bob", entity.RoleUser)
	mod := env.subject(t, "mod", entity.RoleModerator)
	titleID := uuid.MustParse(env.title(t, "X", 2020, "").ID)

	review, err := env.svc.Review.CreateReview(ctx, alice, titleID, &request.CreateReviewRequest{Text: "good", Score: 8})
	require.NoError(t, err)
	reviewID := uuid.MustParse(review.ID)

	_, err = env.svc.Review.UpdateReview(ctx, bob, titleID, reviewID, &request.UpdateReviewRequest{Score: intPtr(1)})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.Review.UpdateReview(ctx, policy.Subject{}, titleID, reviewID, &request.UpdateReviewRequest{Score: intPtr(1)})
	assert.ErrorIs(t, err, ErrUnauthorized)

	updated, err := env.svc.Review.UpdateReview(ctx, alice, titleID, reviewID, &request.UpdateReviewRequest{Score: intPtr(9)})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Score)
	assert.Equal(t, "good", updated.Text)

	comment, err := env.svc.Comment.CreateComment(ctx, bob, titleID, reviewID, &request.CreateCommentRequest{Text: "agree"})
	require.NoError(t, err)
	commentID := uuid.MustParse(comment.ID)
	assert.Equal(t, "bob", comment.Author)

	assert.ErrorIs(t, env.svc.Comment.DeleteComment(ctx, alice, titleID, reviewID, commentID), ErrForbidden)
	require.NoError(t, env.svc.Comment.DeleteComment(ctx, mod, titleID, reviewID, commentID))

	require.NoError(t, env.svc.Review.DeleteReview(ctx, mod, titleID, reviewID))
	_, err = env.svc.Review.GetReview(ctx, titleID, reviewID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentRequiresReviewOfTitle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.subject(t, "alice", entity.RoleUser)
	first := uuid.MustParse(env.title(t, "X", 2020, "").ID)
	second := uuid.MustParse(env.title(t, "Y", 2020, "").ID)

	review, err := env.svc.Review.CreateReview(ctx, alice, first, &request.CreateReviewRequest{Text: "t", Score: 5})
	require.NoError(t, err)
	reviewID := uuid.MustParse(review.ID)

	_, err = env.svc.Comment.CreateComment(ctx, alice, second, reviewID, &request.CreateCommentRequest{Text: "c"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.Comment.GetReviewComments(ctx, second, reviewID, &request.PaginatedRequest{Page: 1, PerPage: 10})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.Comment.CreateComment(ctx, policy.Subject{}, first, reviewID, &request.CreateCommentRequest{Text: "c"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTitleDeleteCascadesFeedback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.subject(t, "alice", entity.RoleUser)
	titleID := uuid.MustParse(env.title(t, "X", 2020, "").ID)

	review, err := env.svc.Review.CreateReview(ctx, alice, titleID, &request.CreateReviewRequest{Text: "t", Score: 5})
	require.NoError(t, err)
	reviewID := uuid.MustParse(review.ID)
	comment, err := env.svc.Comment.CreateComment(ctx, alice, titleID, reviewID, &request.CreateCommentRequest{Text: "c"})
	require.NoError(t, err)

	require.NoError(t, env.svc.Title.DeleteTitle(ctx, titleID))

	_, err = env.svc.Review.GetReview(ctx, titleID, reviewID)
	assert.ErrorIs(t, err, ErrNotFound)

	left, err := env.repo.Comment.FindByID(ctx, reviewID, uuid.MustParse(comment.ID))
	require.NoError(t, err)
	assert.Nil(t, left)

	assert.ErrorIs(t, env.svc.Title.DeleteTitle(ctx, titleID), ErrNotFound)
}
