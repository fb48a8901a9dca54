package usecase

import (
	"context"
	"testing"
	"time"

	"yamdb-api/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestTitleYearBounds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	current := time.Now().Year()

	tests := []struct {
		name    string
		year    *int
		wantErr bool
	}{
		{"zero", intPtr(0), false},
		{"current year", intPtr(current), false},
		{"negative", intPtr(-1), true},
		{"next year", intPtr(current + 1), true},
		{"missing", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Title.CreateTitle(ctx, &request.TitleRequest{Name: "X", Year: tt.year})
			if tt.wantErr {
				requireFieldError(t, err, "year")
				return
			}
			require.NoError(t, err)
		})
	}

	title := env.title(t, "Y", 2000, "")
	_, err := env.svc.Title.UpdateTitle(ctx, uuid.MustParse(title.ID), &request.TitleUpdateRequest{Year: intPtr(current + 1)})
	requireFieldError(t, err, "year")
}

func TestTitleRejectsUnknownSlugs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.genre(t, "drama")

	_, err := env.svc.Title.CreateTitle(ctx, &request.TitleRequest{Name: "X", Year: intPtr(2000), Category: "nope"})
	requireFieldError(t, err, "category")

	_, err = env.svc.Title.CreateTitle(ctx, &request.TitleRequest{Name: "X", Year: intPtr(2000), Genre: []string{"drama", "nope"}})
	vErr := requireFieldError(t, err, "genre")
	assert.Contains(t, vErr.Fields["genre"], "nope")

	page, err := env.svc.Title.GetAllTitles(ctx, &request.TitleListRequest{PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 10}})
	require.NoError(t, err)
	assert.Zero(t, page.Pagination.Total)
}

func TestTitlePartialUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.category(t, "film")
	env.genre(t, "drama")
	env.genre(t, "comedy")

	title := env.title(t, "X", 2000, "film", "drama")
	id := uuid.MustParse(title.ID)
	require.NotNil(t, title.Category)
	require.Len(t, title.Genre, 1)

	updated, err := env.svc.Title.UpdateTitle(ctx, id, &request.TitleUpdateRequest{Name: strPtr("X2")})
	require.NoError(t, err)
	assert.Equal(t, "X2", updated.Name)
	assert.Len(t, updated.Genre, 1, "genres kept when omitted")
	require.NotNil(t, updated.Category)

	updated, err = env.svc.Title.UpdateTitle(ctx, id, &request.TitleUpdateRequest{Genre: []string{"comedy", "drama"}, Category: strPtr("")})
	require.NoError(t, err)
	assert.Len(t, updated.Genre, 2)
	assert.Nil(t, updated.Category)

	updated, err = env.svc.Title.UpdateTitle(ctx, id, &request.TitleUpdateRequest{Genre: []string{}})
	require.NoError(t, err)
	assert.Empty(t, updated.Genre)
}

func TestCategoryDeleteClearsTitleCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.category(t, "film")
	title := env.title(t, "X", 2020, "film")

	require.NoError(t, env.svc.Category.DeleteCategory(ctx, "film"))
	assert.ErrorIs(t, env.svc.Category.DeleteCategory(ctx, "film"), ErrNotFound)

	got, err := env.svc.Title.GetTitle(ctx, uuid.MustParse(title.ID))
	require.NoError(t, err)
	assert.Nil(t, got.Category)
}

func TestDuplicateSlugRejected(t *testing.T) {
	env := newTestEnv(t)
	env.genre(t, "drama")

	_, err := env.svc.Genre.CreateGenre(context.Background(), &request.GenreRequest{Name: "Drama again", Slug: "drama"})
	requireFieldError(t, err, "slug")

	_, err = env.svc.Category.CreateCategory(context.Background(), &request.CategoryRequest{Name: "Bad", Slug: "no spaces"})
	requireFieldError(t, err, "slug")
}
