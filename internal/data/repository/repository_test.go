package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"yamdb-api/internal/data/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key value"}
}

func TestMapPgError(t *testing.T) {
	err := mapPgError(fmt.Errorf("exec: %w", uniqueViolation(ConstraintReviewAuthorTitle)))
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NotErrorIs(t, err, ErrReference)
	assert.Equal(t, ConstraintReviewAuthorTitle, ConstraintName(err))

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr), "original error stays reachable")

	fk := mapPgError(&pgconn.PgError{Code: "23503", ConstraintName: "titles_category_id_fkey"})
	assert.ErrorIs(t, fk, ErrReference)

	plain := errors.New("connection reset")
	assert.Same(t, plain, mapPgError(plain))
	assert.Equal(t, "", ConstraintName(plain))
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%star%", containsPattern("star"))
	assert.Equal(t, `%100\%\_off\\%`, containsPattern(`100%_off\`))
}

func TestTitleWhere(t *testing.T) {
	where, args := titleWhere(entity.TitleFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	year := 2020
	where, args = titleWhere(entity.TitleFilter{Name: "war", Year: &year, Category: "film", Genre: "drama"})
	assert.Contains(t, where, "t.name ILIKE $1")
	assert.Contains(t, where, "t.year = $2")
	assert.Contains(t, where, "c.slug = $3")
	assert.Contains(t, where, "g.slug = $4")
	assert.Equal(t, []any{"%war%", 2020, "film", "drama"}, args)
}

func TestReviewRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock, zap.NewNop())

	review := &entity.Review{
		ID:       uuid.New(),
		TitleID:  uuid.New(),
		AuthorID: uuid.New(),
		Text:     "great",
		Score:    8,
		PubDate:  time.Now(),
	}

	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(review.ID, review.TitleID, review.AuthorID, review.Text, review.Score, review.PubDate).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), review))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_CreateDuplicate(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock, zap.NewNop())

	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(uniqueViolation(ConstraintReviewAuthorTitle))

	err := repo.Create(context.Background(), &entity.Review{ID: uuid.New(), Score: 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, ConstraintReviewAuthorTitle, ConstraintName(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_FindByTitleID(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock, zap.NewNop())

	titleID := uuid.New()
	authorID := uuid.New()
	newer := time.Now()
	older := newer.Add(-time.Hour)

	rows := pgxmock.NewRows([]string{"id", "title_id", "author_id", "username", "text", "score", "pub_date"}).
		AddRow(uuid.New(), titleID, authorID, "alice", "second", 9, newer).
		AddRow(uuid.New(), titleID, authorID, "bob", "first", 4, older)

	mock.ExpectQuery(`ORDER BY r.pub_date DESC`).
		WithArgs(titleID, 10, 0).
		WillReturnRows(rows)

	reviews, err := repo.FindByTitleID(context.Background(), titleID, 10, 0)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "alice", reviews[0].AuthorUsername)
	assert.Equal(t, 9, reviews[0].Score)
	assert.Equal(t, "first", reviews[1].Text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_DeleteMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock, zap.NewNop())

	id := uuid.New()
	mock.ExpectExec("DELETE FROM reviews").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByUsernameMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, zap.NewNop())

	mock.ExpectQuery("FROM users WHERE username = ").
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	user, err := repo.FindByUsername(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, zap.NewNop())

	args := make([]any, 12)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	mock.ExpectExec("INSERT INTO users").
		WithArgs(args...).
		WillReturnError(uniqueViolation(ConstraintEmail))

	err := repo.Create(context.Background(), &entity.User{Username: "alice", Email: "a@example.com", Role: entity.RoleUser})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, ConstraintEmail, ConstraintName(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateConfirmationCode(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, zap.NewNop())

	id := uuid.New()
	mock.ExpectExec("UPDATE users SET confirmation_code").
		WithArgs(id, "hash").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateConfirmationCode(context.Background(), id, "hash"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_CountAllWithSearch(t *testing.T) {
	mock := newMock(t)
	repo := NewCategoryRepository(mock, zap.NewNop())

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("fil", "%fil%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := repo.CountAll(context.Background(), "fil")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_DeleteBySlugMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewCategoryRepository(mock, zap.NewNop())

	mock.ExpectExec("DELETE FROM categories").
		WithArgs("nope").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.DeleteBySlug(context.Background(), "nope"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenreRepository_FindBySlugsEmpty(t *testing.T) {
	mock := newMock(t)
	repo := NewGenreRepository(mock, zap.NewNop())

	genres, err := repo.FindBySlugs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, genres)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenreRepository_CreateDuplicateSlug(t *testing.T) {
	mock := newMock(t)
	repo := NewGenreRepository(mock, zap.NewNop())

	genre := &entity.Genre{BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()}, Name: "Drama", Slug: "drama"}
	mock.ExpectExec("INSERT INTO genres").
		WithArgs(genre.ID, genre.Name, genre.Slug, genre.CreatedAt).
		WillReturnError(uniqueViolation(ConstraintGenreSlug))

	err := repo.Create(context.Background(), genre)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, ConstraintGenreSlug, ConstraintName(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTitleRepository_CreateLinksGenresInTransaction(t *testing.T) {
	mock := newMock(t)
	repo := NewTitleRepository(mock, zap.NewNop())

	now := time.Now()
	title := &entity.Title{
		Base: entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name: "X",
		Year: 2020,
	}
	drama, comedy := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO titles").
		WithArgs(title.ID, title.Name, title.Year, title.Description, title.CategoryID, now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO title_genres").
		WithArgs(title.ID, drama).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO title_genres").
		WithArgs(title.ID, comedy).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), title, []uuid.UUID{drama, comedy}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTitleRepository_CreateRollsBackOnLinkFailure(t *testing.T) {
	mock := newMock(t)
	repo := NewTitleRepository(mock, zap.NewNop())

	now := time.Now()
	title := &entity.Title{Base: entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}, Name: "X", Year: 2020}
	genreID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO titles").
		WithArgs(title.ID, title.Name, title.Year, title.Description, title.CategoryID, now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO title_genres").
		WithArgs(title.ID, genreID).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "title_genres_genre_id_fkey"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), title, []uuid.UUID{genreID})
	assert.ErrorIs(t, err, ErrReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTitleRepository_UpdateKeepsGenresWhenNil(t *testing.T) {
	mock := newMock(t)
	repo := NewTitleRepository(mock, zap.NewNop())

	now := time.Now()
	title := &entity.Title{Base: entity.Base{ID: uuid.New(), UpdatedAt: now}, Name: "Y", Year: 1999}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE titles").
		WithArgs(title.ID, title.Name, title.Year, title.Description, title.CategoryID, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), title, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTitleRepository_UpdateReplacesGenres(t *testing.T) {
	mock := newMock(t)
	repo := NewTitleRepository(mock, zap.NewNop())

	now := time.Now()
	title := &entity.Title{Base: entity.Base{ID: uuid.New(), UpdatedAt: now}, Name: "Y", Year: 1999}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE titles").
		WithArgs(title.ID, title.Name, title.Year, title.Description, title.CategoryID, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("DELETE FROM title_genres").
		WithArgs(title.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), title, []uuid.UUID{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTitleRepository_Exists(t *testing.T) {
	mock := newMock(t)
	repo := NewTitleRepository(mock, zap.NewNop())

	id := uuid.New()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
