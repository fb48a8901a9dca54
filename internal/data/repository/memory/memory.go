// Package memory is an in-process implementation of the repository
// interfaces. It enforces the same unique, foreign key, cascade and
// SET NULL rules as the PostgreSQL schema and backs DB_DRIVER=memory and
// the service and handler tests.
package memory

import (
	"sort"
	"strings"
	"sync"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type store struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]*entity.User
	categories  map[uuid.UUID]*entity.Category
	genres      map[uuid.UUID]*entity.Genre
	titles      map[uuid.UUID]*entity.Title
	titleGenres map[uuid.UUID]map[uuid.UUID]struct{}
	reviews     map[uuid.UUID]*entity.Review
	comments    map[uuid.UUID]*entity.Comment
	log         *zap.Logger
}

// NewRepository returns repositories sharing one empty in-memory store.
func NewRepository(log *zap.Logger) *repository.Repository {
	s := &store{
		users:       make(map[uuid.UUID]*entity.User),
		categories:  make(map[uuid.UUID]*entity.Category),
		genres:      make(map[uuid.UUID]*entity.Genre),
		titles:      make(map[uuid.UUID]*entity.Title),
		titleGenres: make(map[uuid.UUID]map[uuid.UUID]struct{}),
		reviews:     make(map[uuid.UUID]*entity.Review),
		comments:    make(map[uuid.UUID]*entity.Comment),
		log:         log.With(zap.String("repository", "memory")),
	}

	return &repository.Repository{
		User:     &userRepository{s},
		Category: &categoryRepository{s},
		Genre:    &genreRepository{s},
		Title:    &titleRepository{s},
		Review:   &reviewRepository{s},
		Comment:  &commentRepository{s},
	}
}

func duplicate(constraint string) error {
	return &repository.ConstraintError{Kind: repository.ErrDuplicate, Constraint: constraint}
}

func missingReference(constraint string) error {
	return &repository.ConstraintError{Kind: repository.ErrReference, Constraint: constraint}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// page applies offset and limit to an already sorted slice.
func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return items[offset:end]
}

// deleteReviewLocked removes a review and its comments.
func (s *store) deleteReviewLocked(id uuid.UUID) {
	delete(s.reviews, id)
	for commentID, comment := range s.comments {
		if comment.ReviewID == id {
			delete(s.comments, commentID)
		}
	}
}

// deleteTitleLocked removes a title, its genre links, reviews and comments.
func (s *store) deleteTitleLocked(id uuid.UUID) {
	delete(s.titles, id)
	delete(s.titleGenres, id)
	for reviewID, review := range s.reviews {
		if review.TitleID == id {
			s.deleteReviewLocked(reviewID)
		}
	}
	s.log.Debug("Title deleted", zap.String("title_id", id.String()))
}

func (s *store) usernameLocked(id uuid.UUID) string {
	if user, ok := s.users[id]; ok {
		return user.Username
	}
	return ""
}

func (s *store) titleViewLocked(title *entity.Title) *entity.Title {
	view := *title
	view.Category = nil
	view.Rating = nil
	view.Genres = []*entity.Genre{}

	if title.CategoryID != nil {
		if category, ok := s.categories[*title.CategoryID]; ok {
			c := *category
			view.Category = &c
		}
	}

	for genreID := range s.titleGenres[title.ID] {
		if genre, ok := s.genres[genreID]; ok {
			g := *genre
			view.Genres = append(view.Genres, &g)
		}
	}
	sort.Slice(view.Genres, func(i, j int) bool {
		if view.Genres[i].Name != view.Genres[j].Name {
			return view.Genres[i].Name < view.Genres[j].Name
		}
		return view.Genres[i].Slug < view.Genres[j].Slug
	})

	var (
		sum   int
		count int
	)
	for _, review := range s.reviews {
		if review.TitleID == title.ID {
			sum += review.Score
			count++
		}
	}
	if count > 0 {
		avg := float64(sum) / float64(count)
		view.Rating = &avg
	}

	return &view
}
