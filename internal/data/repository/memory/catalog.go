package memory

import (
	"context"
	"fmt"
	"sort"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/data/repository"

	"github.com/google/uuid"
)

type categoryRepository struct {
	*store
}

func (r *categoryRepository) Create(_ context.Context, category *entity.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, other := range r.categories {
		if other.Slug == category.Slug {
			return fmt.Errorf("create category %s: %w", category.Slug, duplicate(repository.ConstraintCategorySlug))
		}
	}

	c := *category
	r.categories[category.ID] = &c
	return nil
}

func (r *categoryRepository) FindBySlug(_ context.Context, slug string) (*entity.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, category := range r.categories {
		if category.Slug == slug {
			c := *category
			return &c, nil
		}
	}
	return nil, nil
}

func (r *categoryRepository) filterLocked(search string) []*entity.Category {
	categories := make([]*entity.Category, 0, len(r.categories))
	for _, category := range r.categories {
		if search == "" || containsFold(category.Name, search) {
			c := *category
			categories = append(categories, &c)
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Name != categories[j].Name {
			return categories[i].Name < categories[j].Name
		}
		return categories[i].Slug < categories[j].Slug
	})
	return categories
}

func (r *categoryRepository) FindAll(_ context.Context, search string, limit, offset int) ([]*entity.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return page(r.filterLocked(search), limit, offset), nil
}

func (r *categoryRepository) CountAll(_ context.Context, search string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.filterLocked(search))), nil
}

// DeleteBySlug clears category_id on referencing titles.
func (r *categoryRepository) DeleteBySlug(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, category := range r.categories {
		if category.Slug != slug {
			continue
		}
		delete(r.categories, id)
		for _, title := range r.titles {
			if title.CategoryID != nil && *title.CategoryID == id {
				title.CategoryID = nil
			}
		}
		return nil
	}
	return fmt.Errorf("delete category %s: %w", slug, repository.ErrNotFound)
}

type genreRepository struct {
	*store
}

func (r *genreRepository) Create(_ context.Context, genre *entity.Genre) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, other := range r.genres {
		if other.Slug == genre.Slug {
			return fmt.Errorf("create genre %s: %w", genre.Slug, duplicate(repository.ConstraintGenreSlug))
		}
	}

	g := *genre
	r.genres[genre.ID] = &g
	return nil
}

func (r *genreRepository) FindBySlug(_ context.Context, slug string) (*entity.Genre, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, genre := range r.genres {
		if genre.Slug == slug {
			g := *genre
			return &g, nil
		}
	}
	return nil, nil
}

func (r *genreRepository) FindBySlugs(_ context.Context, slugs []string) ([]*entity.Genre, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(slugs))
	for _, slug := range slugs {
		wanted[slug] = struct{}{}
	}

	genres := make([]*entity.Genre, 0, len(slugs))
	for _, genre := range r.genres {
		if _, ok := wanted[genre.Slug]; ok {
			g := *genre
			genres = append(genres, &g)
		}
	}
	return genres, nil
}

func (r *genreRepository) filterLocked(search string) []*entity.Genre {
	genres := make([]*entity.Genre, 0, len(r.genres))
	for _, genre := range r.genres {
		if search == "" || containsFold(genre.Name, search) {
			g := *genre
			genres = append(genres, &g)
		}
	}
	sort.Slice(genres, func(i, j int) bool {
		if genres[i].Name != genres[j].Name {
			return genres[i].Name < genres[j].Name
		}
		return genres[i].Slug < genres[j].Slug
	})
	return genres
}

func (r *genreRepository) FindAll(_ context.Context, search string, limit, offset int) ([]*entity.Genre, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return page(r.filterLocked(search), limit, offset), nil
}

func (r *genreRepository) CountAll(_ context.Context, search string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.filterLocked(search))), nil
}

func (r *genreRepository) DeleteBySlug(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, genre := range r.genres {
		if genre.Slug != slug {
			continue
		}
		delete(r.genres, id)
		for _, links := range r.titleGenres {
			delete(links, id)
		}
		return nil
	}
	return fmt.Errorf("delete genre %s: %w", slug, repository.ErrNotFound)
}

type titleRepository struct {
	*store
}

func (r *titleRepository) checkReferencesLocked(title *entity.Title, genreIDs []uuid.UUID) error {
	if title.CategoryID != nil {
		if _, ok := r.categories[*title.CategoryID]; !ok {
			return missingReference("titles_category_id_fkey")
		}
	}
	for _, genreID := range genreIDs {
		if _, ok := r.genres[genreID]; !ok {
			return missingReference("title_genres_genre_id_fkey")
		}
	}
	return nil
}

func (r *titleRepository) setGenresLocked(titleID uuid.UUID, genreIDs []uuid.UUID) {
	links := make(map[uuid.UUID]struct{}, len(genreIDs))
	for _, genreID := range genreIDs {
		links[genreID] = struct{}{}
	}
	r.titleGenres[titleID] = links
}

func (r *titleRepository) Create(_ context.Context, title *entity.Title, genreIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkReferencesLocked(title, genreIDs); err != nil {
		return fmt.Errorf("create title %s: %w", title.Name, err)
	}

	t := *title
	t.Rating, t.Category, t.Genres = nil, nil, nil
	r.titles[title.ID] = &t
	r.setGenresLocked(title.ID, genreIDs)
	return nil
}

func (r *titleRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Title, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	title, ok := r.titles[id]
	if !ok {
		return nil, nil
	}
	return r.titleViewLocked(title), nil
}

func (r *titleRepository) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.titles[id]
	return ok, nil
}

func (r *titleRepository) matchesLocked(view *entity.Title, filter entity.TitleFilter) bool {
	if filter.Name != "" && !containsFold(view.Name, filter.Name) {
		return false
	}
	if filter.Year != nil && view.Year != *filter.Year {
		return false
	}
	if filter.Category != "" && (view.Category == nil || view.Category.Slug != filter.Category) {
		return false
	}
	if filter.Genre != "" {
		found := false
		for _, genre := range view.Genres {
			if genre.Slug == filter.Genre {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *titleRepository) filterLocked(filter entity.TitleFilter) []*entity.Title {
	titles := make([]*entity.Title, 0, len(r.titles))
	for _, title := range r.titles {
		view := r.titleViewLocked(title)
		if r.matchesLocked(view, filter) {
			titles = append(titles, view)
		}
	}
	sort.Slice(titles, func(i, j int) bool {
		if titles[i].Name != titles[j].Name {
			return titles[i].Name < titles[j].Name
		}
		return titles[i].ID.String() < titles[j].ID.String()
	})
	return titles
}

func (r *titleRepository) FindAll(_ context.Context, filter entity.TitleFilter, limit, offset int) ([]*entity.Title, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return page(r.filterLocked(filter), limit, offset), nil
}

func (r *titleRepository) CountAll(_ context.Context, filter entity.TitleFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.filterLocked(filter))), nil
}

func (r *titleRepository) Update(_ context.Context, title *entity.Title, genreIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.titles[title.ID]
	if !ok {
		return fmt.Errorf("update title %s: %w", title.ID, repository.ErrNotFound)
	}
	if err := r.checkReferencesLocked(title, genreIDs); err != nil {
		return fmt.Errorf("update title %s: %w", title.ID, err)
	}

	stored.Name = title.Name
	stored.Year = title.Year
	stored.Description = title.Description
	stored.CategoryID = title.CategoryID
	stored.UpdatedAt = title.UpdatedAt
	if genreIDs != nil {
		r.setGenresLocked(title.ID, genreIDs)
	}
	return nil
}

func (r *titleRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.titles[id]; !ok {
		return fmt.Errorf("delete title %s: %w", id, repository.ErrNotFound)
	}
	r.deleteTitleLocked(id)
	return nil
}
