package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/data/repository"
	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/dto/response"
	"yamdb-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TitleService interface {
	GetAllTitles(ctx context.Context, req *request.TitleListRequest) (*response.PaginatedResponse[response.TitleResponse], error)
	GetTitle(ctx context.Context, id uuid.UUID) (*response.TitleResponse, error)
	CreateTitle(ctx context.Context, req *request.TitleRequest) (*response.TitleResponse, error)
	UpdateTitle(ctx context.Context, id uuid.UUID, req *request.TitleUpdateRequest) (*response.TitleResponse, error)
	// DeleteTitle also removes the title's reviews and their comments.
	DeleteTitle(ctx context.Context, id uuid.UUID) error
}

type titleService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewTitleService(repo *repository.Repository, log *zap.Logger) TitleService {
	return &titleService{
		repo: repo,
		log:  log.With(zap.String("service", "title")),
	}
}

func (s *titleService) GetAllTitles(ctx context.Context, req *request.TitleListRequest) (*response.PaginatedResponse[response.TitleResponse], error) {
	filter := entity.TitleFilter{
		Name:     req.Name,
		Year:     req.Year,
		Genre:    req.Genre,
		Category: req.Category,
	}

	titles, err := s.repo.Title.FindAll(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}

	total, err := s.repo.Title.CountAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count titles: %w", err)
	}

	data := make([]response.TitleResponse, 0, len(titles))
	for _, title := range titles {
		data = append(data, response.TitleToResponse(title))
	}

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *titleService) GetTitle(ctx context.Context, id uuid.UUID) (*response.TitleResponse, error) {
	title, err := s.findTitle(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := response.TitleToResponse(title)
	return &resp, nil
}

func (s *titleService) CreateTitle(ctx context.Context, req *request.TitleRequest) (*response.TitleResponse, error) {
	// 1. Validate request
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationErrors(errs)
	}

	// 2. Resolve slugs
	categoryID, err := s.resolveCategory(ctx, req.Category)
	if err != nil {
		return nil, err
	}

	genreIDs, err := s.resolveGenres(ctx, req.Genre)
	if err != nil {
		return nil, err
	}

	// 3. Save title with its genres
	now := time.Now()
	title := &entity.Title{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:        req.Name,
		Year:        *req.Year,
		Description: req.Description,
		CategoryID:  categoryID,
	}

	if err := s.repo.Title.Create(ctx, title, genreIDs); err != nil {
		if errors.Is(err, repository.ErrReference) {
			return nil, fieldError(NonFieldErrors, "Category or genre no longer exists")
		}
		return nil, fmt.Errorf("create title: %w", err)
	}

	s.log.Info("Title created",
		zap.String("title_id", title.ID.String()),
		zap.String("name", title.Name))

	return s.GetTitle(ctx, title.ID)
}

func (s *titleService) UpdateTitle(ctx context.Context, id uuid.UUID, req *request.TitleUpdateRequest) (*response.TitleResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationErrors(errs)
	}

	title, err := s.findTitle(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		title.Name = *req.Name
	}
	if req.Year != nil {
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = *req.Description
	}
	if req.Category != nil {
		categoryID, err := s.resolveCategory(ctx, *req.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = categoryID
	}

	// nil keeps the current genres
	var genreIDs []uuid.UUID
	if req.Genre != nil {
		genreIDs, err = s.resolveGenres(ctx, req.Genre)
		if err != nil {
			return nil, err
		}
		if genreIDs == nil {
			genreIDs = []uuid.UUID{}
		}
	}

	title.UpdatedAt = time.Now()
	if err := s.repo.Title.Update(ctx, title, genreIDs); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound("title %s", id)
		case errors.Is(err, repository.ErrReference):
			return nil, fieldError(NonFieldErrors, "Category or genre no longer exists")
		}
		return nil, fmt.Errorf("update title %s: %w", id, err)
	}

	s.log.Info("Title updated", zap.String("title_id", id.String()))

	return s.GetTitle(ctx, id)
}

func (s *titleService) DeleteTitle(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Title.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("title %s", id)
		}
		return fmt.Errorf("delete title %s: %w", id, err)
	}

	s.log.Info("Title deleted", zap.String("title_id", id.String()))
	return nil
}

// ==================== HELPER METHODS ====================

func (s *titleService) findTitle(ctx context.Context, id uuid.UUID) (*entity.Title, error) {
	title, err := s.repo.Title.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find title %s: %w", id, err)
	}
	if title == nil {
		return nil, notFound("title %s", id)
	}
	return title, nil
}

// resolveCategory maps a category slug to its id. An empty slug means no
// category.
func (s *titleService) resolveCategory(ctx context.Context, slug string) (*uuid.UUID, error) {
	if slug == "" {
		return nil, nil
	}

	category, err := s.repo.Category.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("resolve category %s: %w", slug, err)
	}
	if category == nil {
		return nil, fieldError("category", fmt.Sprintf("Category '%s' does not exist", slug))
	}

	return &category.ID, nil
}

// resolveGenres maps genre slugs to ids, rejecting the request when any slug
// is unknown.
func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]uuid.UUID, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	genres, err := s.repo.Genre.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, fmt.Errorf("resolve genres: %w", err)
	}

	bySlug := make(map[string]uuid.UUID, len(genres))
	for _, genre := range genres {
		bySlug[genre.Slug] = genre.ID
	}

	var missing []string
	ids := make([]uuid.UUID, 0, len(slugs))
	seen := make(map[uuid.UUID]struct{}, len(slugs))
	for _, slug := range slugs {
		id, ok := bySlug[slug]
		if !ok {
			missing = append(missing, slug)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fieldError("genre", fmt.Sprintf("Unknown genre: %s", strings.Join(missing, ", ")))
	}

	return ids, nil
}
