package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"yamdb-api/internal/data/entity"
	"yamdb-api/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TitleRepository interface {
	// Create inserts the title and its genre links in one transaction.
	Create(ctx context.Context, title *entity.Title, genreIDs []uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Title, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	FindAll(ctx context.Context, filter entity.TitleFilter, limit, offset int) ([]*entity.Title, error)
	CountAll(ctx context.Context, filter entity.TitleFilter) (int64, error)
	// Update writes the title columns. A nil genreIDs keeps the current genre
	// links; a non-nil slice (even empty) replaces them.
	Update(ctx context.Context, title *entity.Title, genreIDs []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type titleRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTitleRepository(db database.PgxIface, log *zap.Logger) TitleRepository {
	return &titleRepository{
		db:  db,
		log: log.With(zap.String("repository", "title")),
	}
}

const titleSelect = `
	SELECT t.id, t.name, t.year, t.description, t.category_id, t.created_at, t.updated_at,
	       c.name, c.slug,
	       (SELECT AVG(r.score)::float8 FROM reviews r WHERE r.title_id = t.id)
	FROM titles t
	LEFT JOIN categories c ON c.id = t.category_id
`

func scanTitle(row pgx.Row) (*entity.Title, error) {
	var (
		title        entity.Title
		categoryName *string
		categorySlug *string
	)

	err := row.Scan(
		&title.ID,
		&title.Name,
		&title.Year,
		&title.Description,
		&title.CategoryID,
		&title.CreatedAt,
		&title.UpdatedAt,
		&categoryName,
		&categorySlug,
		&title.Rating,
	)
	if err != nil {
		return nil, err
	}

	if title.CategoryID != nil && categoryName != nil && categorySlug != nil {
		title.Category = &entity.Category{
			BaseSimple: entity.BaseSimple{ID: *title.CategoryID},
			Name:       *categoryName,
			Slug:       *categorySlug,
		}
	}
	title.Genres = []*entity.Genre{}

	return &title, nil
}

// titleWhere renders filter as a WHERE clause over the titleSelect aliases.
func titleWhere(filter entity.TitleFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}

	if filter.Name != "" {
		add(`t.name ILIKE ? ESCAPE '\'`, containsPattern(filter.Name))
	}
	if filter.Year != nil {
		add(`t.year = ?`, *filter.Year)
	}
	if filter.Category != "" {
		add(`c.slug = ?`, filter.Category)
	}
	if filter.Genre != "" {
		add(`EXISTS (
			SELECT 1 FROM title_genres tg
			JOIN genres g ON g.id = tg.genre_id
			WHERE tg.title_id = t.id AND g.slug = ?)`, filter.Genre)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *titleRepository) Create(ctx context.Context, title *entity.Title, genreIDs []uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("create title: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO titles (id, name, year, description, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = tx.Exec(ctx, query,
		title.ID,
		title.Name,
		title.Year,
		title.Description,
		title.CategoryID,
		title.CreatedAt,
		title.UpdatedAt,
	)
	if err != nil {
		err = mapPgError(err)
		r.log.Error("Failed to create title",
			zap.Error(err),
			zap.String("name", title.Name),
		)
		return fmt.Errorf("create title %s: %w", title.Name, err)
	}

	if err := r.linkGenres(ctx, tx, title.ID, genreIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		r.log.Error("Failed to commit title", zap.Error(err))
		return fmt.Errorf("create title %s: commit: %w", title.Name, err)
	}

	return nil
}

func (r *titleRepository) linkGenres(ctx context.Context, tx pgx.Tx, titleID uuid.UUID, genreIDs []uuid.UUID) error {
	query := `INSERT INTO title_genres (title_id, genre_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`

	for _, genreID := range genreIDs {
		if _, err := tx.Exec(ctx, query, titleID, genreID); err != nil {
			err = mapPgError(err)
			r.log.Error("Failed to link genre",
				zap.Error(err),
				zap.String("title_id", titleID.String()),
				zap.String("genre_id", genreID.String()),
			)
			return fmt.Errorf("link genre %s to title %s: %w", genreID, titleID, err)
		}
	}

	return nil
}

func (r *titleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Title, error) {
	query := titleSelect + ` WHERE t.id = $1`

	title, err := scanTitle(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find title by ID",
			zap.Error(err),
			zap.String("title_id", id.String()),
		)
		return nil, fmt.Errorf("find title by ID %s: %w", id, err)
	}

	if err := r.attachGenres(ctx, []*entity.Title{title}); err != nil {
		return nil, err
	}

	return title, nil
}

func (r *titleRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM titles WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		r.log.Error("Failed to check title",
			zap.Error(err),
			zap.String("title_id", id.String()),
		)
		return false, fmt.Errorf("check title %s: %w", id, err)
	}

	return exists, nil
}

func (r *titleRepository) FindAll(ctx context.Context, filter entity.TitleFilter, limit, offset int) ([]*entity.Title, error) {
	where, args := titleWhere(filter)
	query := titleSelect + where +
		fmt.Sprintf(" ORDER BY t.name, t.id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list titles",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("list titles: %w", err)
	}
	defer rows.Close()

	titles := make([]*entity.Title, 0)
	for rows.Next() {
		title, err := scanTitle(rows)
		if err != nil {
			r.log.Error("Failed to scan title row", zap.Error(err))
			return nil, fmt.Errorf("scan title row: %w", err)
		}
		titles = append(titles, title)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate title rows: %w", err)
	}
	rows.Close()

	if err := r.attachGenres(ctx, titles); err != nil {
		return nil, err
	}

	return titles, nil
}

func (r *titleRepository) CountAll(ctx context.Context, filter entity.TitleFilter) (int64, error) {
	where, args := titleWhere(filter)
	query := `SELECT COUNT(*) FROM titles t LEFT JOIN categories c ON c.id = t.category_id` + where

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count titles", zap.Error(err))
		return 0, fmt.Errorf("count titles: %w", err)
	}

	return count, nil
}

// attachGenres loads the genres of every title with a single query.
func (r *titleRepository) attachGenres(ctx context.Context, titles []*entity.Title) error {
	if len(titles) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(titles))
	byID := make(map[uuid.UUID]*entity.Title, len(titles))
	for i, title := range titles {
		ids[i] = title.ID
		byID[title.ID] = title
	}

	query := `
		SELECT tg.title_id, g.id, g.name, g.slug, g.created_at
		FROM title_genres tg
		JOIN genres g ON g.id = tg.genre_id
		WHERE tg.title_id = ANY($1)
		ORDER BY g.name, g.slug
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		r.log.Error("Failed to load title genres", zap.Error(err))
		return fmt.Errorf("load title genres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			titleID uuid.UUID
			genre   entity.Genre
		)
		if err := rows.Scan(&titleID, &genre.ID, &genre.Name, &genre.Slug, &genre.CreatedAt); err != nil {
			r.log.Error("Failed to scan title genre row", zap.Error(err))
			return fmt.Errorf("scan title genre row: %w", err)
		}
		if title, ok := byID[titleID]; ok {
			title.Genres = append(title.Genres, &genre)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate title genre rows: %w", err)
	}

	return nil
}

func (r *titleRepository) Update(ctx context.Context, title *entity.Title, genreIDs []uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("update title: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE titles
		SET name = $2, year = $3, description = $4, category_id = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := tx.Exec(ctx, query,
		title.ID,
		title.Name,
		title.Year,
		title.Description,
		title.CategoryID,
		title.UpdatedAt,
	)
	if err != nil {
		err = mapPgError(err)
		r.log.Error("Failed to update title",
			zap.Error(err),
			zap.String("title_id", title.ID.String()),
		)
		return fmt.Errorf("update title %s: %w", title.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update title %s: %w", title.ID, ErrNotFound)
	}

	if genreIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM title_genres WHERE title_id = $1`, title.ID); err != nil {
			r.log.Error("Failed to clear title genres",
				zap.Error(err),
				zap.String("title_id", title.ID.String()),
			)
			return fmt.Errorf("clear genres of title %s: %w", title.ID, err)
		}
		if err := r.linkGenres(ctx, tx, title.ID, genreIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.log.Error("Failed to commit title update", zap.Error(err))
		return fmt.Errorf("update title %s: commit: %w", title.ID, err)
	}

	return nil
}

// Delete removes the title; its genre links, reviews and their comments go
// with it through ON DELETE CASCADE.
func (r *titleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM titles WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete title",
			zap.Error(err),
			zap.String("title_id", id.String()),
		)
		return fmt.Errorf("delete title %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete title %s: %w", id, ErrNotFound)
	}

	r.log.Info("Title deleted", zap.String("title_id", id.String()))
	return nil
}
