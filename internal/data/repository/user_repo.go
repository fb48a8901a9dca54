package repository

import (
	"context"
	"errors"
	"fmt"

	"yamdb-api/internal/data/entity"
	"yamdb-api/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByEmailAndUsername(ctx context.Context, email, username string) (*entity.User, error)
	// Fold variants compare case-insensitively.
	FindByUsernameFold(ctx context.Context, username string) (*entity.User, error)
	FindByEmailFold(ctx context.Context, email string) (*entity.User, error)
	FindAll(ctx context.Context, search string, limit, offset int) ([]*entity.User, error)
	CountAll(ctx context.Context, search string) (int64, error)
	Update(ctx context.Context, user *entity.User) error
	UpdateConfirmationCode(ctx context.Context, id uuid.UUID, codeHash string) error
	MarkConfirmed(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewUserRepository(db database.PgxIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

const userColumns = `id, username, email, first_name, last_name, role, bio,
	is_superuser, confirmation_code, is_confirmed, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.Bio,
		&user.IsSuperuser,
		&user.ConfirmationCode,
		&user.IsConfirmed,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user record into the database
func (ur *userRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, username, email, first_name, last_name, role, bio,
		                   is_superuser, confirmation_code, is_confirmed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := ur.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Role,
		user.Bio,
		user.IsSuperuser,
		user.ConfirmationCode,
		user.IsConfirmed,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		err = mapPgError(err)
		if errors.Is(err, ErrDuplicate) {
			return fmt.Errorf("create user %s: %w", user.Username, err)
		}
		ur.log.Error("Failed to create user",
			zap.Error(err),
			zap.String("email", user.Email),
			zap.String("username", user.Username),
		)
		return fmt.Errorf("create user %s: %w", user.Username, err)
	}

	return nil
}

func (ur *userRepository) findOne(ctx context.Context, op, where string, args ...any) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(ur.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to "+op, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return ur.findOne(ctx, "find user by id", `id = $1`, id)
}

func (ur *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return ur.findOne(ctx, "find user by username", `username = $1`, username)
}

func (ur *userRepository) FindByEmailAndUsername(ctx context.Context, email, username string) (*entity.User, error) {
	return ur.findOne(ctx, "find user by email and username", `email = $1 AND username = $2`, email, username)
}

func (ur *userRepository) FindByUsernameFold(ctx context.Context, username string) (*entity.User, error) {
	return ur.findOne(ctx, "find user by username", `LOWER(username) = LOWER($1)`, username)
}

func (ur *userRepository) FindByEmailFold(ctx context.Context, email string) (*entity.User, error) {
	return ur.findOne(ctx, "find user by email", `LOWER(email) = LOWER($1)`, email)
}

func (ur *userRepository) FindAll(ctx context.Context, search string, limit, offset int) ([]*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE ($1 = '' OR username ILIKE $2 ESCAPE '\')
		ORDER BY username
		LIMIT $3 OFFSET $4
	`

	rows, err := ur.db.Query(ctx, query, search, containsPattern(search), limit, offset)
	if err != nil {
		ur.log.Error("Failed to list users",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*entity.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			ur.log.Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	return users, nil
}

func (ur *userRepository) CountAll(ctx context.Context, search string) (int64, error) {
	query := `SELECT COUNT(*) FROM users WHERE ($1 = '' OR username ILIKE $2 ESCAPE '\')`

	var count int64
	if err := ur.db.QueryRow(ctx, query, search, containsPattern(search)).Scan(&count); err != nil {
		ur.log.Error("Failed to count users", zap.Error(err))
		return 0, fmt.Errorf("count users: %w", err)
	}

	return count, nil
}

// Update writes the profile fields and role. The confirmation state is
// changed only through UpdateConfirmationCode and MarkConfirmed.
func (ur *userRepository) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users
		SET username = $2, email = $3, first_name = $4, last_name = $5,
		    role = $6, bio = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := ur.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Role,
		user.Bio,
		user.UpdatedAt,
	)
	if err != nil {
		err = mapPgError(err)
		if !errors.Is(err, ErrDuplicate) {
			ur.log.Error("Failed to update user",
				zap.Error(err),
				zap.String("user_id", user.ID.String()),
			)
		}
		return fmt.Errorf("update user %s: %w", user.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update user %s: %w", user.ID, ErrNotFound)
	}

	return nil
}

func (ur *userRepository) UpdateConfirmationCode(ctx context.Context, id uuid.UUID, codeHash string) error {
	query := `UPDATE users SET confirmation_code = $2, updated_at = NOW() WHERE id = $1`

	result, err := ur.db.Exec(ctx, query, id, codeHash)
	if err != nil {
		ur.log.Error("Failed to store confirmation code",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return fmt.Errorf("update confirmation code for %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update confirmation code for %s: %w", id, ErrNotFound)
	}

	return nil
}

func (ur *userRepository) MarkConfirmed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET is_confirmed = TRUE, updated_at = NOW() WHERE id = $1 AND NOT is_confirmed`

	if _, err := ur.db.Exec(ctx, query, id); err != nil {
		ur.log.Error("Failed to confirm user",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return fmt.Errorf("confirm user %s: %w", id, err)
	}

	return nil
}

func (ur *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := ur.db.Exec(ctx, query, id)
	if err != nil {
		ur.log.Error("Failed to delete user",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return fmt.Errorf("delete user %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete user %s: %w", id, ErrNotFound)
	}

	ur.log.Info("User deleted", zap.String("user_id", id.String()))
	return nil
}
