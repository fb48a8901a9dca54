package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/data/repository"

	"github.com/google/uuid"
)

type userRepository struct {
	*store
}

// checkUserUniqueLocked mirrors the LOWER(username) and LOWER(email) indexes.
func (s *store) checkUserUniqueLocked(user *entity.User) error {
	for id, other := range s.users {
		if id == user.ID {
			continue
		}
		if strings.EqualFold(other.Username, user.Username) {
			return duplicate(repository.ConstraintUsername)
		}
		if strings.EqualFold(other.Email, user.Email) {
			return duplicate(repository.ConstraintEmail)
		}
	}
	return nil
}

func (r *userRepository) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUserUniqueLocked(user); err != nil {
		return fmt.Errorf("create user %s: %w", user.Username, err)
	}

	u := *user
	r.users[user.ID] = &u
	return nil
}

func (r *userRepository) findLocked(match func(*entity.User) bool) *entity.User {
	for _, user := range r.users {
		if match(user) {
			u := *user
			return &u
		}
	}
	return nil
}

func (r *userRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.findLocked(func(u *entity.User) bool { return u.ID == id }), nil
}

func (r *userRepository) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.findLocked(func(u *entity.User) bool { return u.Username == username }), nil
}

func (r *userRepository) FindByEmailAndUsername(_ context.Context, email, username string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.findLocked(func(u *entity.User) bool { return u.Email == email && u.Username == username }), nil
}

func (r *userRepository) FindByUsernameFold(_ context.Context, username string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.findLocked(func(u *entity.User) bool { return strings.EqualFold(u.Username, username) }), nil
}

func (r *userRepository) FindByEmailFold(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.findLocked(func(u *entity.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (r *userRepository) filterLocked(search string) []*entity.User {
	users := make([]*entity.User, 0, len(r.users))
	for _, user := range r.users {
		if search == "" || containsFold(user.Username, search) {
			u := *user
			users = append(users, &u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users
}

func (r *userRepository) FindAll(_ context.Context, search string, limit, offset int) ([]*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return page(r.filterLocked(search), limit, offset), nil
}

func (r *userRepository) CountAll(_ context.Context, search string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.filterLocked(search))), nil
}

func (r *userRepository) Update(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return fmt.Errorf("update user %s: %w", user.ID, repository.ErrNotFound)
	}
	if err := r.checkUserUniqueLocked(user); err != nil {
		return fmt.Errorf("update user %s: %w", user.ID, err)
	}

	stored.Username = user.Username
	stored.Email = user.Email
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Role = user.Role
	stored.Bio = user.Bio
	stored.UpdatedAt = user.UpdatedAt
	return nil
}

func (r *userRepository) UpdateConfirmationCode(_ context.Context, id uuid.UUID, codeHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[id]
	if !ok {
		return fmt.Errorf("update confirmation code for %s: %w", id, repository.ErrNotFound)
	}
	stored.ConfirmationCode = codeHash
	return nil
}

func (r *userRepository) MarkConfirmed(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.users[id]; ok {
		stored.IsConfirmed = true
	}
	return nil
}

// Delete removes the user with their reviews and comments.
func (r *userRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("delete user %s: %w", id, repository.ErrNotFound)
	}
	delete(r.users, id)

	for reviewID, review := range r.reviews {
		if review.AuthorID == id {
			r.deleteReviewLocked(reviewID)
		}
	}
	for commentID, comment := range r.comments {
		if comment.AuthorID == id {
			delete(r.comments, commentID)
		}
	}
	return nil
}
