package usecase

import (
	"yamdb-api/internal/data/repository"
	"yamdb-api/pkg/mailer"
	"yamdb-api/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth     AuthService
	User     UserService
	Category CategoryService
	Genre    GenreService
	Title    TitleService
	Review   ReviewService
	Comment  CommentService
}

func NewService(
	repo *repository.Repository,
	config *utils.Config,
	tokens *utils.TokenManager,
	mail mailer.Mailer,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth:     NewAuthService(repo.User, config.Confirmation, tokens, mail, log),
		User:     NewUserService(repo.User, log),
		Category: NewCategoryService(repo.Category, log),
		Genre:    NewGenreService(repo.Genre, log),
		Title:    NewTitleService(repo, log),
		Review:   NewReviewService(repo, log),
		Comment:  NewCommentService(repo, log),
	}
}
