package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/data/repository"
	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/dto/response"
	"yamdb-api/pkg/mailer"
	"yamdb-api/pkg/metrics"
	"yamdb-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const confirmationSubject = "YamDB confirmation code"

type AuthService interface {
	// Signup registers a pending account, or re-sends a fresh confirmation
	// code when the exact email and username pair is already registered.
	Signup(ctx context.Context, req *request.SignupRequest) (*response.SignupResponse, error)
	// ObtainToken exchanges a confirmation code for an access token.
	ObtainToken(ctx context.Context, req *request.TokenRequest) (*response.TokenResponse, error)
}

type authService struct {
	userRepo   repository.UserRepository
	codeLength int
	tokens     *utils.TokenManager
	mailer     mailer.Mailer
	log        *zap.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	confirmation utils.ConfirmationConfig,
	tokens *utils.TokenManager,
	mail mailer.Mailer,
	log *zap.Logger,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		codeLength: confirmation.Length,
		tokens:     tokens,
		mailer:     mail,
		log:        log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Signup(ctx context.Context, req *request.SignupRequest) (*response.SignupResponse, error) {
	// 1. Validate input
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		metrics.SignupsTotal.WithLabelValues("rejected").Inc()
		return nil, validationErrors(errs)
	}

	resp := &response.SignupResponse{Email: req.Email, Username: req.Username}

	// 2. Known pair: issue a new code and send it again
	existing, err := s.userRepo.FindByEmailAndUsername(ctx, req.Email, req.Username)
	if err != nil {
		return nil, fmt.Errorf("signup %s: %w", req.Username, err)
	}
	if existing != nil {
		if err := s.resendCode(ctx, existing); err != nil {
			return nil, err
		}
		metrics.SignupsTotal.WithLabelValues("resent").Inc()
		return resp, nil
	}

	// 3. Reserved names and case-insensitive duplicates
	if err := checkNewIdentity(ctx, s.userRepo, uuid.Nil, req.Email, req.Username); err != nil {
		metrics.SignupsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	// 4. Create the pending account with a fresh code
	code, hash, err := s.newConfirmationCode()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Username:         req.Username,
		Email:            req.Email,
		Role:             entity.RoleUser,
		ConfirmationCode: hash,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if vErr := duplicateUserError(err); vErr != nil {
			metrics.SignupsTotal.WithLabelValues("rejected").Inc()
			return nil, vErr
		}
		return nil, fmt.Errorf("signup %s: %w", req.Username, err)
	}

	s.log.Info("User signed up",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	if err := s.sendCode(ctx, user.Email, code); err != nil {
		return nil, err
	}

	metrics.SignupsTotal.WithLabelValues("created").Inc()
	return resp, nil
}

func (s *authService) ObtainToken(ctx context.Context, req *request.TokenRequest) (*response.TokenResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		metrics.TokensTotal.WithLabelValues("rejected").Inc()
		return nil, validationErrors(errs)
	}

	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("obtain token for %s: %w", req.Username, err)
	}
	if user == nil {
		metrics.TokensTotal.WithLabelValues("rejected").Inc()
		return nil, notFound("user %s", req.Username)
	}

	if !utils.CheckSecretHash(req.ConfirmationCode, user.ConfirmationCode) {
		s.log.Warn("Invalid confirmation code", zap.String("user_id", user.ID.String()))
		metrics.TokensTotal.WithLabelValues("rejected").Inc()
		return nil, fieldError("confirmation_code", "Invalid confirmation code")
	}

	if !user.IsConfirmed {
		if err := s.userRepo.MarkConfirmed(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("obtain token for %s: %w", req.Username, err)
		}
		s.log.Info("User confirmed", zap.String("user_id", user.ID.String()))
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		s.log.Error("Failed to issue token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("obtain token for %s: %w", req.Username, err)
	}

	metrics.TokensTotal.WithLabelValues("issued").Inc()
	return &response.TokenResponse{Token: token}, nil
}

// ==================== HELPER METHODS ====================

func (s *authService) resendCode(ctx context.Context, user *entity.User) error {
	code, hash, err := s.newConfirmationCode()
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdateConfirmationCode(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("resend confirmation code to %s: %w", user.Username, err)
	}

	s.log.Info("Confirmation code regenerated", zap.String("user_id", user.ID.String()))
	return s.sendCode(ctx, user.Email, code)
}

func (s *authService) sendCode(ctx context.Context, email, code string) error {
	body := fmt.Sprintf("Your confirmation code: %s", code)
	if err := s.mailer.Send(ctx, email, confirmationSubject, body); err != nil {
		return fmt.Errorf("send confirmation code: %w", err)
	}
	return nil
}

func (s *authService) newConfirmationCode() (code, hash string, err error) {
	code, err = utils.GenerateConfirmationCode(s.codeLength)
	if err != nil {
		return "", "", fmt.Errorf("generate confirmation code: %w", err)
	}
	hash, err = utils.HashSecret(code)
	if err != nil {
		return "", "", fmt.Errorf("hash confirmation code: %w", err)
	}
	return code, hash, nil
}

// checkNewIdentity rejects reserved usernames and case-insensitive clashes
// with any user other than self.
func checkNewIdentity(ctx context.Context, repo repository.UserRepository, self uuid.UUID, email, username string) error {
	if username != "" && entity.IsReservedUsername(username) {
		return fieldError("username", fmt.Sprintf("Username '%s' is reserved", username))
	}

	if email != "" {
		other, err := repo.FindByEmailFold(ctx, email)
		if err != nil {
			return fmt.Errorf("check email %s: %w", email, err)
		}
		if other != nil && other.ID != self {
			return fieldError("email", "A user with this email already exists")
		}
	}

	if username != "" {
		other, err := repo.FindByUsernameFold(ctx, username)
		if err != nil {
			return fmt.Errorf("check username %s: %w", username, err)
		}
		if other != nil && other.ID != self {
			return fieldError("username", "A user with this username already exists")
		}
	}

	return nil
}

// duplicateUserError maps a unique violation raised by a concurrent write to
// the same field error the pre-checks produce.
func duplicateUserError(err error) error {
	if !errors.Is(err, repository.ErrDuplicate) {
		return nil
	}
	switch repository.ConstraintName(err) {
	case repository.ConstraintEmail:
		return fieldError("email", "A user with this email already exists")
	case repository.ConstraintUsername:
		return fieldError("username", "A user with this username already exists")
	}
	return fieldError(NonFieldErrors, "A user with these credentials already exists")
}
