package usecase

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"yamdb-api/internal/data/entity"
	"yamdb-api/internal/data/repository"
	"yamdb-api/internal/data/repository/memory"
	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/dto/response"
	"yamdb-api/internal/policy"
	"yamdb-api/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMail struct {
	To, Subject, Body string
}

// captureMailer records messages instead of delivering them.
type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

var codePattern = regexp.MustCompile(`code: (\S+)`)

func (m *captureMailer) lastCode(t *testing.T, to string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To != to {
			continue
		}
		match := codePattern.FindStringSubmatch(m.sent[i].Body)
		require.Len(t, match, 2, "no code in %q", m.sent[i].Body)
		return match[1]
	}
	t.Fatalf("no mail sent to %s", to)
	return ""
}

type testEnv struct {
	repo   *repository.Repository
	svc    *Service
	mail   *captureMailer
	tokens *utils.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()
	repo := memory.NewRepository(log)
	mail := &captureMailer{}
	tokens := utils.NewTokenManager(utils.JWTConfig{Secret: "test-secret", ExpiryHours: 1})
	config := &utils.Config{Confirmation: utils.ConfirmationConfig{Length: 6}}

	return &testEnv{
		repo:   repo,
		svc:    NewService(repo, config, tokens, mail, log),
		mail:   mail,
		tokens: tokens,
	}
}

// subject stores a confirmed user with role and returns it as a caller.
func (e *testEnv) subject(t *testing.T, username string, role entity.UserRole) policy.Subject {
	t.Helper()
	now := time.Now()
	user := &entity.User{
		Base:        entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Username:    username,
		Email:       username + "@example.com",
		Role:        role,
		IsConfirmed: true,
	}
	require.NoError(t, e.repo.User.Create(context.Background(), user))
	return policy.Subject{ID: user.ID, Role: role, Authenticated: true}
}

func (e *testEnv) category(t *testing.T, slug string) {
	t.Helper()
	_, err := e.svc.Category.CreateCategory(context.Background(), &request.CategoryRequest{Name: slug, Slug: slug})
	require.NoError(t, err)
}

func (e *testEnv) genre(t *testing.T, slug string) {
	t.Helper()
	_, err := e.svc.Genre.CreateGenre(context.Background(), &request.GenreRequest{Name: slug, Slug: slug})
	require.NoError(t, err)
}

func (e *testEnv) title(t *testing.T, name string, year int, category string, genres ...string) *response.TitleResponse {
	t.Helper()
	title, err := e.svc.Title.CreateTitle(context.Background(), &request.TitleRequest{
		Name:     name,
		Year:     &year,
		Category: category,
		Genre:    genres,
	})
	require.NoError(t, err)
	return title
}

func requireFieldError(t *testing.T, err error, field string) *ValidationError {
	t.Helper()
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.Fields, field)
	return vErr
}
