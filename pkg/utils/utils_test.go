package utils

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Slug     string `json:"slug" validate:"required,slug"`
	Username string `json:"username" validate:"required,username"`
	Year     *int   `json:"year" validate:"required,gte=0,pastyear"`
}

func TestValidateStruct(t *testing.T) {
	year := 1999
	assert.Empty(t, ValidateStruct(&sample{Slug: "sci-fi_2", Username: "j.doe+1@x", Year: &year}))

	future := time.Now().Year() + 1
	errs := ValidateStruct(&sample{Slug: "bad slug", Username: "no spaces", Year: &future})
	assert.Contains(t, errs, "slug")
	assert.Contains(t, errs, "username")
	assert.Equal(t, "Year cannot be greater than the current year", errs["year"])

	errs = ValidateStruct(&sample{Slug: "ok", Username: "ok"})
	assert.Equal(t, "This field is required", errs["year"])
}

func TestTokenManager(t *testing.T) {
	tokens := NewTokenManager(JWTConfig{Secret: "secret", ExpiryHours: 1})
	id := uuid.New()

	signed, err := tokens.Issue(id, "alice")
	require.NoError(t, err)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	other := NewTokenManager(JWTConfig{Secret: "other", ExpiryHours: 1})
	_, err = other.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenManager(JWTConfig{Secret: "secret", ExpiryHours: 1})
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(id, "alice")
	require.NoError(t, err)
	_, err = tokens.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestConfirmationCode(t *testing.T) {
	code, err := GenerateConfirmationCode(6)
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Za-z0-9]{6}$`, code)

	hash, err := HashSecret(code)
	require.NoError(t, err)
	assert.NotEqual(t, code, hash)
	assert.True(t, CheckSecretHash(code, hash))
	assert.False(t, CheckSecretHash(code+"x", hash))
	assert.False(t, CheckSecretHash(code, ""))
}

func TestLoadConfigFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9090\nDB_DRIVER=memory\nAUTH_RATE_LIMIT=5\n"), 0o600))

	config, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", config.App.Port)
	assert.Equal(t, "memory", config.Database.Driver)
	assert.Equal(t, 5, config.RateLimit.AuthRequests)
	assert.Equal(t, 24, config.JWT.ExpiryHours)
	assert.Equal(t, 6, config.Confirmation.Length)
}

func TestCalculateOffset(t *testing.T) {
	tests := []struct {
		name    string
		page    int
		perPage int
		want    int
	}{
		{"first page", 1, 10, 0},
		{"third page", 3, 10, 20},
		{"zero page", 0, 10, 0},
		{"zero per page", 4, 0, 0},
		{"overflowing page", math.MaxInt, 10, math.MaxInt},
		{"just below overflow", math.MaxInt/10 + 1, 10, (math.MaxInt / 10) * 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateOffset(tt.page, tt.perPage))
		})
	}
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 3, ParseInt("3", 1))
	assert.Equal(t, 1, ParseInt("", 1))
	assert.Equal(t, 1, ParseInt("x", 1))
	assert.Equal(t, 1, ParseInt(strconv.Itoa(-4), 1))
}
