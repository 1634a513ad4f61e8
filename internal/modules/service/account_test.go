package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stickerpack-io/stickerpack/internal/config"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
	"github.com/stickerpack-io/stickerpack/internal/modules/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func accountConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	return cfg
}

func TestRegisterCreatesUserAndToken(t *testing.T) {
	users := new(MockUserRepo)
	users.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, repo.ErrUserNotFound)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		// Never store the raw password.
		return u.Email == "new@example.com" && u.PasswordHash != "hunter2secret" && u.Role == model.RoleUser
	})).Return(nil)

	svc := NewAccountService(users, accountConfig(), zap.NewNop())
	user, token, err := svc.Register(context.Background(), "new@example.com", "hunter2secret")

	assert.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2secret")))

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	assert.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, user.ID.String(), claims.Subject)
	users.AssertExpectations(t)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	users := new(MockUserRepo)
	users.On("GetByEmail", mock.Anything, "taken@example.com").Return(&model.User{Email: "taken@example.com"}, nil)

	svc := NewAccountService(users, accountConfig(), zap.NewNop())
	_, _, err := svc.Register(context.Background(), "taken@example.com", "hunter2secret")

	assert.ErrorIs(t, err, model.ErrEmailTaken)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2secret"), bcrypt.MinCost)
	assert.NoError(t, err)
	existing := &model.User{ID: uuid.New(), Email: "user@example.com", PasswordHash: string(hash)}

	users := new(MockUserRepo)
	users.On("GetByEmail", mock.Anything, "user@example.com").Return(existing, nil)
	users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, repo.ErrUserNotFound)

	svc := NewAccountService(users, accountConfig(), zap.NewNop())

	t.Run("valid credentials", func(t *testing.T) {
		user, token, err := svc.Login(context.Background(), "user@example.com", "hunter2secret")
		assert.NoError(t, err)
		assert.Equal(t, existing.ID, user.ID)
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "user@example.com", "wrongpassword")
		assert.ErrorIs(t, err, model.ErrBadCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		// Same error as a wrong password so login cannot be used to probe
		// which emails exist.
		_, _, err := svc.Login(context.Background(), "nobody@example.com", "hunter2secret")
		assert.ErrorIs(t, err, model.ErrBadCredentials)
	})
}
