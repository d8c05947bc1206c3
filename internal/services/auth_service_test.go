package services_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"quickpoll/internal/apperror"
	"quickpoll/internal/models"
	"quickpoll/internal/repositories"
	"quickpoll/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, repositories.ErrNotFound)
}

func TestAuthService_Register(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	name := "Tester"
	mockRepo.On("GetByEmail", "test@example.com").Return(nil, notFound("user")).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		args.Get(0).(*models.User).ID = 42
	}).Return(nil).Once()

	user, token, err := authService.Register(services.RegisterInput{
		Email:    " test@example.com ",
		Password: "password123",
		Name:     &name,
		Role:     models.RoleUser,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(42), user.ID)
	assert.Equal(t, "test@example.com", user.Email)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))

	claims, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.ID)
	assert.Equal(t, models.RoleUser, claims.Role)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	mockRepo.On("GetByEmail", "test@example.com").Return(&models.User{ID: 1}, nil).Once()
	_, token, err := authService.Register(services.RegisterInput{Email: "test@example.com", Password: "password123", Role: models.RoleUser})
	assert.Empty(t, token)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)

	// lost race: the unique index rejects the insert
	mockRepo.On("GetByEmail", "race@example.com").Return(nil, notFound("user")).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(fmt.Errorf("insert: %w", repositories.ErrDuplicate)).Once()
	_, _, err = authService.Register(services.RegisterInput{Email: "race@example.com", Password: "password123", Role: models.RoleUser})
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterDefaultsAndRejectsRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	_, _, err := authService.Register(services.RegisterInput{Email: "x@example.com", Password: "password123", Role: "root"})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	mockRepo.On("GetByEmail", "x@example.com").Return(nil, notFound("user")).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()
	user, _, err := authService.Register(services.RegisterInput{Email: "x@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
}

func TestAuthService_Login(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{
		ID:           7,
		Email:        "test@example.com",
		PasswordHash: string(hashedPassword),
		Role:         models.RoleAdmin,
	}

	// successful login
	mockRepo.On("GetByEmail", "test@example.com").Return(user, nil).Once()
	got, token, err := authService.Login("test@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	require.NotEmpty(t, token)

	parsed := &services.Claims{}
	_, err = jwt.ParseWithClaims(token, parsed, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(7), parsed.ID)
	assert.Equal(t, models.RoleAdmin, parsed.Role)
	assert.InDelta(t, time.Now().Add(time.Hour).Unix(), parsed.ExpiresAt, 5)

	// wrong password
	mockRepo.On("GetByEmail", "test@example.com").Return(user, nil).Once()
	_, token, err = authService.Login("test@example.com", "wrongpassword")
	assert.Empty(t, token)
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
	assert.ErrorIs(t, err, services.ErrIncorrectPassword)

	// unknown user
	mockRepo.On("GetByEmail", "nobody@example.com").Return(nil, notFound("user")).Once()
	_, token, err = authService.Login("nobody@example.com", "password123")
	assert.Empty(t, token)
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
	assert.ErrorIs(t, err, services.ErrUserNotFound)

	// both failures look the same to clients
	appErr, _ := apperror.As(err)
	assert.Equal(t, "Invalid credentials", appErr.Message)

	// store failure
	mockRepo.On("GetByEmail", "broken@example.com").Return(nil, errors.New("connection reset")).Once()
	_, _, err = authService.Login("broken@example.com", "password123")
	assert.True(t, apperror.IsKind(err, apperror.KindInternal))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, time.Hour)

	sign := func(claims jwt.Claims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	valid := sign(services.Claims{ID: 3, Role: models.RoleUser, StandardClaims: jwt.StandardClaims{
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}}, testJWTSecret)

	claims, err := authService.ValidateToken(valid)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.ID)

	cases := map[string]string{
		"malformed": "invalid.token.string",
		"wrong secret": sign(services.Claims{ID: 3, Role: models.RoleUser, StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		}}, "other_secret"),
		"expired": sign(services.Claims{ID: 3, Role: models.RoleUser, StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(-time.Hour).Unix(),
		}}, testJWTSecret),
		"unknown role": sign(services.Claims{ID: 3, Role: "root", StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		}}, testJWTSecret),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := authService.ValidateToken(token)
			assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
		})
	}
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	existing := &models.User{ID: 1, Email: "admin@test.com", Role: models.RoleAdmin}
	mockRepo.On("GetByEmail", "admin@test.com").Return(existing, nil).Once()
	user, err := authService.EnsureAdmin("admin@test.com", "adminpass", "Admin")
	require.NoError(t, err)
	assert.Same(t, existing, user)

	mockRepo.On("GetByEmail", "new@test.com").Return(nil, notFound("user")).Twice()
	mockRepo.On("Create", mock.MatchedBy(func(u *models.User) bool {
		return u.Role == models.RoleAdmin && u.Name != nil && *u.Name == "Admin"
	})).Return(nil).Once()
	user, err = authService.EnsureAdmin("new@test.com", "adminpass", "Admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	mockRepo.AssertExpectations(t)
}
