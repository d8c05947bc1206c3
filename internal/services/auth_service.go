package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"quickpoll/internal/apperror"
	"quickpoll/internal/models"
	"quickpoll/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUserNotFound and ErrIncorrectPassword are the logged causes of a failed
	// login. Clients only ever see "Invalid credentials".
	ErrUserNotFound      = errors.New("user not found")
	ErrIncorrectPassword = errors.New("incorrect password")
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Claims is the payload of a session token.
type Claims struct {
	ID   uint        `json:"id"`
	Role models.Role `json:"role"`
	jwt.StandardClaims
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Email    string
	Password string
	Name     *string
	Role     models.Role
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration
}

// NewAuthService creates a new AuthService. A non-positive ttl falls back to DefaultTokenTTL.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: ttl,
	}
}

// Register creates a user with a bcrypt-hashed password and returns it with a fresh token.
func (s *AuthService) Register(in RegisterInput) (*models.User, string, error) {
	email := strings.TrimSpace(in.Email)
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, "", apperror.Validation("Validation failed").WithDetails(fmt.Sprintf("unknown role %q", role))
	}

	existing, err := s.userRepo.GetByEmail(email)
	if err == nil && existing != nil {
		return nil, "", apperror.Conflict("User with this email already exists.")
	}
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, "", apperror.Internal("Failed to register user.", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperror.Internal("Failed to register user.", fmt.Errorf("failed to hash password: %w", err))
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Name:         in.Name,
		Role:         role,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, "", apperror.Conflict("User with this email already exists.").Wrap(err)
		}
		return nil, "", apperror.Internal("Failed to register user.", err)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	log.Printf("Registered user %d (%s)", user.ID, user.Role)
	return user, token, nil
}

// Login verifies the credentials and returns the user with a fresh token.
func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Printf("Login failed for %s: %v", email, ErrUserNotFound)
			return nil, "", apperror.Unauthorized("Invalid credentials").Wrap(ErrUserNotFound)
		}
		return nil, "", apperror.Internal("Failed to log in.", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Printf("Login failed for %s: %v", email, ErrIncorrectPassword)
		return nil, "", apperror.Unauthorized("Invalid credentials").Wrap(ErrIncorrectPassword)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// IssueToken signs a token carrying the user's id and role.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := jwt.TimeFunc()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:   user.ID,
		Role: user.Role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(s.tokenDurat).Unix(),
			IssuedAt:  now.Unix(),
		},
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperror.Internal("Failed to generate token.", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a token, returning its claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, apperror.Unauthorized("Unauthorized: Invalid or expired token.").Wrap(err)
	}
	if !token.Valid || claims.ID == 0 || !claims.Role.Valid() {
		return nil, apperror.Unauthorized("Unauthorized: Invalid or expired token.")
	}
	return claims, nil
}

// EnsureAdmin creates the admin account if no user with that email exists yet.
func (s *AuthService) EnsureAdmin(email, password, name string) (*models.User, error) {
	existing, err := s.userRepo.GetByEmail(email)
	if err == nil {
		if existing.Role != models.RoleAdmin {
			log.Printf("Warning: seed admin %s already exists with role %s", email, existing.Role)
		}
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	var namePtr *string
	if name != "" {
		namePtr = &name
	}
	user, _, err := s.Register(RegisterInput{Email: email, Password: password, Name: namePtr, Role: models.RoleAdmin})
	return user, err
}
