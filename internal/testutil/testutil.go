// Package testutil builds isolated databases and fixtures for tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"quickpoll/internal/config"
	"quickpoll/internal/database"
	"quickpoll/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const JWTSecret = "test_jwt_secret"

// Config returns a configuration pointing at a fresh in-memory SQLite database.
func Config() *config.Config {
	return &config.Config{
		AppPort:       ":0",
		DBDriver:      config.DriverSQLite,
		DatabaseDSN:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		JWTSecret:     JWTSecret,
		JWTTTL:        time.Hour,
		RabbitMQQueue: "poll_events",
	}
}

// NewDB opens a migrated in-memory database that is closed when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open(Config())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// CreateUser inserts a user with a bcrypt hash of password.
func CreateUser(t testing.TB, db *gorm.DB, email, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{Email: email, PasswordHash: string(hash), Role: role}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return user
}

// CreatePoll inserts a poll owned by userID with one option per text.
func CreatePoll(t testing.TB, db *gorm.DB, userID uint, question string, active bool, texts ...string) *models.Poll {
	t.Helper()
	poll := &models.Poll{Question: question, UserID: userID, IsActive: true}
	for _, text := range texts {
		poll.Options = append(poll.Options, models.Option{Text: text})
	}
	if err := db.Create(poll).Error; err != nil {
		t.Fatalf("failed to create poll: %v", err)
	}
	if !active {
		if err := db.Model(poll).Update("is_active", false).Error; err != nil {
			t.Fatalf("failed to close poll: %v", err)
		}
		poll.IsActive = false
	}
	return poll
}
