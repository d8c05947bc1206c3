package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quickpoll/internal/models"
	"quickpoll/internal/repositories"
	"quickpoll/internal/server"
	"quickpoll/internal/services"
	"quickpoll/internal/testutil"
)

// MockPublisher stands in for the RabbitMQ client.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(eventType string, payload interface{}) error {
	args := m.Called(eventType, payload)
	return args.Error(0)
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func doRequest(t *testing.T, app *server.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func TestSeedAdmin(t *testing.T) {
	db := testutil.NewDB(t)
	app := server.New(server.Options{DB: db, JWTSecret: testutil.JWTSecret})

	cfg := testutil.Config()
	require.NoError(t, seedAdmin(app.AuthService, cfg), "no admin configured is a no-op")

	cfg.AdminEmail = "root@example.com"
	cfg.AdminPassword = "supersecret"
	cfg.AdminName = "Root"
	require.NoError(t, seedAdmin(app.AuthService, cfg))
	// second run finds the existing account
	require.NoError(t, seedAdmin(app.AuthService, cfg))

	user, err := repositories.NewGORMUserRepository(db).GetByEmail("root@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	status, body := doRequest(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "root@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "admin", body["user"].(map[string]interface{})["role"])
}

func TestSeedAdminKeepsExistingAccount(t *testing.T) {
	db := testutil.NewDB(t)
	app := server.New(server.Options{DB: db, JWTSecret: testutil.JWTSecret})
	existing := testutil.CreateUser(t, db, "root@example.com", "password123", models.RoleUser)

	cfg := testutil.Config()
	cfg.AdminEmail = "root@example.com"
	cfg.AdminPassword = "supersecret"
	require.NoError(t, seedAdmin(app.AuthService, cfg))

	user, err := repositories.NewGORMUserRepository(db).GetByID(existing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, existing.PasswordHash, user.PasswordHash)
}

func TestPollEventsArePublished(t *testing.T) {
	db := testutil.NewDB(t)
	publisher := new(MockPublisher)
	app := server.New(server.Options{DB: db, JWTSecret: testutil.JWTSecret, Publisher: publisher})

	admin := testutil.CreateUser(t, db, "admin@test.com", "password123", models.RoleAdmin)
	voter := testutil.CreateUser(t, db, "user@test.com", "password123", models.RoleUser)
	adminToken, err := app.AuthService.IssueToken(admin)
	require.NoError(t, err)
	voterToken, err := app.AuthService.IssueToken(voter)
	require.NoError(t, err)

	publisher.On("Publish", services.EventPollCreated, mock.Anything).Return(nil).Once()
	publisher.On("Publish", services.EventVoteCast, mock.Anything).Return(fmt.Errorf("broker down")).Once()
	publisher.On("Publish", services.EventPollDeleted, mock.Anything).Return(nil).Once()

	status, body := doRequest(t, app, http.MethodPost, "/polls", adminToken, map[string]interface{}{
		"question": "Favorite food?",
		"options":  []map[string]string{{"text": "Pizza"}, {"text": "Pasta"}},
	})
	require.Equal(t, http.StatusCreated, status, body)
	poll := body["poll"].(map[string]interface{})
	pollID := int(poll["id"].(float64))
	optionID := int(poll["options"].([]interface{})[0].(map[string]interface{})["id"].(float64))

	// a failing broker does not fail the vote
	status, _ = doRequest(t, app, http.MethodPost, fmt.Sprintf("/polls/%d/vote", pollID), voterToken,
		map[string]int{"optionId": optionID})
	assert.Equal(t, http.StatusCreated, status)

	// rejected votes publish nothing
	status, _ = doRequest(t, app, http.MethodPost, fmt.Sprintf("/polls/%d/vote", pollID), voterToken,
		map[string]int{"optionId": optionID})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = doRequest(t, app, http.MethodDelete, fmt.Sprintf("/polls/%d", pollID), adminToken, nil)
	assert.Equal(t, http.StatusOK, status)

	publisher.AssertExpectations(t)
	publisher.AssertNumberOfCalls(t, "Publish", 3)
}
