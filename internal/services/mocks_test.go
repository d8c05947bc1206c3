package services_test

import (
	"quickpoll/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id uint) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockPollRepository is a mock implementation of repositories.PollRepository
type MockPollRepository struct {
	mock.Mock
}

func (m *MockPollRepository) Create(poll *models.Poll) error {
	args := m.Called(poll)
	return args.Error(0)
}

func (m *MockPollRepository) GetByID(id uint) (*models.Poll, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Poll), args.Error(1)
}

func (m *MockPollRepository) List(activeOnly bool) ([]models.Poll, error) {
	args := m.Called(activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Poll), args.Error(1)
}

func (m *MockPollRepository) Update(id uint, changes models.PollChanges) (*models.Poll, error) {
	args := m.Called(id, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Poll), args.Error(1)
}

func (m *MockPollRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockPollRepository) OptionBelongsToPoll(optionID, pollID uint) (bool, error) {
	args := m.Called(optionID, pollID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPollRepository) CreateVote(vote *models.Vote) error {
	args := m.Called(vote)
	return args.Error(0)
}

func (m *MockPollRepository) CountVotes(pollIDs ...uint) (map[uint]int64, error) {
	args := m.Called(pollIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]int64), args.Error(1)
}

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(eventType string, payload interface{}) error {
	args := m.Called(eventType, payload)
	return args.Error(0)
}
