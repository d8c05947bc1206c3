package services

import (
	"errors"

	"quickpoll/internal/apperror"
	"quickpoll/internal/models"
	"quickpoll/internal/repositories"
)

// UserService serves the current user's account data.
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetProfile returns the profile of the user with the given id.
func (s *UserService) GetProfile(id uint) (*models.Profile, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.NotFound("User not found.").Wrap(err)
		}
		return nil, apperror.Internal("Could not retrieve user.", err)
	}
	profile := user.Profile()
	return &profile, nil
}
