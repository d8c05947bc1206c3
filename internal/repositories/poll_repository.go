package repositories

import (
	"quickpoll/internal/models"
)

// PollRepository defines the interface for poll, option and vote data access.
type PollRepository interface {
	// Create inserts the poll and its options as one unit.
	Create(poll *models.Poll) error
	GetByID(id uint) (*models.Poll, error)
	List(activeOnly bool) ([]models.Poll, error)
	Update(id uint, changes models.PollChanges) (*models.Poll, error)
	Delete(id uint) error

	OptionBelongsToPoll(optionID, pollID uint) (bool, error)
	// CreateVote inserts a vote. A second vote by the same user on the same poll
	// yields ErrDuplicate; a vanished poll, option or user yields ErrReferenceMissing.
	CreateVote(vote *models.Vote) error
	// CountVotes returns vote counts keyed by option id for the given polls.
	CountVotes(pollIDs ...uint) (map[uint]int64, error)
}
