package repositories

import (
	"errors"
	"fmt"
	"time"

	"quickpoll/internal/models"

	"gorm.io/gorm"
)

// GORMPollRepository is a GORM implementation of PollRepository.
type GORMPollRepository struct {
	db *gorm.DB
}

// NewGORMPollRepository creates a new instance of GORMPollRepository.
func NewGORMPollRepository(db *gorm.DB) *GORMPollRepository {
	return &GORMPollRepository{
		db: db,
	}
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.id ASC")
		})
}

// Create inserts the poll row, then its option rows, in a single transaction.
func (r *GORMPollRepository) Create(poll *models.Poll) error {
	options := poll.Options
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Options", "User").Create(poll).Error; err != nil {
			return fmt.Errorf("failed to create poll: %w", err)
		}
		if poll.ID == 0 {
			return errors.New("poll insert returned no id")
		}
		for i := range options {
			options[i].ID = 0
			options[i].PollID = poll.ID
		}
		if len(options) > 0 {
			if err := tx.Create(&options).Error; err != nil {
				return fmt.Errorf("failed to create options for poll %d: %w", poll.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		poll.ID = 0
		return err
	}
	poll.Options = options
	return nil
}

// GetByID retrieves a poll with its creator and options.
func (r *GORMPollRepository) GetByID(id uint) (*models.Poll, error) {
	var poll models.Poll
	if err := withDetails(r.db).First(&poll, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("poll with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get poll by ID %d: %w", id, err)
	}
	return &poll, nil
}

// List retrieves polls ordered by creation time, optionally only the active ones.
func (r *GORMPollRepository) List(activeOnly bool) ([]models.Poll, error) {
	q := withDetails(r.db).Order("polls.created_at ASC").Order("polls.id ASC")
	if activeOnly {
		q = q.Where("polls.is_active = ?", true)
	}
	var polls []models.Poll
	if err := q.Find(&polls).Error; err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	return polls, nil
}

// Update applies the non-nil fields of changes and refreshes updated_at.
func (r *GORMPollRepository) Update(id uint, changes models.PollChanges) (*models.Poll, error) {
	var poll models.Poll
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&poll, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("poll with ID %d: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to get poll by ID %d: %w", id, err)
		}

		fields := map[string]interface{}{"updated_at": time.Now()}
		if changes.Question != nil {
			fields["question"] = *changes.Question
		}
		if changes.Description != nil {
			fields["description"] = *changes.Description
		} else if changes.ClearDescription {
			fields["description"] = gorm.Expr("NULL")
		}
		if changes.IsActive != nil {
			fields["is_active"] = *changes.IsActive
		}
		if err := tx.Model(&poll).Updates(fields).Error; err != nil {
			return fmt.Errorf("failed to update poll %d: %w", id, err)
		}
		// reload into a zero value so cleared columns read back as nil
		poll = models.Poll{}
		return tx.First(&poll, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

// Delete removes a poll; options and votes follow through ON DELETE CASCADE.
func (r *GORMPollRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Poll{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete poll %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("poll with ID %d: %w", id, ErrNotFound)
	}
	return nil
}

// OptionBelongsToPoll reports whether optionID is one of pollID's options.
func (r *GORMPollRepository) OptionBelongsToPoll(optionID, pollID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Option{}).
		Where("id = ? AND poll_id = ?", optionID, pollID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up option %d: %w", optionID, err)
	}
	return count > 0, nil
}

// CreateVote relies on the (user_id, poll_id) primary key to reject a second vote,
// so concurrent submissions cannot both succeed.
func (r *GORMPollRepository) CreateVote(vote *models.Vote) error {
	err := r.db.Omit("User", "Poll", "Option").Create(vote).Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("vote by user %d on poll %d: %w", vote.UserID, vote.PollID, ErrDuplicate)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("vote by user %d on poll %d: %w", vote.UserID, vote.PollID, ErrReferenceMissing)
	default:
		return fmt.Errorf("failed to create vote: %w", err)
	}
}

type optionCount struct {
	OptionID uint
	Votes    int64
}

// CountVotes groups the votes of the given polls by option.
func (r *GORMPollRepository) CountVotes(pollIDs ...uint) (map[uint]int64, error) {
	counts := make(map[uint]int64)
	if len(pollIDs) == 0 {
		return counts, nil
	}
	var rows []optionCount
	err := r.db.Model(&models.Vote{}).
		Select("option_id, COUNT(*) AS votes").
		Where("poll_id IN ?", pollIDs).
		Group("option_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	for _, row := range rows {
		counts[row.OptionID] = row.Votes
	}
	return counts, nil
}
