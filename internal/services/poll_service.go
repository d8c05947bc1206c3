package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"quickpoll/internal/apperror"
	"quickpoll/internal/models"
	"quickpoll/internal/repositories"
)

// Event types published by PollService.
const (
	EventPollCreated = "poll.created"
	EventPollUpdated = "poll.updated"
	EventPollDeleted = "poll.deleted"
	EventVoteCast    = "vote.cast"
)

const (
	MinOptions = 2
	MaxOptions = 10

	// Text bounds are counted in characters after surrounding whitespace is trimmed.
	MinQuestionLen = 5
	MaxQuestionLen = 255
	MaxOptionLen   = 255
)

// EventPublisher delivers domain events to a message broker.
type EventPublisher interface {
	Publish(eventType string, payload interface{}) error
}

// CreatePollInput carries the fields of a new poll.
type CreatePollInput struct {
	Question    string
	Description *string
	Options     []string
}

// PollService holds the poll rules: atomic creation, live tallies and one vote
// per user per poll.
type PollService struct {
	pollRepo  repositories.PollRepository
	publisher EventPublisher
}

// NewPollService creates a new PollService. publisher may be nil.
func NewPollService(pollRepo repositories.PollRepository, publisher EventPublisher) *PollService {
	return &PollService{
		pollRepo:  pollRepo,
		publisher: publisher,
	}
}

// CreatePoll inserts a poll owned by creatorID together with its options.
func (s *PollService) CreatePoll(creatorID uint, in CreatePollInput) (*models.Poll, error) {
	if len(in.Options) < MinOptions || len(in.Options) > MaxOptions {
		return nil, apperror.Validation("Validation failed").
			WithDetails(fmt.Sprintf("a poll must have between %d and %d options", MinOptions, MaxOptions))
	}

	question := strings.TrimSpace(in.Question)
	if err := checkLength("question", question, MinQuestionLen, MaxQuestionLen); err != nil {
		return nil, err
	}

	poll := &models.Poll{
		Question:    question,
		Description: in.Description,
		UserID:      creatorID,
		IsActive:    true,
		Options:     make([]models.Option, 0, len(in.Options)),
	}
	for i, text := range in.Options {
		text = strings.TrimSpace(text)
		if err := checkLength(fmt.Sprintf("options[%d].text", i), text, 1, MaxOptionLen); err != nil {
			return nil, err
		}
		poll.Options = append(poll.Options, models.Option{Text: text})
	}

	if err := s.pollRepo.Create(poll); err != nil {
		return nil, apperror.Internal("Failed to create poll.", err)
	}
	if poll.ID == 0 {
		return nil, apperror.Internal("Failed to create poll.", errors.New("poll insert returned no row"))
	}

	s.publish(EventPollCreated, map[string]interface{}{
		"pollId":  poll.ID,
		"userId":  creatorID,
		"options": len(poll.Options),
	})
	return poll, nil
}

// UpdatePoll applies the supplied fields and refreshes updatedAt.
func (s *PollService) UpdatePoll(pollID uint, changes models.PollChanges) (*models.Poll, error) {
	if changes.Question != nil {
		q := strings.TrimSpace(*changes.Question)
		if err := checkLength("question", q, MinQuestionLen, MaxQuestionLen); err != nil {
			return nil, err
		}
		changes.Question = &q
	}
	poll, err := s.pollRepo.Update(pollID, changes)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.NotFound("Poll not found or no changes made").Wrap(err)
		}
		return nil, apperror.Internal("Could not update poll.", err)
	}

	s.publish(EventPollUpdated, map[string]interface{}{
		"pollId":   poll.ID,
		"isActive": poll.IsActive,
	})
	return poll, nil
}

// UpdateStatus opens or closes a poll for voting without touching its content.
func (s *PollService) UpdateStatus(pollID uint, isActive bool) (*models.Poll, error) {
	return s.UpdatePoll(pollID, models.PollChanges{IsActive: &isActive})
}

// DeletePoll removes a poll. Its options and votes are removed by the store.
func (s *PollService) DeletePoll(pollID uint) (string, error) {
	if err := s.pollRepo.Delete(pollID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", apperror.NotFound("Poll not found.").Wrap(err)
		}
		return "", apperror.Internal("Could not delete poll.", err)
	}

	s.publish(EventPollDeleted, map[string]interface{}{"pollId": pollID})
	return "Poll deleted successfully.", nil
}

// GetPollByID returns a poll with its creator and live per-option vote counts.
func (s *PollService) GetPollByID(pollID uint) (*models.PollResult, error) {
	poll, err := s.pollRepo.GetByID(pollID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.NotFound("Poll not found.").Wrap(err)
		}
		return nil, apperror.Internal("Could not retrieve poll.", err)
	}

	counts, err := s.pollRepo.CountVotes(poll.ID)
	if err != nil {
		return nil, apperror.Internal("Could not retrieve poll results.", err)
	}
	result := models.NewPollResult(*poll, counts)
	return &result, nil
}

// ListPolls returns polls in creation order with live tallies.
func (s *PollService) ListPolls(activeOnly bool) ([]models.PollResult, error) {
	polls, err := s.pollRepo.List(activeOnly)
	if err != nil {
		return nil, apperror.Internal("Could not retrieve polls.", err)
	}

	ids := make([]uint, 0, len(polls))
	for _, p := range polls {
		ids = append(ids, p.ID)
	}
	counts, err := s.pollRepo.CountVotes(ids...)
	if err != nil {
		return nil, apperror.Internal("Could not retrieve poll results.", err)
	}

	results := make([]models.PollResult, 0, len(polls))
	for _, p := range polls {
		results = append(results, models.NewPollResult(p, counts))
	}
	return results, nil
}

// ListPollsFor lists the polls visible to role: everything for admins, active polls otherwise.
func (s *PollService) ListPollsFor(role models.Role) ([]models.PollResult, error) {
	return s.ListPolls(role != models.RoleAdmin)
}

// SubmitVote records userID's vote for optionID on pollID.
//
// The poll must be active and the option must belong to it. Uniqueness is left to
// the insert itself: a second vote fails on the (user, poll) key instead of being
// detected by an earlier read, so concurrent duplicates cannot both succeed.
func (s *PollService) SubmitVote(userID, pollID, optionID uint) (string, error) {
	poll, err := s.pollRepo.GetByID(pollID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return "", apperror.Internal("Failed to submit vote.", err)
	}
	if poll == nil || !poll.IsActive {
		return "", apperror.NotFound("Poll not found or is not active for voting.")
	}

	ok, err := s.pollRepo.OptionBelongsToPoll(optionID, pollID)
	if err != nil {
		return "", apperror.Internal("Failed to submit vote.", err)
	}
	if !ok {
		return "", apperror.Validation("Invalid option for this poll.")
	}

	vote := &models.Vote{UserID: userID, PollID: pollID, OptionID: optionID}
	if err := s.pollRepo.CreateVote(vote); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return "", apperror.Conflict("You have already voted on this poll.").Wrap(err)
		case errors.Is(err, repositories.ErrReferenceMissing):
			return "", apperror.NotFound("Poll not found or is not active for voting.").Wrap(err)
		default:
			return "", apperror.Internal("Failed to submit vote.", err)
		}
	}

	s.publish(EventVoteCast, map[string]interface{}{
		"pollId":   pollID,
		"optionId": optionID,
		"userId":   userID,
	})
	return "Vote submitted successfully.", nil
}

func checkLength(field, value string, min, max int) error {
	if n := utf8.RuneCountInString(value); n < min || n > max {
		return apperror.Validation("Validation failed").
			WithDetails(fmt.Sprintf("Field '%s' must be between %d and %d characters", field, min, max))
	}
	return nil
}

func (s *PollService) publish(eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(eventType, payload); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", eventType, err)
	}
}
