package models

import "time"

// Poll is a question owned by the admin who created it.
// Deleting a poll removes its options and votes through FK cascades, so polls are
// hard-deleted and do not embed gorm.Model.
type Poll struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Question    string    `json:"question" gorm:"type:varchar(255);not null"`
	Description *string   `json:"description" gorm:"type:text"`
	UserID      uint      `json:"userId" gorm:"not null;index"`
	IsActive    bool      `json:"isActive" gorm:"not null;default:true;index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	User    *User    `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Options []Option `json:"options,omitempty" gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE"`
}

// Option is one of the 2 to 10 choices of a poll. It carries no vote counter;
// tallies are always counted from the votes table.
type Option struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	PollID uint   `json:"pollId" gorm:"not null;index"`
	Text   string `json:"text" gorm:"type:varchar(255);not null"`
}

// Vote is a single user's choice on a poll. The composite primary key
// (user_id, poll_id) allows at most one vote per user per poll.
type Vote struct {
	UserID    uint      `json:"userId" gorm:"primaryKey;autoIncrement:false"`
	PollID    uint      `json:"pollId" gorm:"primaryKey;autoIncrement:false;index"`
	OptionID  uint      `json:"optionId" gorm:"not null;index"`
	CreatedAt time.Time `json:"createdAt"`

	User   *User   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Poll   *Poll   `json:"-" gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE"`
	Option *Option `json:"-" gorm:"foreignKey:OptionID;constraint:OnDelete:CASCADE"`
}

// PollChanges holds the fields of a partial poll update. Nil fields are left untouched.
// ClearDescription sets the description to NULL and is ignored when Description is set.
type PollChanges struct {
	Question         *string
	Description      *string
	ClearDescription bool
	IsActive         *bool
}

// Creator is the summary of the user who created a poll.
type Creator struct {
	ID    uint    `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// OptionResult is an option together with its live vote count.
type OptionResult struct {
	ID     uint   `json:"id"`
	PollID uint   `json:"pollId"`
	Text   string `json:"text"`
	Votes  int64  `json:"votes"`
}

// PollResult is a poll with its creator and tallied options.
type PollResult struct {
	ID          uint           `json:"id"`
	Question    string         `json:"question"`
	Description *string        `json:"description"`
	UserID      uint           `json:"userId"`
	IsActive    bool           `json:"isActive"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	User        *Creator       `json:"user,omitempty"`
	Options     []OptionResult `json:"options"`
}

// NewPollResult combines a loaded poll with per-option counts keyed by option id.
// Options without an entry in counts get zero votes.
func NewPollResult(p Poll, counts map[uint]int64) PollResult {
	res := PollResult{
		ID:          p.ID,
		Question:    p.Question,
		Description: p.Description,
		UserID:      p.UserID,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Options:     make([]OptionResult, 0, len(p.Options)),
	}
	if p.User != nil {
		res.User = &Creator{ID: p.User.ID, Email: p.User.Email, Name: p.User.Name}
	}
	for _, o := range p.Options {
		res.Options = append(res.Options, OptionResult{
			ID:     o.ID,
			PollID: o.PollID,
			Text:   o.Text,
			Votes:  counts[o.ID],
		})
	}
	return res
}
