package models

import "time"

// Role is the authorization role carried by a user and embedded in its token.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents an account that can log in, vote and (as admin) manage polls.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"` // never serialized
	Name         *string   `json:"name" gorm:"type:varchar(256)"`
	Role         Role      `json:"role" gorm:"type:varchar(16);not null;default:user"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUser is the part of a user returned by the auth endpoints.
type PublicUser struct {
	ID    uint    `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
	Role  Role    `json:"role"`
}

// Profile is the current user's view of their own account.
type Profile struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips everything but the public fields.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// Profile returns the profile view of u.
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, CreatedAt: u.CreatedAt}
}
