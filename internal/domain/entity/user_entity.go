package entity

import (
	"time"
)

// User is the aggregate root for user domain
// Passwords are stored as bcrypt hashes in Password field and never serialized.
//
// IsAdmin, IsBlocked and EmailVerified start false and are only changed by
// their dedicated operations.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Password       string    `json:"-"`
	IsAdmin        bool      `json:"isAdmin"`
	IsBlocked      bool      `json:"isBlocked"`
	EmailVerified  bool      `json:"emailVerified"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserFilter is a conjunction over the optional flags; nil fields are unconstrained.
type UserFilter struct {
	IsAdmin   *bool
	IsBlocked *bool
}

// Matches reports whether u satisfies every set field of f.
func (f UserFilter) Matches(u User) bool {
	if f.IsAdmin != nil && u.IsAdmin != *f.IsAdmin {
		return false
	}
	if f.IsBlocked != nil && u.IsBlocked != *f.IsBlocked {
		return false
	}
	return true
}

// UserPatch is a partial update; nil fields are left untouched.
type UserPatch struct {
	Name           *string
	Email          *string
	Password       *string
	ProfilePicture *string
	IsAdmin        *bool
	IsBlocked      *bool
	EmailVerified  *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Password == nil && p.ProfilePicture == nil &&
		p.IsAdmin == nil && p.IsBlocked == nil && p.EmailVerified == nil
}

// Apply merges the set fields of p into u.
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.ProfilePicture != nil {
		u.ProfilePicture = *p.ProfilePicture
	}
	if p.IsAdmin != nil {
		u.IsAdmin = *p.IsAdmin
	}
	if p.IsBlocked != nil {
		u.IsBlocked = *p.IsBlocked
	}
	if p.EmailVerified != nil {
		u.EmailVerified = *p.EmailVerified
	}
}
