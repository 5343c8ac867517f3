// Package entity defines the persisted domain entities shared across features.
package entity

import (
	"strings"
	"time"
)

// DefaultPhoto is assigned to users who never uploaded a picture.
const DefaultPhoto = "default.jpg"

// User represents a registered user in the system.
// Credential fields are never serialized.
type User struct {
	// ID is the unique identifier for the user.
	ID uint `gorm:"primaryKey" json:"id"`

	Name string `gorm:"size:255;not null" json:"name"`

	// Email is trimmed and lower-cased before it is stored.
	// It must be unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null" json:"email"`

	Photo string `gorm:"size:255;default:default.jpg" json:"photo"`

	Role Role `gorm:"size:16;default:user;not null" json:"role"`

	// Password is the bcrypt hash of the user's password.
	// This should never store plaintext passwords.
	Password string `gorm:"size:255;not null" json:"-"`

	PasswordChangedAt *time.Time `json:"-"`

	// PasswordResetToken holds the sha256 hex digest of an outstanding reset token.
	PasswordResetToken   *string    `gorm:"size:64;index" json:"-"`
	PasswordResetExpires *time.Time `json:"-"`

	// Active is false once the user deleted their account.
	Active bool `gorm:"default:true;not null" json:"-"`

	Revision int `gorm:"not null;default:0" json:"revision"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// NormalizeEmail returns the canonical stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FirstName returns the first word of the user's name.
func (u *User) FirstName() string {
	if f := strings.Fields(u.Name); len(f) > 0 {
		return f[0]
	}
	return u.Name
}

// ChangedPasswordAfter reports whether the password was changed after a token
// issued at iat. Both sides are compared at second precision, the precision
// of the token's iat claim.
func (u *User) ChangedPasswordAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return iat.Unix() < u.PasswordChangedAt.Unix()
}
