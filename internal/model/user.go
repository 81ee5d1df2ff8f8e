package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of roles a user can hold.
type Role string

const (
	// RoleOwner manages their own food carts.
	RoleOwner Role = "owner"
	// RoleAdmin manages every user and every resource.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleAdmin
}

// ParseRole normalizes s and returns the matching Role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// User represents a credential record.
type User struct {
	ID               uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Name             string     `json:"name" gorm:"size:255;not null"`
	Email            string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash     string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Role             Role       `json:"role" gorm:"size:20;not null;index"`
	ResetToken       *string    `json:"-" gorm:"size:512"`
	ResetTokenExpiry *time.Time `json:"-" gorm:"index"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// BeforeCreate sets the UUID and normalizes the email before insert.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasPendingReset reports whether a reset token is stored and still valid at now.
func (u *User) HasPendingReset(now time.Time) bool {
	return u.ResetToken != nil && u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now)
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
