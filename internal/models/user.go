package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the account identity record. Mobile is the registration and
// login key; the unique index is the source of truth for uniqueness, the
// handler pre-check only produces a friendlier error.
type User struct {
	BaseModel
	Mobile   string `gorm:"uniqueIndex" json:"mobile"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Verified bool   `json:"verified"`

	Credential *Credential `json:"-"`
	Profile    *Profile    `json:"profile,omitempty"`
	Sessions   []Session   `json:"sessions,omitempty"`
	Journals   []Journal   `json:"journals,omitempty"`
}

// Credential holds a user's hashed password and auxiliary security state.
// TokenCreatedAt is the OTP issuance instant; the code itself is never
// persisted. ResetToken is the single-use marker for the password-reset
// flow, cleared when the token is consumed.
type Credential struct {
	BaseModel
	UserID         uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	Password       string     `json:"-"`
	ResetToken     string     `json:"-"`
	TokenCreatedAt *time.Time `json:"token_created_at,omitempty"`
}
