package models

import "github.com/google/uuid"

// Profile is the optional one-to-one descriptive record for a user.
type Profile struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatar_url"`
}

// Session records a login event for auditing.
type Session struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	UserAgent string    `json:"user_agent"`
	IP        string    `json:"ip"`
}

// Role is a named permission group.
type Role struct {
	BaseModel
	Name string `gorm:"uniqueIndex" json:"name"`
}

// UserRole joins users to roles.
type UserRole struct {
	BaseModel
	UserID uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	RoleID uuid.UUID `gorm:"type:uuid;index" json:"role_id"`
}

// Track is a content item users can follow.
type Track struct {
	BaseModel
	Title string `json:"title"`
}

// UserTrack joins users to tracks.
type UserTrack struct {
	BaseModel
	UserID  uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	TrackID uuid.UUID `gorm:"type:uuid;index" json:"track_id"`
}

// Journal is a free-form entry owned by a user.
type Journal struct {
	BaseModel
	UserID uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
}
