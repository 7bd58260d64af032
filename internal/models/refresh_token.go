package models

import (
	"time"

	"github.com/google/uuid"
)

type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	TokenHash string    `gorm:"uniqueIndex;not null;size:64" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
}

// PasswordReset is a single-use reset token delivered by email. RedirectTo
// is echoed back to the client after a successful reset.
type PasswordReset struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	TokenHash  string    `gorm:"uniqueIndex;not null;size:64" json:"-"`
	RedirectTo string    `gorm:"type:text" json:"redirect_to"`
	ExpiresAt  time.Time `gorm:"not null" json:"expires_at"`
	Used       bool      `gorm:"default:false" json:"used"`
	CreatedAt  time.Time `json:"created_at"`
}
