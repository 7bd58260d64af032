package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the durable per-user record beyond bare identity. A missing
// profile does not invalidate authentication; the resolver retries until
// the row appears or gives up.
type Profile struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	FirstName         string    `gorm:"size:100" json:"first_name"`
	LastName          string    `gorm:"size:100" json:"last_name"`
	Role              string    `gorm:"size:50" json:"role"`
	WorkArea          string    `gorm:"size:50" json:"work_area"`
	Email             string    `gorm:"size:255" json:"email"`
	CellPhoneNumber   string    `gorm:"size:30" json:"cell_phone_number"`
	ProfilePictureURL string    `gorm:"type:text" json:"profile_picture_url"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	User              User      `gorm:"foreignKey:UserID" json:"-"`
}
