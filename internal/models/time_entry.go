package models

import (
	"time"

	"github.com/google/uuid"
)

// TimeEntry records a single clock-in/clock-out span. ClockOut is nil
// while the entry is open; a user has at most one open entry.
type TimeEntry struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	JobID     *uuid.UUID `gorm:"type:uuid;index" json:"job_id,omitempty"`
	ClockIn   time.Time  `gorm:"not null;index" json:"clock_in"`
	ClockOut  *time.Time `json:"clock_out,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}
