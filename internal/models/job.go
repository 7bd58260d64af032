package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	JobStatusQuoted     = "quoted"
	JobStatusInProgress = "in-progress"
	JobStatusComplete   = "complete"
)

type Job struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobNumber  string         `gorm:"size:50;not null;uniqueIndex" json:"job_number"`
	Name       string         `gorm:"size:255;not null" json:"name"`
	ClientName string         `gorm:"size:255" json:"client_name"`
	Address    string         `gorm:"type:text" json:"address"`
	Status     string         `gorm:"size:20;default:'quoted';index" json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
