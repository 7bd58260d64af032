package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TaskStatusInProgress = "in-progress"
	TaskStatusComplete   = "complete"
)

// Task is a unit of work within a phase's work area. Area is immutable
// once set.
type Task struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PhaseID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"phase_id"`
	Area      WorkArea       `gorm:"size:50;not null" json:"area"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Hours     *float64       `json:"hours,omitempty"`
	Status    string         `gorm:"size:20;default:'in-progress'" json:"status"`
	Position  int            `gorm:"default:0" json:"position"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Phase     Phase          `gorm:"foreignKey:PhaseID" json:"-"`
}

// TaskAssignment links a worker to a task. Assignments are best-effort:
// a failed assignment never rolls back the task it was meant for.
type TaskAssignment struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaskID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_task_assignments_task_user" json:"task_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_task_assignments_task_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Task      Task      `gorm:"foreignKey:TaskID" json:"-"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
}

// PendingTask describes a task requested as part of phase creation.
// ClientRef is a caller-supplied correlation key: the store echoes it on
// the created record so assignment requests can never be misapplied by
// reordering.
type PendingTask struct {
	ClientRef   uuid.UUID   `json:"client_ref"`
	Name        string      `json:"name"`
	AssigneeIDs []uuid.UUID `json:"assignee_ids,omitempty"`
	Hours       *float64    `json:"hours,omitempty"`
}

// CreatedTask pairs a persisted task with the ClientRef of the pending
// descriptor it was created from.
type CreatedTask struct {
	ClientRef uuid.UUID `json:"client_ref"`
	Task      Task      `json:"task"`
}
