package dto

import (
	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/google/uuid"
)

type AddTaskRequest struct {
	PhaseID uuid.UUID       `json:"phase_id"`
	Area    models.WorkArea `json:"area"`
	Name    string          `json:"name"`
}

type UpdateTaskStatusRequest struct {
	IsComplete bool `json:"is_complete"`
}

type AssignTaskRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

type TaskAssigneesResponse struct {
	TaskID    uuid.UUID   `json:"task_id"`
	Assignees []uuid.UUID `json:"assignees"`
}
