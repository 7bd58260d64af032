package dto

import (
	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/google/uuid"
)

// PendingTaskRequest mirrors models.PendingTask on the wire. ClientRef
// is optional; the handler fills one in when the client omits it.
type PendingTaskRequest struct {
	ClientRef   *uuid.UUID  `json:"client_ref,omitempty"`
	Name        string      `json:"name"`
	AssigneeIDs []uuid.UUID `json:"assignee_ids,omitempty"`
	Hours       *float64    `json:"hours,omitempty"`
}

type CreatePhaseRequest struct {
	JobID       uuid.UUID `json:"job_id"`
	PhaseName   string    `json:"phase_name"`
	PhaseNumber string    `json:"phase_number"`

	MaterialsDescription string `json:"materials_description,omitempty"`
	CrewSize             string `json:"crew_size,omitempty"`
	EstimatedHours       string `json:"estimated_hours,omitempty"`
	InstallationDate     string `json:"installation_date,omitempty"`

	PowderCoatColor    string `json:"powder_coat_color,omitempty"`
	PowderCoatVendor   string `json:"powder_coat_vendor,omitempty"`
	PowderCoatCureDate string `json:"powder_coat_cure_date,omitempty"`

	TasksByArea map[models.WorkArea][]PendingTaskRequest `json:"tasks_by_area,omitempty"`
}

type PhaseDetailResponse struct {
	Phase models.Phase                      `json:"phase"`
	Tasks map[models.WorkArea][]models.Task `json:"tasks"`
}

type PhaseListResponse struct {
	Phases []models.Phase `json:"phases"`
}
