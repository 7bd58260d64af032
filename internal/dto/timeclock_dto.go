package dto

import (
	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/google/uuid"
)

type ClockInRequest struct {
	JobID *uuid.UUID `json:"job_id,omitempty"`
}

type TimeEntryListResponse struct {
	Entries []models.TimeEntry `json:"entries"`
}
