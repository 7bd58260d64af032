package dto

import (
	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/fabtrack/fabtrack-backend/internal/session"
	"github.com/google/uuid"
)

type UpsertProfileRequest struct {
	UserID            uuid.UUID `json:"user_id"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Role              string    `json:"role"`
	WorkArea          string    `json:"work_area"`
	Email             string    `json:"email"`
	CellPhoneNumber   string    `json:"cell_phone_number"`
	ProfilePictureURL string    `json:"profile_picture_url"`
}

// MeResponse is the session view: identity plus whatever profile fields
// have resolved. ProfileComplete is false while the profile is pending
// or missing.
type MeResponse struct {
	Session         session.Session `json:"session"`
	ProfileComplete bool            `json:"profile_complete"`
}

type ProfileListResponse struct {
	Profiles []models.Profile `json:"profiles"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}
