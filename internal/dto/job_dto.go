package dto

import "github.com/fabtrack/fabtrack-backend/internal/models"

type CreateJobRequest struct {
	JobNumber  string `json:"job_number"`
	Name       string `json:"name"`
	ClientName string `json:"client_name"`
	Address    string `json:"address"`
	Status     string `json:"status"`
}

type UpdateJobRequest struct {
	Name       *string `json:"name"`
	ClientName *string `json:"client_name"`
	Address    *string `json:"address"`
	Status     *string `json:"status"`
}

type JobListResponse struct {
	Jobs   []models.Job `json:"jobs"`
	Total  int64        `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

type JobSearchResponse struct {
	Jobs   []models.Job `json:"jobs"`
	Total  int64        `json:"total"`
	Query  string       `json:"query"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}
