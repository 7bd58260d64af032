package services

import (
	"context"
	"errors"
	"strings"

	"github.com/fabtrack/fabtrack-backend/internal/cache"
	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrJobNumberTaken    = errors.New("job number already in use")
	ErrJobFieldsRequired = errors.New("job number and name are required")
)

// InProgressPhase is one row of the shop-floor aggregate view: a phase
// joined with its job header.
type InProgressPhase struct {
	PhaseID     uuid.UUID `json:"phase_id"`
	PhaseName   string    `json:"phase_name"`
	PhaseNumber float64   `json:"phase_number"`
	JobID       uuid.UUID `json:"job_id"`
	JobNumber   string    `json:"job_number"`
	JobName     string    `json:"job_name"`
	ClientName  string    `json:"client_name"`
}

type JobService struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewJobService(db *gorm.DB, c *cache.Cache) *JobService {
	return &JobService{db: db, cache: c}
}

func (s *JobService) Create(ctx context.Context, job *models.Job) error {
	if strings.TrimSpace(job.JobNumber) == "" || strings.TrimSpace(job.Name) == "" {
		return ErrJobFieldsRequired
	}

	var existing models.Job
	if err := s.db.WithContext(ctx).Where("job_number = ?", job.JobNumber).First(&existing).Error; err == nil {
		return ErrJobNumberTaken
	}

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = models.JobStatusQuoted
	}
	return s.db.WithContext(ctx).Create(job).Error
}

// Get is read-through cached under ("job", id). Mutations invalidate the
// entry; they never write it.
func (s *JobService) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	key := cache.Key("job", id.String())
	if v, ok := s.cache.Get(key); ok {
		job := v.(models.Job)
		return &job, nil
	}

	var job models.Job
	if err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	s.cache.Set(key, job)
	return &job, nil
}

func (s *JobService) List(ctx context.Context, status string, limit, offset int) ([]models.Job, int64, error) {
	var jobs []models.Job
	var total int64

	q := s.db.WithContext(ctx).Model(&models.Job{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&jobs).Error
	return jobs, total, err
}

func (s *JobService) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Job, error) {
	var job models.Job
	if err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&job).Updates(updates).Error; err != nil {
		return nil, err
	}

	s.cache.Invalidate(cache.Key("job", id.String()))
	s.cache.Invalidate(cache.Key("inProgressPhases"))
	return &job, nil
}

func (s *JobService) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.Job{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}

	s.cache.Invalidate(cache.Key("job", id.String()))
	s.cache.Invalidate(cache.Key("inProgressPhases"))
	return nil
}

// Search matches job number, name, and client name case-insensitively.
func (s *JobService) Search(ctx context.Context, query string, limit, offset int) ([]models.Job, int64, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, 0, errors.New("search query must be at least 2 characters")
	}

	pattern := "%" + query + "%"
	var jobs []models.Job
	var total int64

	base := s.db.WithContext(ctx).Model(&models.Job{}).
		Where("job_number ILIKE ? OR name ILIKE ? OR client_name ILIKE ?", pattern, pattern, pattern)

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := base.Order("created_at DESC").Limit(limit).Offset(offset).Find(&jobs).Error
	return jobs, total, err
}

// InProgressPhases is the cached aggregate behind the shop-floor board:
// every phase of every in-progress job.
func (s *JobService) InProgressPhases(ctx context.Context) ([]InProgressPhase, error) {
	key := cache.Key("inProgressPhases")
	if v, ok := s.cache.Get(key); ok {
		return v.([]InProgressPhase), nil
	}

	var rows []InProgressPhase
	err := s.db.WithContext(ctx).Model(&models.Phase{}).
		Select("phases.id AS phase_id, phases.phase_name, phases.phase_number, jobs.id AS job_id, jobs.job_number, jobs.name AS job_name, jobs.client_name").
		Joins("JOIN jobs ON jobs.id = phases.job_id AND jobs.deleted_at IS NULL").
		Where("jobs.status = ?", models.JobStatusInProgress).
		Order("jobs.job_number, phases.phase_number").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, rows)
	return rows, nil
}
