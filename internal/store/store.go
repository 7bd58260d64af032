package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrTaskNotFound = errors.New("task not found")

// Store is the GORM-backed implementation of the persistence boundaries
// the core services consume.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SelectProfile returns (nil, nil) when no profile row exists for the
// user; the resolver treats that as retryable.
func (s *Store) SelectProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile lookup: %w", err)
	}
	return &profile, nil
}

// CreatePhaseWithTasks persists the phase and all pending tasks in one
// transaction. The parent job must exist; the phase is never created
// orphaned. Each created task is returned with the ClientRef of the
// pending descriptor it came from.
func (s *Store) CreatePhaseWithTasks(ctx context.Context, phase *models.Phase, pending map[models.WorkArea][]models.PendingTask) (map[models.WorkArea][]models.CreatedTask, error) {
	created := make(map[models.WorkArea][]models.CreatedTask, len(pending))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job models.Job
		if err := tx.First(&job, "id = ?", phase.JobID).Error; err != nil {
			return fmt.Errorf("parent job lookup: %w", err)
		}

		if err := tx.Create(phase).Error; err != nil {
			return fmt.Errorf("create phase: %w", err)
		}

		for area, list := range pending {
			out := make([]models.CreatedTask, 0, len(list))
			for i, pt := range list {
				task := models.Task{
					ID:       uuid.New(),
					PhaseID:  phase.ID,
					Area:     area,
					Name:     pt.Name,
					Hours:    pt.Hours,
					Status:   models.TaskStatusInProgress,
					Position: i,
				}
				if err := tx.Create(&task).Error; err != nil {
					return fmt.Errorf("create task %q: %w", pt.Name, err)
				}
				out = append(out, models.CreatedTask{ClientRef: pt.ClientRef, Task: task})
			}
			created[area] = out
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Store) AssignUserToTask(ctx context.Context, taskID, userID uuid.UUID) error {
	assignment := models.TaskAssignment{
		ID:     uuid.New(),
		TaskID: taskID,
		UserID: userID,
	}
	if err := s.db.WithContext(ctx).Create(&assignment).Error; err != nil {
		return fmt.Errorf("assign user %s to task %s: %w", userID, taskID, err)
	}
	return nil
}

func (s *Store) AddTask(ctx context.Context, task *models.Task) error {
	return s.db.WithContext(ctx).Create(task).Error
}

func (s *Store) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status string) (uuid.UUID, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrTaskNotFound
		}
		return uuid.Nil, err
	}

	if err := s.db.WithContext(ctx).Model(&task).Update("status", status).Error; err != nil {
		return uuid.Nil, err
	}
	return task.PhaseID, nil
}

func (s *Store) DeleteTask(ctx context.Context, taskID uuid.UUID) (uuid.UUID, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrTaskNotFound
		}
		return uuid.Nil, err
	}

	if err := s.db.WithContext(ctx).Delete(&task).Error; err != nil {
		return uuid.Nil, err
	}
	return task.PhaseID, nil
}

// TasksForPhase lists a phase's tasks grouped by area, ordered the way
// they were created.
func (s *Store) TasksForPhase(ctx context.Context, phaseID uuid.UUID) (map[models.WorkArea][]models.Task, error) {
	var tasks []models.Task
	err := s.db.WithContext(ctx).Where("phase_id = ?", phaseID).
		Order("area, position, created_at").Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[models.WorkArea][]models.Task)
	for _, t := range tasks {
		grouped[t.Area] = append(grouped[t.Area], t)
	}
	return grouped, nil
}

// AssigneesForTask returns the user ids assigned to a task.
func (s *Store) AssigneesForTask(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	var assignments []models.TaskAssignment
	if err := s.db.WithContext(ctx).Where("task_id = ?", taskID).Find(&assignments).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.UserID)
	}
	return ids, nil
}

// PhasesForJob lists a job's phases in phase-number order.
func (s *Store) PhasesForJob(ctx context.Context, jobID uuid.UUID) ([]models.Phase, error) {
	var phases []models.Phase
	err := s.db.WithContext(ctx).Where("job_id = ?", jobID).
		Order("phase_number").Find(&phases).Error
	return phases, err
}

// GetPhase fetches a single phase.
func (s *Store) GetPhase(ctx context.Context, phaseID uuid.UUID) (*models.Phase, error) {
	var phase models.Phase
	err := s.db.WithContext(ctx).First(&phase, "id = ?", phaseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &phase, nil
}
