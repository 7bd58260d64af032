package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fabtrack/fabtrack-backend/internal/cache"
	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/google/uuid"
)

var ErrTaskNameRequired = errors.New("task name is required")

// TaskStore is the persistence boundary for individual task mutations.
// Update and delete report the owning phase so the right caches can be
// dropped.
type TaskStore interface {
	AddTask(ctx context.Context, task *models.Task) error
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status string) (phaseID uuid.UUID, err error)
	DeleteTask(ctx context.Context, taskID uuid.UUID) (phaseID uuid.UUID, err error)
}

// TaskService exposes add, status update, and delete for individual
// tasks as independent units of work. No cross-task transactionality; on
// success each operation invalidates the phase's derived read caches.
type TaskService struct {
	store TaskStore
	cache *cache.Cache
}

func NewTaskService(store TaskStore, c *cache.Cache) *TaskService {
	return &TaskService{store: store, cache: c}
}

func (s *TaskService) AddTask(ctx context.Context, phaseID uuid.UUID, area models.WorkArea, name string) (*models.Task, error) {
	if phaseID == uuid.Nil {
		return nil, errors.New("phase id is required")
	}
	if !area.Valid() {
		return nil, fmt.Errorf("unknown work area %q", area)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTaskNameRequired
	}

	task := &models.Task{
		ID:      uuid.New(),
		PhaseID: phaseID,
		Area:    area,
		Name:    name,
		Status:  models.TaskStatusInProgress,
	}
	if err := s.store.AddTask(ctx, task); err != nil {
		return nil, err
	}

	s.invalidate(phaseID)
	return task, nil
}

func (s *TaskService) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, isComplete bool) error {
	status := models.TaskStatusInProgress
	if isComplete {
		status = models.TaskStatusComplete
	}

	phaseID, err := s.store.UpdateTaskStatus(ctx, taskID, status)
	if err != nil {
		return err
	}

	s.invalidate(phaseID)
	return nil
}

func (s *TaskService) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	phaseID, err := s.store.DeleteTask(ctx, taskID)
	if err != nil {
		return err
	}

	s.invalidate(phaseID)
	return nil
}

func (s *TaskService) invalidate(phaseID uuid.UUID) {
	s.cache.Invalidate(cache.Key("phaseTasks", phaseID.String()))
	s.cache.Invalidate(cache.Key("phase", phaseID.String()))
}
