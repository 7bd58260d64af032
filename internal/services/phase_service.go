package services

import (
	"context"

	"github.com/fabtrack/fabtrack-backend/internal/cache"
	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/google/uuid"
)

// PhaseReader is the lookup boundary for phase and task reads.
// GetPhase returns (nil, nil) when no phase exists.
type PhaseReader interface {
	GetPhase(ctx context.Context, phaseID uuid.UUID) (*models.Phase, error)
	TasksForPhase(ctx context.Context, phaseID uuid.UUID) (map[models.WorkArea][]models.Task, error)
	PhasesForJob(ctx context.Context, jobID uuid.UUID) ([]models.Phase, error)
}

// PhaseService serves the phase read paths. Detail and task-list reads
// are read-through cached under ("phase", id) and ("phaseTasks", id),
// the keys the task mutations invalidate; mutations never write these
// entries.
type PhaseService struct {
	store PhaseReader
	cache *cache.Cache
}

func NewPhaseService(store PhaseReader, c *cache.Cache) *PhaseService {
	return &PhaseService{store: store, cache: c}
}

func (s *PhaseService) Get(ctx context.Context, phaseID uuid.UUID) (*models.Phase, error) {
	key := cache.Key("phase", phaseID.String())
	if v, ok := s.cache.Get(key); ok {
		phase := v.(models.Phase)
		return &phase, nil
	}

	phase, err := s.store.GetPhase(ctx, phaseID)
	if err != nil || phase == nil {
		return phase, err
	}

	s.cache.Set(key, *phase)
	return phase, nil
}

func (s *PhaseService) Tasks(ctx context.Context, phaseID uuid.UUID) (map[models.WorkArea][]models.Task, error) {
	key := cache.Key("phaseTasks", phaseID.String())
	if v, ok := s.cache.Get(key); ok {
		return v.(map[models.WorkArea][]models.Task), nil
	}

	tasks, err := s.store.TasksForPhase(ctx, phaseID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, tasks)
	return tasks, nil
}

func (s *PhaseService) ForJob(ctx context.Context, jobID uuid.UUID) ([]models.Phase, error) {
	return s.store.PhasesForJob(ctx, jobID)
}
