package services

import (
	"context"
	"testing"
	"time"

	"github.com/fabtrack/fabtrack-backend/internal/cache"
	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePhaseReader struct {
	phase *models.Phase
	tasks map[models.WorkArea][]models.Task

	getCalls   int
	tasksCalls int
}

func (f *fakePhaseReader) GetPhase(_ context.Context, _ uuid.UUID) (*models.Phase, error) {
	f.getCalls++
	return f.phase, nil
}

func (f *fakePhaseReader) TasksForPhase(_ context.Context, _ uuid.UUID) (map[models.WorkArea][]models.Task, error) {
	f.tasksCalls++
	return f.tasks, nil
}

func (f *fakePhaseReader) PhasesForJob(_ context.Context, _ uuid.UUID) ([]models.Phase, error) {
	return []models.Phase{*f.phase}, nil
}

func TestPhaseServiceReadThrough(t *testing.T) {
	phaseID := uuid.New()
	reader := &fakePhaseReader{
		phase: &models.Phase{ID: phaseID, PhaseName: "Handrails", PhaseNumber: 2},
		tasks: map[models.WorkArea][]models.Task{
			models.AreaWeldingLabor: {{ID: uuid.New(), PhaseID: phaseID, Name: "cut stock"}},
		},
	}
	svc := NewPhaseService(reader, cache.New(time.Minute))

	// First read fetches, second is served from cache.
	for i := 0; i < 2; i++ {
		phase, err := svc.Get(context.Background(), phaseID)
		require.NoError(t, err)
		require.NotNil(t, phase)
		assert.Equal(t, "Handrails", phase.PhaseName)
	}
	assert.Equal(t, 1, reader.getCalls)

	for i := 0; i < 2; i++ {
		tasks, err := svc.Tasks(context.Background(), phaseID)
		require.NoError(t, err)
		require.Len(t, tasks[models.AreaWeldingLabor], 1)
	}
	assert.Equal(t, 1, reader.tasksCalls)
}

func TestPhaseServiceMissingPhaseNotCached(t *testing.T) {
	reader := &fakePhaseReader{}
	svc := NewPhaseService(reader, cache.New(time.Minute))

	for i := 0; i < 2; i++ {
		phase, err := svc.Get(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Nil(t, phase)
	}
	assert.Equal(t, 2, reader.getCalls, "a miss is not cached")
}

// A task mutation must be visible through the cached read paths: the
// facade drops exactly the keys the reads populate.
func TestTaskMutationInvalidatesPhaseReads(t *testing.T) {
	phaseID := uuid.New()
	reader := &fakePhaseReader{
		phase: &models.Phase{ID: phaseID, PhaseName: "Handrails", PhaseNumber: 2},
		tasks: map[models.WorkArea][]models.Task{},
	}

	c := cache.New(time.Minute)
	phases := NewPhaseService(reader, c)
	tasks := NewTaskService(&fakeTaskStore{phaseID: phaseID}, c)

	// Warm both read caches.
	_, err := phases.Get(context.Background(), phaseID)
	require.NoError(t, err)
	_, err = phases.Tasks(context.Background(), phaseID)
	require.NoError(t, err)
	require.Equal(t, 1, reader.getCalls)
	require.Equal(t, 1, reader.tasksCalls)

	_, err = tasks.AddTask(context.Background(), phaseID, models.AreaWeldingLabor, "grind welds")
	require.NoError(t, err)

	// Both reads re-fetch after the mutation.
	_, err = phases.Get(context.Background(), phaseID)
	require.NoError(t, err)
	_, err = phases.Tasks(context.Background(), phaseID)
	require.NoError(t, err)
	assert.Equal(t, 2, reader.getCalls)
	assert.Equal(t, 2, reader.tasksCalls)
}
