package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fabtrack/fabtrack-backend/internal/cache"
	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTaskStore struct {
	phaseID   uuid.UUID
	addErr    error
	updateErr error
	deleteErr error

	added    []*models.Task
	statuses map[uuid.UUID]string
	deleted  []uuid.UUID
}

func (f *fakeTaskStore) AddTask(_ context.Context, task *models.Task) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, task)
	return nil
}

func (f *fakeTaskStore) UpdateTaskStatus(_ context.Context, taskID uuid.UUID, status string) (uuid.UUID, error) {
	if f.updateErr != nil {
		return uuid.Nil, f.updateErr
	}
	if f.statuses == nil {
		f.statuses = make(map[uuid.UUID]string)
	}
	f.statuses[taskID] = status
	return f.phaseID, nil
}

func (f *fakeTaskStore) DeleteTask(_ context.Context, taskID uuid.UUID) (uuid.UUID, error) {
	if f.deleteErr != nil {
		return uuid.Nil, f.deleteErr
	}
	f.deleted = append(f.deleted, taskID)
	return f.phaseID, nil
}

func seedPhaseCaches(phaseID uuid.UUID) *cache.Cache {
	c := cache.New(time.Minute)
	c.Set(cache.Key("phaseTasks", phaseID.String()), "stale tasks")
	c.Set(cache.Key("phase", phaseID.String()), "stale phase")
	return c
}

func phaseCachesDropped(t *testing.T, c *cache.Cache, phaseID uuid.UUID) {
	t.Helper()
	_, ok := c.Get(cache.Key("phaseTasks", phaseID.String()))
	assert.False(t, ok, "phaseTasks cache should be invalidated")
	_, ok = c.Get(cache.Key("phase", phaseID.String()))
	assert.False(t, ok, "phase cache should be invalidated")
}

func phaseCachesIntact(t *testing.T, c *cache.Cache, phaseID uuid.UUID) {
	t.Helper()
	_, ok := c.Get(cache.Key("phaseTasks", phaseID.String()))
	assert.True(t, ok, "failed mutation must not invalidate")
	_, ok = c.Get(cache.Key("phase", phaseID.String()))
	assert.True(t, ok)
}

func TestAddTask(t *testing.T) {
	phaseID := uuid.New()
	store := &fakeTaskStore{phaseID: phaseID}
	c := seedPhaseCaches(phaseID)
	svc := NewTaskService(store, c)

	task, err := svc.AddTask(context.Background(), phaseID, models.AreaWeldingLabor, "  grind welds  ")
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "grind welds", task.Name)
	assert.Equal(t, models.TaskStatusInProgress, task.Status)
	assert.Equal(t, phaseID, task.PhaseID)
	require.Len(t, store.added, 1)

	phaseCachesDropped(t, c, phaseID)
}

func TestAddTaskValidation(t *testing.T) {
	phaseID := uuid.New()
	tests := []struct {
		name    string
		phaseID uuid.UUID
		area    models.WorkArea
		task    string
	}{
		{"missing phase", uuid.Nil, models.AreaMaterials, "order steel"},
		{"unknown area", phaseID, "plumbing", "order steel"},
		{"blank name", phaseID, models.AreaMaterials, "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeTaskStore{phaseID: phaseID}
			c := seedPhaseCaches(phaseID)
			svc := NewTaskService(store, c)

			_, err := svc.AddTask(context.Background(), tt.phaseID, tt.area, tt.task)
			require.Error(t, err)
			assert.Empty(t, store.added)
			phaseCachesIntact(t, c, phaseID)
		})
	}
}

func TestAddTaskStoreFailure(t *testing.T) {
	phaseID := uuid.New()
	store := &fakeTaskStore{phaseID: phaseID, addErr: errors.New("fk violation")}
	c := seedPhaseCaches(phaseID)
	svc := NewTaskService(store, c)

	_, err := svc.AddTask(context.Background(), phaseID, models.AreaMaterials, "order steel")
	require.Error(t, err)
	phaseCachesIntact(t, c, phaseID)
}

func TestUpdateTaskStatus(t *testing.T) {
	phaseID := uuid.New()
	taskID := uuid.New()

	t.Run("complete", func(t *testing.T) {
		store := &fakeTaskStore{phaseID: phaseID}
		c := seedPhaseCaches(phaseID)
		svc := NewTaskService(store, c)

		require.NoError(t, svc.UpdateTaskStatus(context.Background(), taskID, true))
		assert.Equal(t, models.TaskStatusComplete, store.statuses[taskID])
		phaseCachesDropped(t, c, phaseID)
	})

	t.Run("reopen", func(t *testing.T) {
		store := &fakeTaskStore{phaseID: phaseID}
		svc := NewTaskService(store, cache.New(time.Minute))

		require.NoError(t, svc.UpdateTaskStatus(context.Background(), taskID, false))
		assert.Equal(t, models.TaskStatusInProgress, store.statuses[taskID])
	})

	t.Run("store failure passes through", func(t *testing.T) {
		notFound := errors.New("task not found")
		store := &fakeTaskStore{phaseID: phaseID, updateErr: notFound}
		c := seedPhaseCaches(phaseID)
		svc := NewTaskService(store, c)

		err := svc.UpdateTaskStatus(context.Background(), taskID, true)
		assert.ErrorIs(t, err, notFound)
		phaseCachesIntact(t, c, phaseID)
	})
}

func TestDeleteTask(t *testing.T) {
	phaseID := uuid.New()
	taskID := uuid.New()

	t.Run("deletes and invalidates owning phase", func(t *testing.T) {
		store := &fakeTaskStore{phaseID: phaseID}
		c := seedPhaseCaches(phaseID)
		svc := NewTaskService(store, c)

		require.NoError(t, svc.DeleteTask(context.Background(), taskID))
		assert.Equal(t, []uuid.UUID{taskID}, store.deleted)
		phaseCachesDropped(t, c, phaseID)
	})

	t.Run("store failure passes through", func(t *testing.T) {
		notFound := errors.New("task not found")
		store := &fakeTaskStore{phaseID: phaseID, deleteErr: notFound}
		c := seedPhaseCaches(phaseID)
		svc := NewTaskService(store, c)

		err := svc.DeleteTask(context.Background(), taskID)
		assert.ErrorIs(t, err, notFound)
		phaseCachesIntact(t, c, phaseID)
	})
}
