package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fabtrack/fabtrack-backend/internal/cache"
	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePhaseStore echoes each pending task back as created, in REVERSE
// order per area, so any test that passes is proving ClientRef
// correlation rather than positional luck.
type fakePhaseStore struct {
	createErr  error
	nilResult  bool
	failAssign map[uuid.UUID]error // keyed by user id

	mu          sync.Mutex
	createCalls int
	assignments map[uuid.UUID][]uuid.UUID // task id -> user ids
}

func (f *fakePhaseStore) CreatePhaseWithTasks(_ context.Context, phase *models.Phase, pending map[models.WorkArea][]models.PendingTask) (map[models.WorkArea][]models.CreatedTask, error) {
	f.mu.Lock()
	f.createCalls++
	f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.nilResult {
		return nil, nil
	}
	created := make(map[models.WorkArea][]models.CreatedTask, len(pending))
	for area, list := range pending {
		out := make([]models.CreatedTask, 0, len(list))
		for i := len(list) - 1; i >= 0; i-- {
			pt := list[i]
			out = append(out, models.CreatedTask{
				ClientRef: pt.ClientRef,
				Task: models.Task{
					ID:      uuid.New(),
					PhaseID: phase.ID,
					Area:    area,
					Name:    pt.Name,
					Hours:   pt.Hours,
					Status:  models.TaskStatusInProgress,
				},
			})
		}
		created[area] = out
	}
	return created, nil
}

func (f *fakePhaseStore) AssignUserToTask(_ context.Context, taskID, userID uuid.UUID) error {
	if err, ok := f.failAssign[userID]; ok {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assignments == nil {
		f.assignments = make(map[uuid.UUID][]uuid.UUID)
	}
	f.assignments[taskID] = append(f.assignments[taskID], userID)
	return nil
}

func (f *fakePhaseStore) assignmentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, users := range f.assignments {
		n += len(users)
	}
	return n
}

func validPhaseInput() PhaseInput {
	return PhaseInput{
		JobID:       uuid.New(),
		PhaseName:   "Handrails",
		PhaseNumber: "2",
	}
}

func seededCache(t *testing.T, jobID uuid.UUID) *cache.Cache {
	t.Helper()
	c := cache.New(time.Minute)
	c.Set(cache.Key("job", jobID.String()), "stale job")
	c.Set(cache.Key("inProgressPhases"), "stale list")
	return c
}

func TestCreatePhaseValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PhaseInput)
		wantErr error
	}{
		{"missing job", func(in *PhaseInput) { in.JobID = uuid.Nil }, ErrJobRequired},
		{"blank name", func(in *PhaseInput) { in.PhaseName = "   " }, ErrPhaseNameRequired},
		{"zero number", func(in *PhaseInput) { in.PhaseNumber = "0" }, ErrInvalidPhaseNumber},
		{"negative number", func(in *PhaseInput) { in.PhaseNumber = "-1" }, ErrInvalidPhaseNumber},
		{"non-numeric number", func(in *PhaseInput) { in.PhaseNumber = "abc" }, ErrInvalidPhaseNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakePhaseStore{}
			o := NewPhaseOrchestrator(store, cache.New(time.Minute))

			in := validPhaseInput()
			tt.mutate(&in)

			_, err := o.CreatePhase(context.Background(), in)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, store.createCalls, "validation failures must not touch the store")
		})
	}
}

func TestCreatePhaseRejectsUnknownArea(t *testing.T) {
	store := &fakePhaseStore{}
	o := NewPhaseOrchestrator(store, cache.New(time.Minute))

	in := validPhaseInput()
	in.TasksByArea = map[models.WorkArea][]models.PendingTask{
		"plumbing": {{ClientRef: uuid.New(), Name: "rough-in"}},
	}

	_, err := o.CreatePhase(context.Background(), in)
	require.Error(t, err)
	assert.Zero(t, store.createCalls)
}

func TestCreatePhaseAssignsByClientRef(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	refA, refB := uuid.New(), uuid.New()

	in := validPhaseInput()
	in.TasksByArea = map[models.WorkArea][]models.PendingTask{
		models.AreaWeldingLabor: {
			{ClientRef: refA, Name: "cut stock", AssigneeIDs: []uuid.UUID{alice, bob}},
			{ClientRef: refB, Name: "tack frames"},
		},
	}

	store := &fakePhaseStore{}
	c := seededCache(t, in.JobID)
	o := NewPhaseOrchestrator(store, c)

	result, err := o.CreatePhase(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Zero(t, result.FailedAssignments)
	require.Len(t, result.Tasks[models.AreaWeldingLabor], 2)

	// Both assignment writes land on "cut stock" even though the store
	// returned tasks out of order.
	assert.Equal(t, 2, store.assignmentCount())
	for taskID, users := range store.assignments {
		var name string
		for _, ct := range result.Tasks[models.AreaWeldingLabor] {
			if ct.ID == taskID {
				name = ct.Name
			}
		}
		assert.Equal(t, "cut stock", name)
		assert.ElementsMatch(t, []uuid.UUID{alice, bob}, users)
	}

	// Success invalidates the job and dashboard caches.
	_, ok := c.Get(cache.Key("job", in.JobID.String()))
	assert.False(t, ok)
	_, ok = c.Get(cache.Key("inProgressPhases"))
	assert.False(t, ok)
}

func TestCreatePhaseStoreFailureLeavesCacheIntact(t *testing.T) {
	in := validPhaseInput()
	store := &fakePhaseStore{createErr: errors.New("deadlock detected")}
	c := seededCache(t, in.JobID)
	o := NewPhaseOrchestrator(store, c)

	_, err := o.CreatePhase(context.Background(), in)
	require.Error(t, err)

	_, ok := c.Get(cache.Key("job", in.JobID.String()))
	assert.True(t, ok, "failed creation must not invalidate")
	_, ok = c.Get(cache.Key("inProgressPhases"))
	assert.True(t, ok)
}

func TestCreatePhaseNilStoreResult(t *testing.T) {
	store := &fakePhaseStore{nilResult: true}
	o := NewPhaseOrchestrator(store, cache.New(time.Minute))

	_, err := o.CreatePhase(context.Background(), validPhaseInput())
	assert.ErrorIs(t, err, ErrMalformedResult)
}

func TestCreatePhaseSurvivesFailedAssignment(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()

	in := validPhaseInput()
	in.TasksByArea = map[models.WorkArea][]models.PendingTask{
		models.AreaSewingLabor: {
			{ClientRef: uuid.New(), Name: "hem covers", AssigneeIDs: []uuid.UUID{alice, bob}},
		},
	}

	store := &fakePhaseStore{failAssign: map[uuid.UUID]error{bob: errors.New("user not found")}}
	o := NewPhaseOrchestrator(store, cache.New(time.Minute))

	result, err := o.CreatePhase(context.Background(), in)
	require.NoError(t, err, "assignment failures do not fail the operation")
	assert.Equal(t, 1, result.FailedAssignments)
	assert.Equal(t, 1, store.assignmentCount())
}

func TestBuildPhaseDetails(t *testing.T) {
	o := NewPhaseOrchestrator(&fakePhaseStore{}, cache.New(time.Minute))

	t.Run("installation always present", func(t *testing.T) {
		in := validPhaseInput()
		in.InstallationDate = "2026-09-15"
		in.CrewSize = "3"

		phase, err := o.buildPhase(in)
		require.NoError(t, err)

		var inst models.InstallationDetail
		require.NoError(t, json.Unmarshal(phase.Installation, &inst))
		assert.Equal(t, models.InstallationNotStarted, inst.Status)
		assert.Equal(t, "2026-09-15", inst.ScheduledDate)
		assert.Equal(t, "3", inst.CrewSize)
	})

	t.Run("powder coat omitted when empty", func(t *testing.T) {
		phase, err := o.buildPhase(validPhaseInput())
		require.NoError(t, err)
		assert.Nil(t, phase.PowderCoat)
	})

	t.Run("powder coat kept when any field set", func(t *testing.T) {
		in := validPhaseInput()
		in.PowderCoatColor = "RAL 9005"

		phase, err := o.buildPhase(in)
		require.NoError(t, err)
		require.NotNil(t, phase.PowderCoat)

		var pc models.PowderCoatDetail
		require.NoError(t, json.Unmarshal(phase.PowderCoat, &pc))
		assert.Equal(t, "RAL 9005", pc.Color)
	})

	t.Run("fractional phase number", func(t *testing.T) {
		in := validPhaseInput()
		in.PhaseNumber = "2.5"

		phase, err := o.buildPhase(in)
		require.NoError(t, err)
		assert.Equal(t, 2.5, phase.PhaseNumber)
	})
}
