package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/fabtrack/fabtrack-backend/internal/cache"
	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/google/uuid"
)

var (
	ErrJobRequired        = errors.New("job id is required")
	ErrPhaseNameRequired  = errors.New("phase name is required")
	ErrInvalidPhaseNumber = errors.New("phase number must be a positive number")
	ErrMalformedResult    = errors.New("persistence boundary returned no created tasks")
)

// PhaseStore is the persistence boundary for phase creation. The store
// creates the phase row and all task rows in one call and echoes each
// pending task's ClientRef on the created record.
type PhaseStore interface {
	CreatePhaseWithTasks(ctx context.Context, phase *models.Phase, pending map[models.WorkArea][]models.PendingTask) (map[models.WorkArea][]models.CreatedTask, error)
	AssignUserToTask(ctx context.Context, taskID, userID uuid.UUID) error
}

// PhaseInput is everything the orchestrator needs to create a phase with
// its initial task set.
type PhaseInput struct {
	JobID       uuid.UUID
	PhaseName   string
	PhaseNumber string

	MaterialsDescription string
	CrewSize             string
	EstimatedHours       string
	InstallationDate     string

	PowderCoatColor    string
	PowderCoatVendor   string
	PowderCoatCureDate string

	TasksByArea map[models.WorkArea][]models.PendingTask
}

// PhaseResult reports what the operation produced. FailedAssignments
// counts best-effort assignment writes that were lost; the operation
// still succeeds.
type PhaseResult struct {
	Phase             *models.Phase                     `json:"phase"`
	Tasks             map[models.WorkArea][]models.Task `json:"tasks"`
	FailedAssignments int                               `json:"failed_assignments"`
}

// PhaseOrchestrator composes phase creation, the initial per-area tasks,
// and optional user assignments into one user-visible operation with
// defined partial-failure semantics.
type PhaseOrchestrator struct {
	store PhaseStore
	cache *cache.Cache
}

func NewPhaseOrchestrator(store PhaseStore, c *cache.Cache) *PhaseOrchestrator {
	return &PhaseOrchestrator{store: store, cache: c}
}

// CreatePhase validates, then writes phase plus tasks in a single store
// call, then issues best-effort concurrent assignment writes. Validation
// failures and store failures leave zero cache invalidation behind; a
// failed store call carries no rollback guarantee beyond the store's own
// transaction.
func (o *PhaseOrchestrator) CreatePhase(ctx context.Context, in PhaseInput) (*PhaseResult, error) {
	phase, err := o.buildPhase(in)
	if err != nil {
		return nil, err
	}

	for area := range in.TasksByArea {
		if !area.Valid() {
			return nil, fmt.Errorf("unknown work area %q", area)
		}
	}

	created, err := o.store.CreatePhaseWithTasks(ctx, phase, in.TasksByArea)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, ErrMalformedResult
	}

	failed := o.assignAll(ctx, in.TasksByArea, created)

	o.cache.Invalidate(cache.Key("job", in.JobID.String()))
	o.cache.Invalidate(cache.Key("inProgressPhases"))

	result := &PhaseResult{
		Phase:             phase,
		Tasks:             make(map[models.WorkArea][]models.Task, len(created)),
		FailedAssignments: failed,
	}
	for area, list := range created {
		tasks := make([]models.Task, 0, len(list))
		for _, ct := range list {
			tasks = append(tasks, ct.Task)
		}
		result.Tasks[area] = tasks
	}
	return result, nil
}

// buildPhase validates the input and constructs the phase aggregate in
// memory. No writes happen here.
func (o *PhaseOrchestrator) buildPhase(in PhaseInput) (*models.Phase, error) {
	if in.JobID == uuid.Nil {
		return nil, ErrJobRequired
	}

	name := strings.TrimSpace(in.PhaseName)
	if name == "" {
		return nil, ErrPhaseNameRequired
	}

	number, err := strconv.ParseFloat(strings.TrimSpace(in.PhaseNumber), 64)
	if err != nil || number <= 0 {
		return nil, ErrInvalidPhaseNumber
	}

	phase := &models.Phase{
		ID:          uuid.New(),
		JobID:       in.JobID,
		PhaseName:   name,
		PhaseNumber: number,
		Materials: models.MustJSON(models.MaterialsDetail{
			Description: in.MaterialsDescription,
		}),
		Labor: models.MustJSON(models.LaborDetail{
			CrewSize:       in.CrewSize,
			EstimatedHours: in.EstimatedHours,
		}),
		// Installation is always present, defaulted to not-started.
		Installation: models.MustJSON(models.InstallationDetail{
			Status:        models.InstallationNotStarted,
			ScheduledDate: in.InstallationDate,
			CrewSize:      in.CrewSize,
		}),
	}

	powder := models.PowderCoatDetail{
		Color:    in.PowderCoatColor,
		Vendor:   in.PowderCoatVendor,
		CureDate: in.PowderCoatCureDate,
	}
	if !powder.Empty() {
		phase.PowderCoat = models.MustJSON(powder)
	}

	return phase, nil
}

// assignAll issues one assignment write per (task, assignee) pair,
// concurrently. Created tasks are matched to their pending descriptors
// by ClientRef, never by position. Individual failures are logged and
// counted, nothing more.
func (o *PhaseOrchestrator) assignAll(ctx context.Context, pending map[models.WorkArea][]models.PendingTask, created map[models.WorkArea][]models.CreatedTask) int {
	assignees := make(map[uuid.UUID][]uuid.UUID)
	for _, list := range pending {
		for _, pt := range list {
			if len(pt.AssigneeIDs) > 0 {
				assignees[pt.ClientRef] = pt.AssigneeIDs
			}
		}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0

	for _, list := range created {
		for _, ct := range list {
			taskID := ct.Task.ID
			for _, userID := range assignees[ct.ClientRef] {
				wg.Add(1)
				go func(taskID, userID uuid.UUID) {
					defer wg.Done()
					if err := o.store.AssignUserToTask(ctx, taskID, userID); err != nil {
						slog.Error("task assignment failed",
							"task_id", taskID.String(), "user_id", userID.String(), "error", err)
						mu.Lock()
						failed++
						mu.Unlock()
					}
				}(taskID, userID)
			}
		}
	}
	wg.Wait()
	return failed
}
