package handlers

import (
	"errors"

	"github.com/fabtrack/fabtrack-backend/internal/dto"
	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/fabtrack/fabtrack-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PhaseHandler struct {
	orchestrator *services.PhaseOrchestrator
	phases       *services.PhaseService
}

func NewPhaseHandler(orchestrator *services.PhaseOrchestrator, phases *services.PhaseService) *PhaseHandler {
	return &PhaseHandler{orchestrator: orchestrator, phases: phases}
}

// Create runs the whole phase-creation operation: validation, the
// transactional phase+task write, then best-effort assignments. A
// validation failure is a 400 with zero side effects.
func (h *PhaseHandler) Create(c *fiber.Ctx) error {
	var req dto.CreatePhaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	input := services.PhaseInput{
		JobID:                req.JobID,
		PhaseName:            req.PhaseName,
		PhaseNumber:          req.PhaseNumber,
		MaterialsDescription: req.MaterialsDescription,
		CrewSize:             req.CrewSize,
		EstimatedHours:       req.EstimatedHours,
		InstallationDate:     req.InstallationDate,
		PowderCoatColor:      req.PowderCoatColor,
		PowderCoatVendor:     req.PowderCoatVendor,
		PowderCoatCureDate:   req.PowderCoatCureDate,
		TasksByArea:          make(map[models.WorkArea][]models.PendingTask, len(req.TasksByArea)),
	}
	for area, list := range req.TasksByArea {
		pending := make([]models.PendingTask, 0, len(list))
		for _, pt := range list {
			ref := uuid.New()
			if pt.ClientRef != nil {
				ref = *pt.ClientRef
			}
			pending = append(pending, models.PendingTask{
				ClientRef:   ref,
				Name:        pt.Name,
				AssigneeIDs: pt.AssigneeIDs,
				Hours:       pt.Hours,
			})
		}
		input.TasksByArea[area] = pending
	}

	result, err := h.orchestrator.CreatePhase(c.UserContext(), input)
	if err != nil {
		if errors.Is(err, services.ErrJobRequired) ||
			errors.Is(err, services.ErrPhaseNameRequired) ||
			errors.Is(err, services.ErrInvalidPhaseNumber) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create phase",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *PhaseHandler) ListForJob(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid job id",
		})
	}

	phases, err := h.phases.ForJob(c.UserContext(), jobID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch phases",
		})
	}

	return c.JSON(dto.PhaseListResponse{Phases: phases})
}

func (h *PhaseHandler) Get(c *fiber.Ctx) error {
	phaseID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid phase id",
		})
	}

	phase, err := h.phases.Get(c.UserContext(), phaseID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch phase",
		})
	}
	if phase == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Phase not found",
		})
	}

	tasks, err := h.phases.Tasks(c.UserContext(), phaseID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch phase tasks",
		})
	}

	return c.JSON(dto.PhaseDetailResponse{Phase: *phase, Tasks: tasks})
}
