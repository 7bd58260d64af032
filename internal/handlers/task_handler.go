package handlers

import (
	"errors"

	"github.com/fabtrack/fabtrack-backend/internal/dto"
	"github.com/fabtrack/fabtrack-backend/internal/services"
	"github.com/fabtrack/fabtrack-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type TaskHandler struct {
	tasks *services.TaskService
	store *store.Store
}

func NewTaskHandler(tasks *services.TaskService, st *store.Store) *TaskHandler {
	return &TaskHandler{tasks: tasks, store: st}
}

func (h *TaskHandler) Add(c *fiber.Ctx) error {
	var req dto.AddTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	task, err := h.tasks.AddTask(c.UserContext(), req.PhaseID, req.Area, req.Name)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(task)
}

func (h *TaskHandler) UpdateStatus(c *fiber.Ctx) error {
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid task id",
		})
	}

	var req dto.UpdateTaskStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := h.tasks.UpdateTaskStatus(c.UserContext(), taskID, req.IsComplete); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Task not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update task",
		})
	}

	return c.JSON(fiber.Map{"message": "Task updated"})
}

func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid task id",
		})
	}

	if err := h.tasks.DeleteTask(c.UserContext(), taskID); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Task not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete task",
		})
	}

	return c.JSON(fiber.Map{"message": "Task deleted"})
}

// Assign adds a single best-effort assignment to an existing task.
func (h *TaskHandler) Assign(c *fiber.Ctx) error {
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid task id",
		})
	}

	var req dto.AssignTaskRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := h.store.AssignUserToTask(c.UserContext(), taskID, req.UserID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to assign user",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "User assigned"})
}

func (h *TaskHandler) Assignees(c *fiber.Ctx) error {
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid task id",
		})
	}

	ids, err := h.store.AssigneesForTask(c.UserContext(), taskID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch assignees",
		})
	}

	return c.JSON(dto.TaskAssigneesResponse{TaskID: taskID, Assignees: ids})
}
