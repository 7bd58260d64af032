package handlers

import (
	"errors"
	"time"

	"github.com/fabtrack/fabtrack-backend/internal/dto"
	"github.com/fabtrack/fabtrack-backend/internal/services"
	"github.com/fabtrack/fabtrack-backend/internal/session"
	"github.com/gofiber/fiber/v2"
)

type TimeClockHandler struct {
	timeclock *services.TimeClockService
}

func NewTimeClockHandler(timeclock *services.TimeClockService) *TimeClockHandler {
	return &TimeClockHandler{timeclock: timeclock}
}

func (h *TimeClockHandler) ClockIn(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.ClockInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	entry, err := h.timeclock.ClockIn(c.UserContext(), userID, req.JobID)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyClockedIn) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to clock in",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *TimeClockHandler) ClockOut(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	entry, err := h.timeclock.ClockOut(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotClockedIn) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to clock out",
		})
	}

	return c.JSON(entry)
}

func (h *TimeClockHandler) Entries(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var from, to time.Time
	if v := c.Query("from"); v != "" {
		from, _ = time.Parse(time.RFC3339, v)
	}
	if v := c.Query("to"); v != "" {
		to, _ = time.Parse(time.RFC3339, v)
	}

	entries, err := h.timeclock.Entries(c.UserContext(), userID, from, to)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch time entries",
		})
	}

	return c.JSON(dto.TimeEntryListResponse{Entries: entries})
}
