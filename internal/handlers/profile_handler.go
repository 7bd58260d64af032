package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/fabtrack/fabtrack-backend/internal/access"
	"github.com/fabtrack/fabtrack-backend/internal/dto"
	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/fabtrack/fabtrack-backend/internal/services"
	"github.com/fabtrack/fabtrack-backend/internal/session"
	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	profiles *services.ProfileService
	resolver *services.ProfileResolver
	sessions *session.Manager
}

func NewProfileHandler(profiles *services.ProfileService, resolver *services.ProfileResolver, sessions *session.Manager) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, resolver: resolver, sessions: sessions}
}

// Me returns the actor's merged session view. A lookup failure or a
// still-missing profile degrades to an incomplete view rather than an
// error: the actor stays authenticated, just without role-gated access.
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	forceRefresh := c.QueryBool("refresh", false)
	_, fetchErr := h.resolver.FetchProfile(c.UserContext(), userID, forceRefresh)

	sess, ok := h.sessions.Get(userID)
	if !ok {
		sess = session.Session{
			Authenticated: true,
			UserID:        userID,
			Email:         session.Email(c),
		}
	}

	complete := fetchErr == nil && sess.User.Role != access.RoleUnknown
	return c.JSON(dto.MeResponse{Session: sess, ProfileComplete: complete})
}

// Upsert creates or updates a worker's profile. Administration only.
func (h *ProfileHandler) Upsert(c *fiber.Ctx) error {
	var req dto.UpsertProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	profile := models.Profile{
		UserID:            req.UserID,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Role:              req.Role,
		WorkArea:          req.WorkArea,
		Email:             req.Email,
		CellPhoneNumber:   req.CellPhoneNumber,
		ProfilePictureURL: req.ProfilePictureURL,
	}

	if err := h.profiles.Upsert(c.UserContext(), &profile); err != nil {
		if errors.Is(err, services.ErrUnknownRole) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to save profile",
		})
	}

	// The subject may be logged in right now; refresh their merged view.
	// Runs detached: the fiber ctx is recycled once this handler returns.
	go func() {
		_, _ = h.resolver.FetchProfile(context.Background(), req.UserID, true)
	}()

	return c.JSON(profile)
}

func (h *ProfileHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	profiles, total, err := h.profiles.List(c.UserContext(), limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch profiles",
		})
	}

	return c.JSON(dto.ProfileListResponse{
		Profiles: profiles,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}
