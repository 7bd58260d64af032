package middleware

import (
	"github.com/fabtrack/fabtrack-backend/internal/access"
	"github.com/fabtrack/fabtrack-backend/internal/dto"
	"github.com/fabtrack/fabtrack-backend/internal/services"
	"github.com/fabtrack/fabtrack-backend/internal/session"
	"github.com/gofiber/fiber/v2"
)

// RequireRoles gates a route group on the access policy. It expects
// JWTProtected to have run already; an authenticated actor whose role is
// not in the allow-list (including actors with no profile yet) gets a
// single insufficient-permission notice and a home redirect hint.
func RequireRoles(resolver *services.ProfileResolver, allowed ...access.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := session.UserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		role := resolver.Role(c.UserContext(), userID)
		if !access.IsAuthorized(role, allowed) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error:    true,
				Message:  "You do not have permission to view this page",
				Redirect: "/",
			})
		}

		return c.Next()
	}
}
