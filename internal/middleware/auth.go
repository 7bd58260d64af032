package middleware

import (
	"github.com/fabtrack/fabtrack-backend/internal/config"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

// JWTProtected rejects requests without a valid access token. The
// originally requested location is echoed back so the client can return
// to it after logging in.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":    true,
				"message":  "Unauthorized: invalid or expired token",
				"redirect": "/login",
				"from":     c.OriginalURL(),
			})
		},
	})
}
