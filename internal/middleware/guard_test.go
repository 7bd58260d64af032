package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/fabtrack/fabtrack-backend/internal/access"
	"github.com/fabtrack/fabtrack-backend/internal/models"
	"github.com/fabtrack/fabtrack-backend/internal/services"
	"github.com/fabtrack/fabtrack-backend/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProfiles struct {
	rows map[uuid.UUID]*models.Profile
}

func (s *staticProfiles) SelectProfile(_ context.Context, userID uuid.UUID) (*models.Profile, error) {
	return s.rows[userID], nil
}

type noopProvider struct{}

func (noopProvider) GetSession(context.Context, string) (*session.Identity, error) { return nil, nil }
func (noopProvider) SignInWithPassword(context.Context, string, string) (*session.Identity, *session.Credentials, error) {
	return nil, nil, nil
}
func (noopProvider) SignOut(context.Context, string) error { return nil }

func (noopProvider) ResetPasswordForEmail(context.Context, string, string) error { return nil }

func (noopProvider) OnAuthStateChange(func(session.AuthEvent)) func() { return func() {} }

// guardApp builds a fiber app with the actor's token pre-injected, the
// way jwtware leaves it, and one admin-gated route.
func guardApp(t *testing.T, resolver *services.ProfileResolver, userID *uuid.UUID) *fiber.App {
	t.Helper()
	app := fiber.New()
	if userID != nil {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals("user", jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
				"sub": userID.String(),
			}))
			return c.Next()
		})
	}
	app.Get("/admin", RequireRoles(resolver, access.Administration...), func(c *fiber.Ctx) error {
		return c.SendString("admin content")
	})
	return app
}

func TestRequireRoles(t *testing.T) {
	frontOffice := uuid.New()
	welder := uuid.New()
	noProfile := uuid.New()

	store := &staticProfiles{rows: map[uuid.UUID]*models.Profile{
		frontOffice: {UserID: frontOffice, FirstName: "Dana", Role: "Front Office"},
		welder:      {UserID: welder, FirstName: "Mel", Role: "Welder"},
	}}
	sessions := session.NewManager(noopProvider{})
	t.Cleanup(sessions.Close)
	resolver := services.NewProfileResolver(store, sessions)

	tests := []struct {
		name       string
		userID     *uuid.UUID
		wantStatus int
	}{
		{"allowed role", &frontOffice, fiber.StatusOK},
		{"disallowed role", &welder, fiber.StatusForbidden},
		{"no profile yet", &noProfile, fiber.StatusForbidden},
		{"no token", nil, fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := guardApp(t, resolver, tt.userID)
			resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
