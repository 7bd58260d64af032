package routes

import (
	"time"

	"github.com/fabtrack/fabtrack-backend/internal/access"
	"github.com/fabtrack/fabtrack-backend/internal/config"
	"github.com/fabtrack/fabtrack-backend/internal/handlers"
	"github.com/fabtrack/fabtrack-backend/internal/middleware"
	"github.com/fabtrack/fabtrack-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	resolver *services.ProfileResolver,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	profileHandler *handlers.ProfileHandler,
	jobHandler *handlers.JobHandler,
	phaseHandler *handlers.PhaseHandler,
	taskHandler *handlers.TaskHandler,
	timeClockHandler *handlers.TimeClockHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter limiter: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/session", authHandler.Session)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/reset-password/confirm", authHandler.ConfirmReset)

	// Protected auth operations
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Delete("/auth/account", middleware.JWTProtected(cfg), authHandler.DeleteAccount)

	// Everything below requires a valid token
	protected := api.Group("", middleware.JWTProtected(cfg))

	protected.Get("/me", profileHandler.Me)

	protected.Get("/jobs", jobHandler.List)
	protected.Get("/jobs/search", jobHandler.Search)
	protected.Get("/jobs/in-progress-phases", jobHandler.InProgressPhases)
	protected.Get("/jobs/:id", jobHandler.Get)
	protected.Get("/jobs/:id/phases", phaseHandler.ListForJob)

	protected.Get("/phases/:id", phaseHandler.Get)

	protected.Post("/tasks", taskHandler.Add)
	protected.Put("/tasks/:id/status", taskHandler.UpdateStatus)
	protected.Delete("/tasks/:id", taskHandler.Delete)
	protected.Post("/tasks/:id/assignees", taskHandler.Assign)
	protected.Get("/tasks/:id/assignees", taskHandler.Assignees)

	protected.Post("/timeclock/in", timeClockHandler.ClockIn)
	protected.Post("/timeclock/out", timeClockHandler.ClockOut)
	protected.Get("/timeclock/entries", timeClockHandler.Entries)

	// Administration area: role-gated on top of JWT
	admin := api.Group("/admin",
		middleware.JWTProtected(cfg),
		middleware.RequireRoles(resolver, access.Administration...),
	)
	admin.Post("/jobs", jobHandler.Create)
	admin.Put("/jobs/:id", jobHandler.Update)
	admin.Delete("/jobs/:id", jobHandler.Delete)
	admin.Post("/phases", phaseHandler.Create)
	admin.Get("/profiles", profileHandler.List)
	admin.Put("/profiles", profileHandler.Upsert)
}
