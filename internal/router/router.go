package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/capstone-portal-api/internal/config"
	"github.com/noah-isme/capstone-portal-api/internal/handler"
	"github.com/noah-isme/capstone-portal-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler     *handler.AssignmentHandler
	SubmissionHandler     *handler.SubmissionHandler
	VersionHandler        *handler.VersionHandler
	GroupDashboardHandler *handler.GroupDashboardHandler
	AnnouncementHandler   *handler.AnnouncementHandler
	UploadHandler         *handler.UploadHandler
	JWTMiddleware         fiber.Handler
	TurnInLimiter         fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler(cfg.MetricsToken))

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	secured := api.Group("", jwtMiddleware)
	courses := secured.Group("/courses")

	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(secured.Group("/assignments"))
		deps.AssignmentHandler.RegisterCourseRoutes(courses)
	}

	if deps.SubmissionHandler != nil {
		var guards []fiber.Handler
		if deps.TurnInLimiter != nil {
			guards = append(guards, deps.TurnInLimiter)
		}
		deps.SubmissionHandler.Register(secured.Group("/submissions"), guards...)
	}

	if deps.VersionHandler != nil {
		deps.VersionHandler.Register(secured)
	}

	if deps.GroupDashboardHandler != nil {
		deps.GroupDashboardHandler.Register(secured.Group("/groups"))
	}

	if deps.AnnouncementHandler != nil {
		deps.AnnouncementHandler.Register(courses)
	}

	if deps.UploadHandler != nil {
		deps.UploadHandler.Register(secured.Group("/uploads"))
	}
}
