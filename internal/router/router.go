package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wilkieco/contact-api/internal/config"
	"github.com/wilkieco/contact-api/internal/handler"
	"github.com/wilkieco/contact-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ContactHandler *handler.ContactHandler
	DeliveryMode   string
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})

	api.Get("/health", handler.HealthCheck(cfg, deps.DeliveryMode))

	if deps.ContactHandler != nil {
		deps.ContactHandler.Register(api.Group("/contact"))
	}

	app.Get("/metrics", observability.MetricsHandler())
}
