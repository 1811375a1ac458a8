package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wilkieco/contact-api/internal/config"
	"github.com/wilkieco/contact-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Delivery    string    `json:"delivery"`
}

// HealthCheck returns a handler that reports application health information,
// including which delivery path is active ("none" when unconfigured).
func HealthCheck(cfg config.Config, deliveryMode string) fiber.Handler {
	if deliveryMode == "" {
		deliveryMode = "none"
	}

	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Delivery:    deliveryMode,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
