package handler

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/wilkieco/contact-api/internal/dto"
	"github.com/wilkieco/contact-api/internal/service"
	"github.com/wilkieco/contact-api/internal/utils"
)

// defaultRetryAfter is the fallback hint when the limiter cannot supply a
// usable reset time.
const defaultRetryAfter = 60 * time.Second

// ContactHandler handles contact submissions.
type ContactHandler struct {
	service      service.ContactService
	maxBodyBytes int
	logger       zerolog.Logger
}

// NewContactHandler constructs a contact handler.
func NewContactHandler(svc service.ContactService, maxBodyBytes int, logger zerolog.Logger) *ContactHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 10000
	}
	return &ContactHandler{
		service:      svc,
		maxBodyBytes: maxBodyBytes,
		logger:       logger.With().Str("component", "contact_handler").Logger(),
	}
}

// Register wires contact routes.
func (h *ContactHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
	router.Post("/validate", h.validateStep)
}

func (h *ContactHandler) submit(c *fiber.Ctx) error {
	input, ok, err := h.parseBody(c)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	response, err := h.service.Submit(c.UserContext(), input, utils.ClientIP(c))
	if err != nil {
		return h.mapSubmitError(c, err)
	}

	return utils.SendSuccess(c, "Your message has been sent successfully!", response)
}

func (h *ContactHandler) validateStep(c *fiber.Ctx) error {
	input, ok, err := h.parseBody(c)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if fields := h.service.ValidateStep(input); !fields.Empty() {
		return utils.SendErrorWithDetails(c, fiber.StatusBadRequest, "Validation failed", "Please correct the highlighted fields.", fields)
	}

	return utils.SendSuccess(c, "Looks good so far.", nil)
}

// parseBody enforces the payload size cap and performs per-field type
// guards: string fields are taken as-is, anything else degrades to an empty
// string so the validator reports a plain "required" error instead of a
// type error. The second return value is false when a response was already
// written.
func (h *ContactHandler) parseBody(c *fiber.Ctx) (dto.SubmissionInput, bool, error) {
	body := c.Body()
	if len(body) > h.maxBodyBytes {
		return dto.SubmissionInput{}, false, utils.SendError(c, fiber.StatusRequestEntityTooLarge, "Request body too large.")
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return dto.SubmissionInput{}, false, utils.SendError(c, fiber.StatusBadRequest, "Invalid request body.")
	}

	input := dto.SubmissionInput{
		Name:    stringField(raw, "name"),
		Email:   stringField(raw, "email"),
		Phone:   stringField(raw, "phone"),
		Message: stringField(raw, "message"),
	}

	return input, true, nil
}

func (h *ContactHandler) mapSubmitError(c *fiber.Ctx, err error) error {
	var rateLimited *service.RateLimitError
	var invalid *service.ValidationError

	switch {
	case errors.As(err, &rateLimited):
		retryAfter := int(ratelimitRetryAfter(rateLimited).Seconds())
		c.Set(fiber.HeaderRetryAfter, itoa(retryAfter))
		return utils.SendErrorWithDetails(c, fiber.StatusTooManyRequests,
			"Too many requests",
			"Please wait before submitting again.",
			fiber.Map{"resetTime": rateLimited.ResetAt.UTC().Format(time.RFC3339)})

	case errors.As(err, &invalid):
		return utils.SendErrorWithDetails(c, fiber.StatusBadRequest,
			"Validation failed", "Please correct the highlighted fields.", invalid.Fields)

	case errors.Is(err, service.ErrSpamBlocked):
		// Deliberately generic: no hint about which heuristic matched.
		return utils.SendError(c, fiber.StatusBadRequest, "Message blocked.")

	case errors.Is(err, service.ErrNotConfigured):
		return utils.SendErrorWithDetails(c, fiber.StatusInternalServerError,
			"Email service not configured",
			"Set the SMTP variables or RESEND_API_KEY, plus CONTACT_EMAIL_TO.", nil)

	default:
		h.logger.Error().Err(err).Msg("contact submission failed")
		return utils.SendError(c, fiber.StatusInternalServerError,
			"Failed to send your message. Please try again later or contact us directly.")
	}
}

func ratelimitRetryAfter(err *service.RateLimitError) time.Duration {
	wait := time.Until(err.ResetAt)
	if wait <= 0 {
		return defaultRetryAfter
	}
	return wait
}
