package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wilkieco/contact-api/internal/dto"
	"github.com/wilkieco/contact-api/internal/observability"
	"github.com/wilkieco/contact-api/internal/ratelimit"
	"github.com/wilkieco/contact-api/internal/security"
)

var (
	// ErrSpamBlocked indicates the spam heuristic rejected the submission.
	// Callers report it generically without revealing which rule matched.
	ErrSpamBlocked = errors.New("submission blocked by spam heuristic")
	// ErrNotConfigured indicates no delivery path is available.
	ErrNotConfigured = errors.New("email delivery is not configured")
	// ErrDeliveryFailed indicates the single delivery attempt failed. The
	// underlying transport error stays in the logs, never in responses.
	ErrDeliveryFailed = errors.New("contact delivery failed")
)

// RateLimitError carries the window reset time so the caller can compute a
// retry-after hint.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// ValidationError carries the per-field validation messages for the caller.
type ValidationError struct {
	Fields dto.FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

// ContactService exposes the contact submission workflow.
type ContactService interface {
	Submit(ctx context.Context, input dto.SubmissionInput, clientIP string) (dto.ContactResponse, error)
	ValidateStep(input dto.SubmissionInput) dto.FieldErrors
}

type contactService struct {
	limiter   ratelimit.Limiter
	validator *validator.Validate
	detector  *security.Detector
	delivery  Delivery
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewContactService constructs the submission pipeline. A nil delivery means
// the service is unconfigured and every submission fails deterministically.
func NewContactService(limiter ratelimit.Limiter, validate *validator.Validate, detector *security.Detector, delivery Delivery, logger zerolog.Logger) ContactService {
	return &contactService{
		limiter:   limiter,
		validator: validate,
		detector:  detector,
		delivery:  delivery,
		logger:    logger.With().Str("component", "contact_service").Logger(),
		tracer:    otel.Tracer("github.com/wilkieco/contact-api/internal/service"),
	}
}

// NewValidator builds the struct validator with the pipeline's custom rules.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("phone_digits", func(fl validator.FieldLevel) bool {
		return security.IsValidPhone(fl.Field().String())
	})
	return validate
}

// Submit runs the pipeline for one submission: rate limit, configuration
// check, sanitization, validation, spam heuristic, delivery. Stages short
// circuit on first failure and every outcome is counted.
func (s *contactService) Submit(ctx context.Context, input dto.SubmissionInput, clientIP string) (dto.ContactResponse, error) {
	ctx, span := s.tracer.Start(ctx, "contact.submit")
	defer span.End()

	limit, err := s.limiter.Allow(ctx, clientIP)
	if err != nil {
		span.RecordError(err)
		return dto.ContactResponse{}, fmt.Errorf("rate limit check: %w", err)
	}
	if !limit.Allowed {
		span.SetStatus(codes.Error, "rate limited")
		observability.Submissions().WithLabelValues(observability.OutcomeRateLimited).Inc()
		return dto.ContactResponse{}, &RateLimitError{ResetAt: limit.ResetAt}
	}

	if s.delivery == nil {
		span.SetStatus(codes.Error, "delivery unconfigured")
		observability.Submissions().WithLabelValues(observability.OutcomeUnconfigured).Inc()
		return dto.ContactResponse{}, ErrNotConfigured
	}

	data := sanitizeInput(input)

	if fields := s.validate(data, false); !fields.Empty() {
		span.SetStatus(codes.Error, "validation failed")
		observability.Submissions().WithLabelValues(observability.OutcomeValidationFailed).Inc()
		return dto.ContactResponse{}, &ValidationError{Fields: fields}
	}

	combined := strings.Join([]string{data.Name, data.Email, data.Phone, data.Message}, " ")
	if s.detector.IsSpam(combined) {
		span.SetStatus(codes.Error, "spam heuristic")
		observability.Submissions().WithLabelValues(observability.OutcomeSpam).Inc()
		s.logger.Warn().Str("client_ip", clientIP).Msg("submission blocked by spam heuristic")
		return dto.ContactResponse{}, ErrSpamBlocked
	}

	if err := s.delivery.Send(ctx, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		observability.Submissions().WithLabelValues(observability.OutcomeDeliveryError).Inc()
		s.logger.Error().Err(err).Str("client_ip", clientIP).Str("delivery", s.delivery.Mode()).Msg("contact delivery failed")
		return dto.ContactResponse{}, ErrDeliveryFailed
	}

	referenceID := uuid.New().String()
	span.SetAttributes(attribute.String("contact.reference_id", referenceID))
	observability.Submissions().WithLabelValues(observability.OutcomeAccepted).Inc()
	s.logger.Info().
		Str("reference_id", referenceID).
		Str("email", maskEmail(data.Email)).
		Str("delivery", s.delivery.Mode()).
		Msg("contact submission delivered")

	return dto.ContactResponse{ReferenceID: referenceID}, nil
}

// ValidateStep checks name, email and phone plus the contact-method rule,
// deferring the message requirement. Multi-step clients call this between
// steps; Submit always validates the full record regardless.
func (s *contactService) ValidateStep(input dto.SubmissionInput) dto.FieldErrors {
	return s.validate(sanitizeInput(input), true)
}

func sanitizeInput(input dto.SubmissionInput) dto.ContactFormData {
	return dto.ContactFormData{
		Name:    security.Sanitize(input.Name),
		Email:   security.Sanitize(input.Email),
		Phone:   security.Sanitize(input.Phone),
		Message: security.Sanitize(input.Message),
	}
}

func (s *contactService) validate(data dto.ContactFormData, partial bool) dto.FieldErrors {
	fields := dto.FieldErrors{}

	var err error
	if partial {
		err = s.validator.StructPartial(data, "Name", "Email", "Phone")
	} else {
		err = s.validator.Struct(data)
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fe := range validationErrors {
			field, message := fieldErrorMessage(fe)
			fields.Add(field, message)
		}
	}

	// Independent format checks beyond the struct tags, usable on their own.
	if data.Email != "" && !security.IsValidEmail(data.Email) {
		addOnce(fields, "email", "Invalid email address")
	}
	if !security.IsValidPhone(data.Phone) {
		addOnce(fields, "phone", "Invalid phone number")
	}

	// At least one way to reach the submitter. The error sits on the email
	// field to mirror form placement, and on root as a cross-field rule.
	if data.Email == "" && data.Phone == "" {
		fields.Add("email", "Either email or phone number is required")
		fields.Add(dto.RootField, "Either email or phone number is required")
	}

	return fields
}

func fieldErrorMessage(fe validator.FieldError) (string, string) {
	switch fe.Field() {
	case "Name":
		if fe.Tag() == "required" {
			return "name", "Name is required"
		}
		return "name", "Name must be less than 100 characters"
	case "Email":
		if fe.Tag() == "max" {
			return "email", "Email must be less than 254 characters"
		}
		return "email", "Invalid email address"
	case "Phone":
		return "phone", "Invalid phone number"
	case "Message":
		if fe.Tag() == "required" {
			return "message", "Message is required"
		}
		return "message", "Message must be less than 1000 characters"
	}
	return dto.RootField, "Invalid value"
}

func addOnce(fields dto.FieldErrors, field, message string) {
	for _, existing := range fields[field] {
		if existing == message {
			return
		}
	}
	fields.Add(field, message)
}
