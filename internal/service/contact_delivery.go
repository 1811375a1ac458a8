package service

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/wilkieco/contact-api/internal/config"
	"github.com/wilkieco/contact-api/internal/dto"
)

// Delivery sends the notification email for a validated submission. Exactly
// one attempt is made per submission; failures are reported, never retried.
type Delivery interface {
	Send(ctx context.Context, data dto.ContactFormData) error
	Mode() string
}

// ResolveDelivery picks the delivery path once at startup. A fully
// configured SMTP block wins and is used exclusively; otherwise the hosted
// email API is used when its key and recipient are present. Partial
// configuration of a path counts as unconfigured, and nil means no path is
// available at all.
func ResolveDelivery(cfg config.Config, logger zerolog.Logger) Delivery {
	if cfg.SMTPConfigured() {
		return newSMTPDelivery(cfg, logger)
	}
	if cfg.ResendConfigured() {
		return newResendDelivery(cfg, logger)
	}
	return nil
}

type resendDelivery struct {
	client *resend.Client
	cfg    config.Config
	logger zerolog.Logger
}

func newResendDelivery(cfg config.Config, logger zerolog.Logger) *resendDelivery {
	return &resendDelivery{
		client: resend.NewClient(cfg.ResendAPIKey),
		cfg:    cfg,
		logger: logger.With().Str("component", "resend_delivery").Logger(),
	}
}

func (d *resendDelivery) Mode() string { return "resend" }

// Send issues a single send call against the hosted API. Note the call is
// not idempotent: a network error after the provider accepted the message
// makes a sent email look failed, and no deduplication key is used.
func (d *resendDelivery) Send(ctx context.Context, data dto.ContactFormData) error {
	html, err := renderNotification(data)
	if err != nil {
		return fmt.Errorf("render notification: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    "Contact Form <onboarding@resend.dev>",
		To:      []string{d.cfg.ContactEmailTo},
		Subject: fmt.Sprintf("Contact Form Submission from %s", data.Name),
		Html:    html,
	}
	if data.Email != "" {
		params.ReplyTo = data.Email
	}

	if _, err := d.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send: %w", err)
	}

	return nil
}
