package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/wilkieco/contact-api/internal/dto"
	"github.com/wilkieco/contact-api/internal/ratelimit"
	"github.com/wilkieco/contact-api/internal/security"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type stubLimiter struct {
	result ratelimit.Result
	err    error
	calls  int
}

func (s *stubLimiter) Allow(_ context.Context, _ string) (ratelimit.Result, error) {
	s.calls++
	return s.result, s.err
}

func allowAll() *stubLimiter {
	return &stubLimiter{result: ratelimit.Result{Allowed: true, Remaining: 2}}
}

type recordingDelivery struct {
	sent []dto.ContactFormData
	err  error
}

func (r *recordingDelivery) Send(_ context.Context, data dto.ContactFormData) error {
	r.sent = append(r.sent, data)
	return r.err
}

func (r *recordingDelivery) Mode() string { return "stub" }

func newTestService(limiter ratelimit.Limiter, delivery Delivery) ContactService {
	detector := security.NewDetector([]string{"viagra", "casino", "lottery", "winner"})
	return NewContactService(limiter, NewValidator(), detector, delivery, testLogger())
}

func validInput() dto.SubmissionInput {
	return dto.SubmissionInput{
		Name:    "Alice Carpenter",
		Email:   "alice@example.com",
		Message: "I would like a quote for fitted wardrobes.",
	}
}

func TestSubmitSuccess(t *testing.T) {
	delivery := &recordingDelivery{}
	svc := newTestService(allowAll(), delivery)

	resp, err := svc.Submit(context.Background(), validInput(), "203.0.113.9")
	require.NoError(t, err)
	require.NotEmpty(t, resp.ReferenceID)
	require.Len(t, delivery.sent, 1)
	require.Equal(t, "Alice Carpenter", delivery.sent[0].Name)
}

func TestSubmitRateLimited(t *testing.T) {
	resetAt := time.Now().Add(45 * time.Second)
	limiter := &stubLimiter{result: ratelimit.Result{Allowed: false, ResetAt: resetAt}}
	delivery := &recordingDelivery{}
	svc := newTestService(limiter, delivery)

	_, err := svc.Submit(context.Background(), validInput(), "203.0.113.9")

	var rateLimited *RateLimitError
	require.ErrorAs(t, err, &rateLimited)
	require.Equal(t, resetAt, rateLimited.ResetAt)
	require.Empty(t, delivery.sent)
}

func TestSubmitUnconfigured(t *testing.T) {
	svc := newTestService(allowAll(), nil)

	_, err := svc.Submit(context.Background(), validInput(), "203.0.113.9")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestSubmitLimiterBackendFailure(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("store unavailable")}
	svc := newTestService(limiter, &recordingDelivery{})

	_, err := svc.Submit(context.Background(), validInput(), "203.0.113.9")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrDeliveryFailed)
}

func TestSubmitValidationFailures(t *testing.T) {
	cases := []struct {
		name      string
		input     dto.SubmissionInput
		field     string
		wantError string
	}{
		{
			name:      "missing name",
			input:     dto.SubmissionInput{Email: "a@b.com", Message: "Hello"},
			field:     "name",
			wantError: "Name is required",
		},
		{
			name:      "name too long",
			input:     dto.SubmissionInput{Name: strings.Repeat("a", 101), Email: "a@b.com", Message: "Hello"},
			field:     "name",
			wantError: "Name must be less than 100 characters",
		},
		{
			name:      "missing message",
			input:     dto.SubmissionInput{Name: "Alice", Email: "a@b.com"},
			field:     "message",
			wantError: "Message is required",
		},
		{
			name:      "message too long",
			input:     dto.SubmissionInput{Name: "Alice", Email: "a@b.com", Message: strings.Repeat("m", 1001)},
			field:     "message",
			wantError: "Message must be less than 1000 characters",
		},
		{
			name:      "invalid email",
			input:     dto.SubmissionInput{Name: "Alice", Email: "invalid-email", Message: "Hello"},
			field:     "email",
			wantError: "Invalid email address",
		},
		{
			name:      "invalid phone",
			input:     dto.SubmissionInput{Name: "Alice", Phone: "12345", Message: "Hello"},
			field:     "phone",
			wantError: "Invalid phone number",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			delivery := &recordingDelivery{}
			svc := newTestService(allowAll(), delivery)

			_, err := svc.Submit(context.Background(), tc.input, "203.0.113.9")

			var invalid *ValidationError
			require.ErrorAs(t, err, &invalid)
			require.Contains(t, invalid.Fields[tc.field], tc.wantError)
			require.Empty(t, delivery.sent)
		})
	}
}

func TestSubmitContactMethodRule(t *testing.T) {
	svc := newTestService(allowAll(), &recordingDelivery{})

	_, err := svc.Submit(context.Background(), dto.SubmissionInput{Name: "X", Message: "Y"}, "203.0.113.9")

	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	require.Contains(t, invalid.Fields["email"], "Either email or phone number is required")
	require.Contains(t, invalid.Fields[dto.RootField], "Either email or phone number is required")

	// Supplying just one contact method satisfies the rule.
	delivery := &recordingDelivery{}
	svc = newTestService(allowAll(), delivery)
	_, err = svc.Submit(context.Background(), dto.SubmissionInput{Name: "X", Email: "a@b.com", Message: "Y"}, "203.0.113.9")
	require.NoError(t, err)
	require.Len(t, delivery.sent, 1)
}

func TestSubmitPhoneOnly(t *testing.T) {
	delivery := &recordingDelivery{}
	svc := newTestService(allowAll(), delivery)

	input := dto.SubmissionInput{Name: "Bob", Phone: "07123 456789", Message: "Please call me back."}
	_, err := svc.Submit(context.Background(), input, "203.0.113.9")
	require.NoError(t, err)
	require.Len(t, delivery.sent, 1)
}

func TestSubmitSanitizesBeforeDelivery(t *testing.T) {
	delivery := &recordingDelivery{}
	svc := newTestService(allowAll(), delivery)

	input := dto.SubmissionInput{
		Name:    "  Alice  ",
		Email:   "alice@example.com",
		Message: "<script>alert(1)</script>Interested in oak shelving.",
	}
	_, err := svc.Submit(context.Background(), input, "203.0.113.9")
	require.NoError(t, err)
	require.Len(t, delivery.sent, 1)
	require.Equal(t, "Alice", delivery.sent[0].Name)
	require.Equal(t, "Interested in oak shelving.", delivery.sent[0].Message)
}

func TestSubmitSpamBlocked(t *testing.T) {
	delivery := &recordingDelivery{}
	svc := newTestService(allowAll(), delivery)

	input := dto.SubmissionInput{
		Name:    "Spammer",
		Email:   "spam@example.com",
		Message: "win https://a.example https://b.example https://c.example",
	}
	_, err := svc.Submit(context.Background(), input, "203.0.113.9")
	require.ErrorIs(t, err, ErrSpamBlocked)
	require.Empty(t, delivery.sent)
}

func TestSubmitDeliveryFailure(t *testing.T) {
	delivery := &recordingDelivery{err: errors.New("smtp: connection refused")}
	svc := newTestService(allowAll(), delivery)

	_, err := svc.Submit(context.Background(), validInput(), "203.0.113.9")
	require.ErrorIs(t, err, ErrDeliveryFailed)
	// The transport detail must not surface through the returned error.
	require.NotContains(t, err.Error(), "connection refused")
	require.Len(t, delivery.sent, 1)
}

func TestValidateStepDefersMessage(t *testing.T) {
	svc := newTestService(allowAll(), &recordingDelivery{})

	fields := svc.ValidateStep(dto.SubmissionInput{Name: "Alice", Email: "alice@example.com"})
	require.True(t, fields.Empty())

	fields = svc.ValidateStep(dto.SubmissionInput{Name: "Alice"})
	require.Contains(t, fields["email"], "Either email or phone number is required")

	fields = svc.ValidateStep(dto.SubmissionInput{Email: "alice@example.com"})
	require.Contains(t, fields["name"], "Name is required")
}

func TestMaskEmail(t *testing.T) {
	require.Equal(t, "a***e@example.com", maskEmail("alice@example.com"))
	require.Equal(t, "a***@example.com", maskEmail("ab@example.com"))
	require.Equal(t, "", maskEmail(""))
	require.Equal(t, "***", maskEmail("not-an-email"))
}
