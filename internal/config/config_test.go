package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "Contact API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, 3, cfg.RateLimitMax)
	require.Equal(t, time.Minute, cfg.RateLimitWindow)
	require.Equal(t, 10000, cfg.MaxBodyBytes)
	require.Contains(t, cfg.SpamTerms, "lottery")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONTACT_APP_PORT", ":9090")
	t.Setenv("CONTACT_RATE_LIMIT_MAX", "5")
	t.Setenv("CONTACT_SPAM_TERMS", "bitcoin, forex ,")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, 5, cfg.RateLimitMax)
	require.Equal(t, []string{"bitcoin", "forex"}, cfg.SpamTerms)
}

func TestSMTPConfiguredRequiresEveryField(t *testing.T) {
	cfg := Config{
		SMTPHost:       "smtp.mail.me.com",
		SMTPPort:       587,
		SMTPUsername:   "user@example.com",
		SMTPPassword:   "app-password",
		SMTPFromEmail:  "noreply@example.com",
		SMTPFromName:   "Wilkie & Co",
		ContactEmailTo: "office@example.com",
	}
	require.True(t, cfg.SMTPConfigured())

	partial := cfg
	partial.SMTPPassword = ""
	require.False(t, partial.SMTPConfigured())

	noRecipient := cfg
	noRecipient.ContactEmailTo = ""
	require.False(t, noRecipient.SMTPConfigured())
}

func TestResendConfigured(t *testing.T) {
	require.False(t, Config{ResendAPIKey: "re_123"}.ResendConfigured())
	require.False(t, Config{ContactEmailTo: "office@example.com"}.ResendConfigured())
	require.True(t, Config{ResendAPIKey: "re_123", ContactEmailTo: "office@example.com"}.ResendConfigured())
}
