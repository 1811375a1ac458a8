package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the contact API service.
type Config struct {
	AppName string
	AppEnv  string
	AppPort string

	// SMTP delivery path. The path counts as configured only when every
	// field, including the notification recipient, is non-empty.
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPFromEmail string
	SMTPFromName  string

	// Hosted transactional-email delivery path.
	ResendAPIKey string

	// Recipient for internal notification emails, shared by both paths.
	ContactEmailTo string

	// RedisURL switches the rate limiter to a shared store for
	// multi-instance deployments; empty means in-process memory.
	RateLimitMax    int
	RateLimitWindow time.Duration
	RedisURL        string

	// Spam heuristic vocabulary, tunable without code changes.
	SpamTerms []string

	MaxBodyBytes int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// SMTPConfigured reports whether every SMTP field is present. A partially
// filled SMTP block is treated the same as an absent one.
func (c Config) SMTPConfigured() bool {
	return c.SMTPHost != "" &&
		c.SMTPPort > 0 &&
		c.SMTPUsername != "" &&
		c.SMTPPassword != "" &&
		c.SMTPFromEmail != "" &&
		c.SMTPFromName != "" &&
		c.ContactEmailTo != ""
}

// ResendConfigured reports whether the hosted email API path is usable.
func (c Config) ResendConfigured() bool {
	return c.ResendAPIKey != "" && c.ContactEmailTo != ""
}

// defaultSpamTerms is the stock vocabulary for the spam heuristic. It can be
// replaced wholesale through CONTACT_SPAM_TERMS (comma-separated).
var defaultSpamTerms = []string{
	"viagra", "cialis", "casino", "lottery", "winner", "congratulations", "urgent", "act now",
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CONTACT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Contact API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("rate_limit.max", 3)
	v.SetDefault("rate_limit.window", "60s")
	v.SetDefault("max_body_bytes", 10000)

	window, err := time.ParseDuration(v.GetString("rate_limit.window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		SMTPHost:        v.GetString("smtp.host"),
		SMTPPort:        v.GetInt("smtp.port"),
		SMTPUsername:    v.GetString("smtp.user"),
		SMTPPassword:    v.GetString("smtp.pass"),
		SMTPFromEmail:   v.GetString("smtp.from_email"),
		SMTPFromName:    v.GetString("smtp.from_name"),
		ResendAPIKey:    v.GetString("resend_api_key"),
		ContactEmailTo:  v.GetString("email_to"),
		RateLimitMax:    v.GetInt("rate_limit.max"),
		RateLimitWindow: window,
		RedisURL:        v.GetString("redis.url"),
		SpamTerms:       splitTerms(v.GetString("spam_terms")),
		MaxBodyBytes:    v.GetInt("max_body_bytes"),
	}

	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 3
	}

	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 10000
	}

	if len(cfg.SpamTerms) == 0 {
		cfg.SpamTerms = defaultSpamTerms
	}

	return cfg, nil
}

func splitTerms(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}

	parts := strings.Split(input, ",")
	terms := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			terms = append(terms, trimmed)
		}
	}
	return terms
}
