package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wilkieco/contact-api/internal/config"
	"github.com/wilkieco/contact-api/internal/handler"
	"github.com/wilkieco/contact-api/internal/middleware"
	"github.com/wilkieco/contact-api/internal/ratelimit"
	"github.com/wilkieco/contact-api/internal/router"
	"github.com/wilkieco/contact-api/internal/security"
	"github.com/wilkieco/contact-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	limiter, stopLimiter, err := buildLimiter(cfg)
	if err != nil {
		log.Fatalf("failed to build rate limiter: %v", err)
	}
	defer stopLimiter()

	delivery := service.ResolveDelivery(cfg, logger)
	deliveryMode := "none"
	if delivery != nil {
		deliveryMode = delivery.Mode()
	}
	logger.Info().Str("delivery", deliveryMode).Msg("delivery path resolved")
	if delivery == nil {
		logger.Warn().Msg("no delivery path configured; submissions will be rejected")
	}

	detector := security.NewDetector(cfg.SpamTerms)
	contactService := service.NewContactService(limiter, service.NewValidator(), detector, delivery, logger)
	contactHandler := handler.NewContactHandler(contactService, cfg.MaxBodyBytes, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    cfg.MaxBodyBytes * 2,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ContactHandler: contactHandler,
		DeliveryMode:   deliveryMode,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

// buildLimiter returns the in-process limiter, or a Redis-backed one when a
// shared store is configured so horizontally scaled instances agree.
func buildLimiter(cfg config.Config) (ratelimit.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		ml := ratelimit.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
		return ml, ml.Stop, nil
	}

	options, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}

	client := redis.NewClient(options)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	rl := ratelimit.NewRedisLimiter(client, cfg.RateLimitMax, cfg.RateLimitWindow)
	return rl, func() { _ = client.Close() }, nil
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
