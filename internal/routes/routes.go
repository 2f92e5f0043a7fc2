package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/payments-engine/internal/batch"
	"github.com/congo-pay/payments-engine/internal/config"
	"github.com/congo-pay/payments-engine/internal/middleware"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps aggregates shared dependencies required to wire routes. DB and Cache
// are optional.
type Deps struct {
	Cfg    config.Config
	DB     Pinger
	Cache  *redis.Client
	Runner *batch.Runner
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Runner == nil {
		return fmt.Errorf("routes: runner is required")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, middleware.IdempotencyConfig{
			TTL:    d.Cfg.IdempotencyTTL,
			Logger: d.Logger,
		}))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
	runs := api.Group("")
	if d.Cache != nil && d.Cfg.RunRateLimit > 0 {
		runs.Use(middleware.RunRateLimit(d.Cache, d.Cfg.RunRateLimit))
	}
	RegisterRunRoutes(runs, batch.NewHandler(d.Runner))

	return nil
}
