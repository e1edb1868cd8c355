package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/aquiferwatch/groundwater-insight/internal/api"
	"github.com/aquiferwatch/groundwater-insight/internal/config"
	"github.com/aquiferwatch/groundwater-insight/internal/insights"
	"github.com/aquiferwatch/groundwater-insight/internal/repository"
	"github.com/aquiferwatch/groundwater-insight/internal/usecases"
)

func main() {
	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting Groundwater Insight API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize repository
	repo, err := repository.NewSQLiteGroundwaterRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}
	defer repo.Close()

	// The server reads what the ingest worker stored; it still needs the
	// source for the use case wiring but never refreshes on its own.
	source, err := cfg.DataSource()
	if err != nil {
		log.Fatalf("Failed to initialize data source: %v", err)
	}

	interpreter := insights.NewRuleInterpreter(cfg.BucketThresholdM)
	useCase := usecases.NewStationUseCase(repo, source, interpreter, usecases.AnalyticsConfig{
		Trend:    cfg.Trend,
		Seasonal: cfg.Seasonal,
		Risk:     cfg.Risk,
	})

	app := fiber.New(fiber.Config{
		AppName:               "groundwater-insight",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "groundwater-insight",
		})
	})

	// API routes.
	api.RegisterRoutes(app, useCase)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("API server listening on port %s", cfg.Port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
