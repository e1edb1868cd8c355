package main

import (
	"context"
	"log"
	"os"

	"github.com/robfig/cron/v3"

	"github.com/aquiferwatch/groundwater-insight/internal/config"
	"github.com/aquiferwatch/groundwater-insight/internal/insights"
	"github.com/aquiferwatch/groundwater-insight/internal/repository"
	"github.com/aquiferwatch/groundwater-insight/internal/usecases"
)

func main() {
	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting Groundwater Insight ingest worker...")

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

	// Initialize the configured data source
	source, err := cfg.DataSource()
	if err != nil {
		log.Fatalf("Failed to initialize data source: %v", err)
	}
	log.Printf("Ingesting in %s mode", cfg.DataMode)

	interpreter := insights.NewRuleInterpreter(cfg.BucketThresholdM)
	useCase := usecases.NewStationUseCase(repo, source, interpreter, usecases.AnalyticsConfig{
		Trend:    cfg.Trend,
		Seasonal: cfg.Seasonal,
		Risk:     cfg.Risk,
	})

	// Run use case immediately on startup
	if err := useCase.RefreshStationData(context.Background()); err != nil {
		log.Printf("Initial data refresh failed: %v", err)
	}

	// Set up cron scheduler for recurring ingest runs
	c := cron.New()
	_, err = c.AddFunc(cfg.IngestCron, func() {
		if err := useCase.RefreshStationData(context.Background()); err != nil {
			log.Printf("Scheduled data refresh failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to set up cron job: %v", err)
	}

	log.Printf("Ingest worker has been scheduled with cron spec %q", cfg.IngestCron)
	c.Start()

	// Keep the program running
	select {}
}
