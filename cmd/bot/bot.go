package main

import (
	"log"
	"os"

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
	log.Println("Starting Groundwater Insight bot...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.BotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	// Initialize repository
	repo, err := repository.NewSQLiteGroundwaterRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}
	defer repo.Close()

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

	// Initialize Telegram bot
	telegramBot, err := api.NewTelegramBot(cfg.BotToken, useCase)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram bot: %v", err)
	}

	// Start the bot
	telegramBot.Start()
}
