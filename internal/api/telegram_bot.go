// Package api provides handlers for external APIs and interfaces
package api

import (
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aquiferwatch/groundwater-insight/internal/analytics"
	"github.com/aquiferwatch/groundwater-insight/internal/entities"
	"github.com/aquiferwatch/groundwater-insight/internal/usecases"
)

// TelegramBot handles interactions with the Telegram API
type TelegramBot struct {
	bot     *tgbotapi.BotAPI
	useCase *usecases.StationUseCase
}

// NewTelegramBot creates a new Telegram bot handler
func NewTelegramBot(botToken string, useCase *usecases.StationUseCase) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %v", err)
	}

	return &TelegramBot{
		bot:     bot,
		useCase: useCase,
	}, nil
}

// Start begins listening for and handling Telegram messages
func (t *TelegramBot) Start() {
	log.Printf("Authorized on Telegram account %s", t.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	log.Println("Bot is now listening for messages...")

	for update := range updates {
		if update.Message == nil {
			continue
		}

		// Log incoming messages
		log.Printf("Received message from %s (ID: %d): %s",
			update.Message.From.UserName,
			update.Message.From.ID,
			update.Message.Text)

		t.handleMessage(update)
	}
}

// handleMessage processes a Telegram message update
func (t *TelegramBot) handleMessage(update tgbotapi.Update) {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")

	if update.Message.IsCommand() {
		t.handleCommand(update.Message, &msg)
	} else {
		msg.Text = "I don't understand. Use /help to see available commands."
	}

	log.Printf("Sending response to user %s", update.Message.From.UserName)
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// handleCommand processes commands like /start, /help, etc.
func (t *TelegramBot) handleCommand(message *tgbotapi.Message, msg *tgbotapi.MessageConfig) {
	switch message.Command() {
	case "start":
		log.Printf("Handling /start command for user %s", message.From.UserName)
		msg.Text = "Welcome to the Groundwater Insight bot! Use /stations to list monitored wells or /help for more information."

	case "help":
		log.Printf("Handling /help command for user %s", message.From.UserName)
		msg.Text = "Available commands:\n" +
			"/start - Start the bot\n" +
			"/stations - Show the list of monitored stations\n" +
			"/station [id] - Show groundwater analytics for a station\n" +
			"/help - Show this help message"

	case "stations":
		log.Printf("Handling /stations command for user %s", message.From.UserName)
		t.handleStationsCommand(msg)

	case "station":
		args := message.CommandArguments()
		log.Printf("Handling /station command with args '%s' for user %s", args, message.From.UserName)
		t.handleStationCommand(args, msg)

	default:
		log.Printf("Received unknown command /%s from user %s", message.Command(), message.From.UserName)
		msg.Text = "Unknown command. Use /help to see available commands."
	}
}

// handleStationsCommand processes the /stations command
func (t *TelegramBot) handleStationsCommand(msg *tgbotapi.MessageConfig) {
	stations, err := t.useCase.ListStations()
	if err != nil {
		msg.Text = "Error fetching station data. Please try again later."
		log.Printf("Error fetching stations: %v", err)
		return
	}
	if len(stations) == 0 {
		msg.Text = "No stations have been ingested yet."
		return
	}

	var b strings.Builder
	b.WriteString("Monitored stations:\n\n")
	for _, s := range stations {
		b.WriteString(fmt.Sprintf("• %s — %s (%s, %s)\n", s.ID, s.Name, s.District, s.State))
	}
	b.WriteString("\nUse /station [id] to get groundwater analytics.")
	msg.Text = b.String()
}

// handleStationCommand processes the /station [id] command
func (t *TelegramBot) handleStationCommand(args string, msg *tgbotapi.MessageConfig) {
	stationID := strings.TrimSpace(args)
	if stationID == "" {
		msg.Text = "Please specify a station id. Example: /station DWLR-001"
		return
	}

	bundle, err := t.useCase.GetStationAnalytics(stationID)
	if err != nil {
		if errors.Is(err, analytics.ErrNoData) {
			msg.Text = fmt.Sprintf("No readings recorded for station '%s'. Use /stations to see the monitored wells.", stationID)
			return
		}
		msg.Text = "Error computing analytics. Please try again later."
		log.Printf("Error computing analytics for %s: %v", stationID, err)
		return
	}

	msg.Text = t.formatAnalytics(bundle)
}

// formatAnalytics renders the result bundle as a chat message. Unavailable
// signals are spelled out in words, never dropped silently.
func (t *TelegramBot) formatAnalytics(bundle *entities.StationAnalytics) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📍 %s — %s (%s, %s)\n", bundle.Station.ID, bundle.Station.Name, bundle.Station.District, bundle.Station.State))
	b.WriteString(fmt.Sprintf("📅 Reference date: %s (%d readings)\n\n", bundle.ReferenceDate.Format("2006-01-02"), bundle.DataPoints))

	if bundle.Trend != nil {
		b.WriteString(fmt.Sprintf("%s Trend: %s (%s), slope %.4f m/day\n",
			trendArrow(bundle.Trend.Classification), bundle.Trend.Classification, bundle.Trend.Strength, bundle.Trend.SlopeMPerDay))
	} else {
		b.WriteString(fmt.Sprintf("Trend unavailable: %s\n", bundle.TrendUnavailable))
	}

	if bundle.Seasonal.Available {
		b.WriteString(fmt.Sprintf("🌧 Seasonal (%s): %+.2f m vs %d-year baseline\n",
			bundle.Seasonal.SeasonLabel, bundle.Seasonal.DeviationM, bundle.Seasonal.BaselineYears))
	} else {
		b.WriteString(fmt.Sprintf("🌧 Seasonal comparison unavailable: %s\n", bundle.Seasonal.Detail))
	}

	if bundle.Risk.Available {
		b.WriteString(fmt.Sprintf("⚠️ %s (index %.1f/100)\n", bundle.Risk.Level, bundle.Risk.Index))
	}

	b.WriteString("\n" + bundle.Insight.Narrative)

	if last, err := t.useCase.GetLastComputed(bundle.Station.ID); err == nil && last != nil {
		b.WriteString(fmt.Sprintf("\n\n🕒 Last ingest computation: %s", last.CalculationDate.Format("2006-01-02")))
	}

	return b.String()
}

func trendArrow(c entities.TrendClassification) string {
	switch c {
	case entities.TrendRecharging:
		return "📈"
	case entities.TrendDepleting:
		return "📉"
	default:
		return "➡️"
	}
}
