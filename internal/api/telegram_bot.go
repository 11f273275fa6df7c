// Package api provides handlers for external APIs and interfaces
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/abelzeko/morocco-water/internal/usecases"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const queryTimeout = 30 * time.Second

const helpText = "Available commands:\n" +
	"/start - Start the bot\n" +
	"/summary - Show the national water situation\n" +
	"/regions - Show the high priority basins\n" +
	"/basin [name] - Show information for a specific basin\n" +
	"/metrics - List the national indicators\n" +
	"/metric [name] - Show a specific national indicator\n" +
	"/investments - Show government water investments\n" +
	"/trends - Show per-capita water availability over time\n" +
	"/help - Show this help message"

// TelegramBot handles interactions with the Telegram API
type TelegramBot struct {
	bot     *tgbotapi.BotAPI
	useCase *usecases.WaterUseCase
}

// NewTelegramBot creates a new Telegram bot handler
func NewTelegramBot(botToken string, useCase *usecases.WaterUseCase) (*TelegramBot, error) {
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
		HandleCommand(t.useCase, update.Message.Command(), update.Message.CommandArguments(), &msg)
	} else {
		t.handleNonCommand(update.Message, &msg)
	}

	log.Printf("Sending response to user %s", update.Message.From.UserName)
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// HandleCommand fills msg with the reply to a bot command
func HandleCommand(uc *usecases.WaterUseCase, command, args string, msg *tgbotapi.MessageConfig) {
	log.Printf("Handling /%s command with args '%s'", command, args)

	switch command {
	case "start":
		msg.Text = "Welcome to the Morocco Water bot! Use /summary for the national picture or /help for more information."

	case "help":
		msg.Text = helpText

	case "summary":
		text, err := uc.FormatSummaryHTML()
		if err != nil {
			msg.Text = "Error building the summary. Please try again later."
			log.Printf("Error building summary: %v", err)
			return
		}
		msg.Text = text
		msg.ParseMode = tgbotapi.ModeHTML

	case "regions":
		msg.Text = "High priority basins for AWG:\n\n<pre>" + uc.FormatHighPriorityTable() + "</pre>"
		msg.ParseMode = tgbotapi.ModeHTML

	case "basin":
		if args == "" {
			msg.Text = "Please specify a basin name. Example: /basin Oum_Errabia"
			return
		}
		msg.Text = uc.FormatBasin(args)

	case "metrics":
		msg.Text = "Available indicators:\n\n• " + strings.Join(uc.MetricNames(), "\n• ") +
			"\n\nUse /metric [name] to get detailed information."

	case "metric":
		if args == "" {
			msg.Text = "Please specify a metric name. Example: /metric national_dam_filling_rate_percent"
			return
		}
		text, err := uc.FormatMetric(args)
		if err != nil {
			msg.Text = fmt.Sprintf("No indicator named '%s'. Use /metrics to see the available ones.", args)
			return
		}
		msg.Text = text

	case "investments":
		msg.Text = uc.FormatInvestments()

	case "trends":
		msg.Text = uc.FormatTrends()

	default:
		log.Printf("Received unknown command /%s", command)
		msg.Text = "Unknown command. Use /help to see available commands."
	}
}

// handleNonCommand processes regular messages
func (t *TelegramBot) handleNonCommand(message *tgbotapi.Message, msg *tgbotapi.MessageConfig) {
	log.Printf("Received non-command message from user %s: %s", message.From.UserName, message.Text)

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	reply, err := t.useCase.HandleNaturalLanguageQuery(ctx, message.Text)
	if errors.Is(err, usecases.ErrNoInterpreter) {
		msg.Text = "I don't understand. Use /help to see available commands."
		return
	}
	if err != nil {
		log.Printf("Error handling natural language query: %v", err)
		msg.Text = "Sorry, something went wrong. Use /help to see available commands."
		return
	}
	msg.Text = reply
}
