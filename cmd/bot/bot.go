package main

import (
	"log"
	"os"

	"github.com/abelzeko/morocco-water/internal/api"
	"github.com/abelzeko/morocco-water/internal/dataset"
	"github.com/abelzeko/morocco-water/internal/integration/openai"
	"github.com/abelzeko/morocco-water/internal/usecases"
	"github.com/joho/godotenv"
)

func main() {
	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting Morocco Water bot...")

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Free-text questions need OpenAI; commands work without it
	openAIService, err := openai.NewOpenAIService(os.Getenv("OPENAI_API_KEY"))
	if err != nil {
		log.Printf("Free-text queries disabled: %v", err)
	}

	ds := dataset.Build()
	if err := ds.Validate(); err != nil {
		log.Fatalf("Dataset is inconsistent: %v", err)
	}

	useCase := usecases.NewWaterUseCase(ds, nil, openAIService)

	// Get the bot token from environment variable
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if botToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	// Initialize Telegram bot
	telegramBot, err := api.NewTelegramBot(botToken, useCase)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram bot: %v", err)
	}

	// Start the bot
	telegramBot.Start()
}
