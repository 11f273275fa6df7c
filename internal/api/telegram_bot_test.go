package api

import (
	"strings"
	"testing"

	"github.com/abelzeko/morocco-water/internal/dataset"
	"github.com/abelzeko/morocco-water/internal/usecases"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestHandleCommand(t *testing.T) {
	uc := usecases.NewWaterUseCase(dataset.Build(), nil, nil)

	tests := []struct {
		command   string
		args      string
		contains  string
		parseMode string
	}{
		{"start", "", "Welcome to the Morocco Water bot", ""},
		{"help", "", "/basin [name]", ""},
		{"summary", "", "Critical regions", tgbotapi.ModeHTML},
		{"regions", "", "El_Kensera", tgbotapi.ModeHTML},
		{"basin", "", "Please specify a basin name", ""},
		{"basin", "Oum_Errabia", "Opportunity score: 9", ""},
		{"metrics", "", "• water_stress_threshold_m3", ""},
		{"metric", "", "Please specify a metric name", ""},
		{"metric", "per_capita_water_availability_m3", "650 m3_per_capita", ""},
		{"metric", "nope", "No indicator named 'nope'", ""},
		{"investments", "", "ONEE", ""},
		{"trends", "", "1960: 2600", ""},
		{"unknown", "", "Unknown command", ""},
	}

	for _, tt := range tests {
		msg := tgbotapi.NewMessage(1, "")
		HandleCommand(uc, tt.command, tt.args, &msg)

		if !strings.Contains(msg.Text, tt.contains) {
			t.Errorf("/%s %s: expected reply to contain %q, got %q", tt.command, tt.args, tt.contains, msg.Text)
		}
		if msg.ParseMode != tt.parseMode {
			t.Errorf("/%s: expected parse mode %q, got %q", tt.command, tt.parseMode, msg.ParseMode)
		}
	}
}
