// baklava-server exposes the calendar proxy REST API and the chat
// endpoint over HTTP.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/arman-dogru/baklava-bot/internal/assistant"
	"github.com/arman-dogru/baklava-bot/internal/config"
	"github.com/arman-dogru/baklava-bot/internal/integrations/calendar"
	"github.com/arman-dogru/baklava-bot/internal/integrations/websearch"
	"github.com/arman-dogru/baklava-bot/internal/llm"
	"github.com/arman-dogru/baklava-bot/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, using environment variables")
	} else {
		log.Println("[config] Loaded .env file")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Gemini.APIKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable required")
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":3001"
	}

	cal, err := calendar.NewClient(calendar.Config{
		CredentialsFile: cfg.Calendar.CredentialsFile,
		CalendarID:      cfg.Calendar.CalendarID,
		Location:        cfg.Location(),
	})
	if err != nil {
		log.Fatalf("Failed to create calendar client: %v", err)
	}

	gemini := llm.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model)
	search := websearch.NewClient(cfg.Search.SearchURL, cfg.Search.FetchURL)

	asst := assistant.New(gemini, cal, search, assistant.Config{
		Persona:     cfg.Persona,
		TaskTimeout: cfg.TaskTimeout(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cal, asst)
	if err := srv.Run(ctx, addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
