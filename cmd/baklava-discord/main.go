// baklava-discord runs the assistant as a Discord bot. Each channel gets
// its own conversation session.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/arman-dogru/baklava-bot/internal/assistant"
	"github.com/arman-dogru/baklava-bot/internal/config"
	"github.com/arman-dogru/baklava-bot/internal/frontend"
	"github.com/arman-dogru/baklava-bot/internal/integrations/calendar"
	"github.com/arman-dogru/baklava-bot/internal/integrations/websearch"
	"github.com/arman-dogru/baklava-bot/internal/llm"
	"github.com/arman-dogru/baklava-bot/internal/store"
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

	discordToken := os.Getenv("DISCORD_TOKEN")
	if discordToken == "" {
		log.Fatal("DISCORD_TOKEN environment variable required")
	}
	discordChannel := os.Getenv("DISCORD_CHANNEL_ID")

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

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to open transcript store: %v", err)
	}
	defer st.Close()

	bot, err := frontend.NewDiscord(frontend.DiscordConfig{
		Token:     discordToken,
		ChannelID: discordChannel,
	}, asst, st)
	if err != nil {
		log.Fatalf("Failed to create Discord front-end: %v", err)
	}

	if err := bot.Start(); err != nil {
		log.Fatalf("Failed to start Discord front-end: %v", err)
	}
	defer bot.Stop()

	log.Println("[main] Connected. Press Ctrl+C to stop.")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("[main] Shutting down")
}
