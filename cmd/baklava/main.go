// baklava is the interactive command-line chat front-end for the
// calendar assistant.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/arman-dogru/baklava-bot/internal/assistant"
	"github.com/arman-dogru/baklava-bot/internal/config"
	"github.com/arman-dogru/baklava-bot/internal/integrations/calendar"
	"github.com/arman-dogru/baklava-bot/internal/integrations/websearch"
	"github.com/arman-dogru/baklava-bot/internal/llm"
	"github.com/arman-dogru/baklava-bot/internal/store"
	"github.com/arman-dogru/baklava-bot/internal/types"
)

func main() {
	// Load .env file (optional - won't error if missing)
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

	ctx := context.Background()
	session := asst.NewSession()
	if err := st.EnsureSession(ctx, session.ID, "cli"); err != nil {
		log.Printf("Warning: failed to record session: %v", err)
	}

	fmt.Printf("%s - type a message, or /quit to exit\n", cfg.BotName)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}

		reply := asst.HandleTurn(ctx, session, line)
		fmt.Println(reply)

		if err := st.AppendMessage(ctx, session.ID, types.ChatMessage{Sender: types.SenderUser, Text: line}); err != nil {
			log.Printf("Warning: failed to persist message: %v", err)
		}
		if err := st.AppendMessage(ctx, session.ID, types.ChatMessage{Sender: types.SenderBot, Text: reply}); err != nil {
			log.Printf("Warning: failed to persist message: %v", err)
		}
	}

	fmt.Println("bye")
}
