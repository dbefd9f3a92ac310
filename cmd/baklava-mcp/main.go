// baklava-mcp exposes the assistant's calendar operations and a chat tool
// over stdio MCP, so other agent hosts can drive the same calendar.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/arman-dogru/baklava-bot/internal/assistant"
	"github.com/arman-dogru/baklava-bot/internal/config"
	"github.com/arman-dogru/baklava-bot/internal/integrations/calendar"
	"github.com/arman-dogru/baklava-bot/internal/integrations/websearch"
	"github.com/arman-dogru/baklava-bot/internal/llm"
)

type deps struct {
	calendar  *calendar.Client
	assistant *assistant.Assistant

	mu      sync.Mutex
	session *assistant.Session
}

// chatSession lazily creates the single conversation session used by the
// chat tool; MCP hosts drive one conversation per server process
func (d *deps) chatSession() *assistant.Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil {
		d.session = d.assistant.NewSession()
	}
	return d.session
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	cal, err := calendar.NewClient(calendar.Config{
		CredentialsFile: cfg.Calendar.CredentialsFile,
		CalendarID:      cfg.Calendar.CalendarID,
		Location:        cfg.Location(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create calendar client: %v\n", err)
		os.Exit(1)
	}

	gemini := llm.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model)
	search := websearch.NewClient(cfg.Search.SearchURL, cfg.Search.FetchURL)

	d := &deps{
		calendar: cal,
		assistant: assistant.New(gemini, cal, search, assistant.Config{
			Persona:     cfg.Persona,
			TaskTimeout: cfg.TaskTimeout(),
		}),
	}

	s := server.NewMCPServer(
		"baklava-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.AddTool(listEventsTool(), d.handleListEvents)
	s.AddTool(getEventTool(), d.handleGetEvent)
	s.AddTool(createEventTool(), d.handleCreateEvent)
	s.AddTool(updateEventTool(), d.handleUpdateEvent)
	s.AddTool(deleteEventTool(), d.handleDeleteEvent)
	s.AddTool(chatTool(), d.handleChat)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func listEventsTool() mcp.Tool {
	return mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List upcoming calendar events, soonest first."),
	)
}

func (d *deps) handleListEvents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	events, err := d.calendar.ListEvents(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list events: %v", err)), nil
	}
	data, _ := json.MarshalIndent(events, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func getEventTool() mcp.Tool {
	return mcp.NewTool("calendar_get_event",
		mcp.WithDescription("Fetch the full details of one calendar event."),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("The event's calendar ID"),
		),
	)
}

func (d *deps) handleGetEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	eventID, _ := args["event_id"].(string)
	if eventID == "" {
		return mcp.NewToolResultError("event_id is required"), nil
	}

	evt, err := d.calendar.GetEvent(ctx, eventID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch event: %v", err)), nil
	}
	return mcp.NewToolResultText(evt.ToJSON()), nil
}

func createEventTool() mcp.Tool {
	return mcp.NewTool("calendar_create_event",
		mcp.WithDescription("Create a one-hour calendar event."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Event date, YYYY-MM-DD"),
		),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description("Event start time, 24-hour HH:mm"),
		),
	)
}

func (d *deps) handleCreateEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	title, _ := args["title"].(string)
	date, _ := args["date"].(string)
	hhmm, _ := args["time"].(string)
	if title == "" || date == "" {
		return mcp.NewToolResultError("title and date are required"), nil
	}

	evt, err := d.calendar.CreateEvent(ctx, title, date, hhmm)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create event: %v", err)), nil
	}
	return mcp.NewToolResultText(evt.ToJSON()), nil
}

func updateEventTool() mcp.Tool {
	return mcp.NewTool("calendar_update_event",
		mcp.WithDescription("Replace an event's title and start, keeping the one-hour duration."),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("The event's calendar ID"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("New event title"),
		),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("New event date, YYYY-MM-DD"),
		),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description("New start time, 24-hour HH:mm"),
		),
	)
}

func (d *deps) handleUpdateEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	eventID, _ := args["event_id"].(string)
	title, _ := args["title"].(string)
	date, _ := args["date"].(string)
	hhmm, _ := args["time"].(string)
	if eventID == "" {
		return mcp.NewToolResultError("event_id is required"), nil
	}

	evt, err := d.calendar.UpdateEvent(ctx, eventID, title, date, hhmm)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update event: %v", err)), nil
	}
	return mcp.NewToolResultText(evt.ToJSON()), nil
}

func deleteEventTool() mcp.Tool {
	return mcp.NewTool("calendar_delete_event",
		mcp.WithDescription("Delete a calendar event by ID."),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("The event's calendar ID"),
		),
	)
}

func (d *deps) handleDeleteEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	eventID, _ := args["event_id"].(string)
	if eventID == "" {
		return mcp.NewToolResultError("event_id is required"), nil
	}

	if err := d.calendar.DeleteEvent(ctx, eventID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete event: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted event %s", eventID)), nil
}

func chatTool() mcp.Tool {
	return mcp.NewTool("chat",
		mcp.WithDescription("Send a natural-language message to the calendar assistant and get its reply. The assistant can create, update, delete and look up events, and search the web."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The message to send"),
		),
	)
}

func (d *deps) handleChat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	message, _ := args["message"].(string)
	if message == "" {
		return mcp.NewToolResultError("message is required"), nil
	}

	reply := d.assistant.HandleTurn(ctx, d.chatSession(), message)
	return mcp.NewToolResultText(reply), nil
}
