package intent

import (
	"fmt"
	"strings"
	"time"

	"github.com/arman-dogru/baklava-bot/internal/memory"
	"github.com/arman-dogru/baklava-bot/internal/types"
)

// exampleOutput shows the model the exact shape we expect back
const exampleOutput = `{
  "tasks": [
    {
      "function": "createEvent",
      "parameters": {
        "title": "Meeting with John",
        "date": "2025-03-30",
        "time": "12:00"
      }
    },
    {
      "function": "getEvents",
      "parameters": {}
    },
    {
      "function": "deleteEvent",
      "parameters": {
        "eventId": "11kbb0fvbko7a43itv32c19mo0"
      }
    },
    {
      "function": "updateEvent",
      "parameters": {
        "eventId": "ao9g5vqbp1732vio7iugce6l1k",
        "title": "Updated Event Title",
        "date": "2025-03-30",
        "time": "14:00"
      }
    },
    {
      "function": "searchWeb",
      "parameters": {
        "query": "What is the name of the CEO of Google?"
      }
    },
    {
      "function": "plainAnswer",
      "parameters": {
        "text": "Sure, here's a direct response with no further action."
      }
    }
  ]
}`

// BuildPrompt assembles the classification prompt: current date and time
// for resolving relative references, the enumerated event memory, the
// conversation so far, and the required output shape.
func BuildPrompt(now time.Time, known []memory.KnownEvent, history []types.ChatMessage, newMessage string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an intent classification system.\n")
	fmt.Fprintf(&b, "Today's date is %s, and the current local time is %s.\n",
		now.Format("2006-01-02"), now.Format("15:04"))
	b.WriteString("Any relative date/time references in the user prompt must be converted to valid ISO.\n\n")

	b.WriteString("KNOWN EVENTS (with indexes, IDs, times, summaries):\n")
	b.WriteString("Here is the list of known events. The user may refer to them by index, time, date, or summary:\n")
	for _, evt := range known {
		fmt.Fprintf(&b, "%d) [ID: %s]\n    summary: %q\n    starts at: %s\n\n",
			evt.Ordinal, evt.EventID, evt.Summary, evt.StartTime)
	}
	b.WriteString("\nCONVERSATION HISTORY:\n")
	b.WriteString(FormatConversation(history, newMessage))

	b.WriteString(`
The user may say things like:
- "Change the second event to 6pm"
- "Cancel the pistachio event"
- "Move my 5pm event to tomorrow"
In all these cases, figure out which event they are referencing by summary, date/time, or index.

# Date/Time Rules
- "tomorrow" means today+1 day.
- "noon" means "12:00" in 24-hour format.
- "2 pm" means "14:00".
- If a user says "next Tuesday," find the date that is Tuesday after the current day, etc.
- Output the final date in YYYY-MM-DD format, and time in HH:mm (24-hour) format.
- If the user does not specify a date or time, use the current date or time.

Available intents are: createEvent, deleteEvent, updateEvent, getEvents, getEventDetails, searchWeb, plainAnswer.

EXAMPLE OUTPUT:
`)
	b.WriteString(exampleOutput)
	b.WriteString(`

You will read the user prompt, then output a valid JSON object containing a key 'tasks' (an array of objects).
Each object must have 'function' and 'parameters' fields.
Do not include triple backticks or any extra text besides the JSON.
Return only valid JSON. Nothing else.

User prompt:
`)
	b.WriteString(newMessage)
	b.WriteString("\n\nPlease output your JSON now:")

	return b.String()
}

// FormatConversation renders the transcript plus the new user message the
// way both prompts expect it: one "sender: text" line per message.
func FormatConversation(history []types.ChatMessage, newMessage string) string {
	var b strings.Builder
	for _, msg := range history {
		fmt.Fprintf(&b, "%s: %s\n", msg.Sender, msg.Text)
	}
	fmt.Fprintf(&b, "user: %s\n", newMessage)
	return b.String()
}
