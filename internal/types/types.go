package types

// Sender identifies who produced a chat message
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatMessage is one entry in a conversation transcript.
// Messages are append-only and never mutated after creation.
type ChatMessage struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// TaskFunc names one of the actions the classifier can produce
type TaskFunc string

const (
	TaskCreateEvent     TaskFunc = "createEvent"
	TaskDeleteEvent     TaskFunc = "deleteEvent"
	TaskUpdateEvent     TaskFunc = "updateEvent"
	TaskGetEvents       TaskFunc = "getEvents"
	TaskGetEventDetails TaskFunc = "getEventDetails"
	TaskSearchWeb       TaskFunc = "searchWeb"
	TaskPlainAnswer     TaskFunc = "plainAnswer"
)

// Task is a single structured action derived from a chat message.
// Produced by the intent classifier, consumed by the task executor.
// Parameters are free-form strings: dates as YYYY-MM-DD, times as
// 24-hour HH:mm, everything else verbatim model output.
type Task struct {
	Function   TaskFunc          `json:"function"`
	Parameters map[string]string `json:"parameters"`
}

// Param returns a named parameter or "" if absent
func (t Task) Param(key string) string {
	if t.Parameters == nil {
		return ""
	}
	return t.Parameters[key]
}
