package assistant

import (
	"context"
	"fmt"

	"github.com/arman-dogru/baklava-bot/internal/intent"
	"github.com/arman-dogru/baklava-bot/internal/types"
)

// fallbackApology is the only user-visible trace of a synthesis failure.
// Raw errors never reach the user.
const fallbackApology = "I'm sorry, but I encountered an error handling your request. Please try again."

// synthesize issues the second model call of a turn: persona plus the full
// conversation, with the execution log attached as a system note. The log
// is a prompt fragment, not structured data; the model picks out whatever
// it needs.
func (a *Assistant) synthesize(ctx context.Context, history []types.ChatMessage, newMessage, taskLog string) (string, error) {
	prompt := fmt.Sprintf(`%s

%s
System note: The following tasks were performed, if you need to use this information to help you craft your response, here are the results:
%s
Now craft your final answer to the user. Remember to only reply in plain text (no formatting).
`, a.persona, intent.FormatConversation(history, newMessage), taskLog)

	return a.llm.Generate(ctx, prompt)
}
