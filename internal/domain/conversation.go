package domain

// Turn roles as rendered into prompts and stored in history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one message in a session's conversation history.
// Immutable once appended.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryWindow is the maximum number of turns (3 question/answer pairs)
// passed into prompt construction.
const HistoryWindow = 6

// BoundHistory returns the most recent HistoryWindow turns.
func BoundHistory(history []ConversationTurn) []ConversationTurn {
	if len(history) <= HistoryWindow {
		return history
	}
	return history[len(history)-HistoryWindow:]
}
