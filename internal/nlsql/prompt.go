package nlsql

import (
	"fmt"
	"strings"

	"github.com/official-eswaran/DataWhisper/internal/domain"
)

// BuildPrompt composes the SQL-generation prompt from the question, the
// schema description, and a bounded slice of conversation history.
// Deterministic given its inputs.
func BuildPrompt(question, schema string, history []domain.ConversationTurn) string {
	var historyContext string
	if recent := domain.BoundHistory(history); len(recent) > 0 {
		var b strings.Builder
		b.WriteString("\n## Previous Conversation:\n")
		for _, turn := range recent {
			role := "User"
			if turn.Role == domain.RoleAssistant {
				role = "SQL"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, turn.Content)
		}
		historyContext = b.String()
	}

	return fmt.Sprintf(`You are a SQL expert assistant. Convert the user's natural language
question into a valid SQL query.

## Rules:
1. Return ONLY the SQL query, nothing else
2. Use SQLite SQL syntax
3. Never use DELETE, UPDATE, INSERT, DROP, ALTER, or CREATE statements
4. Only use SELECT statements
5. Use the exact table and column names from the schema
6. For aggregations, always include meaningful aliases
7. If the question is a follow-up, use the conversation history for context

## Database Schema:
%s
%s
## User Question:
%s

## SQL Query:`, schema, historyContext, question)
}

// BuildRepairPrompt composes the single self-healing prompt, embedding the
// failed query, the engine's error message, and the schema description.
func BuildRepairPrompt(failedSQL, engineError, schema string) string {
	return fmt.Sprintf("The following SQL failed:\n%s\n\nError: %s\n\nSchema:\n%s\n\nFix the SQL query. Return ONLY the corrected SQL.",
		failedSQL, engineError, schema)
}
