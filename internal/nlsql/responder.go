package nlsql

import (
	"context"
	"log/slog"
	"strings"

	"github.com/official-eswaran/DataWhisper/internal/llm"
)

// Responder produces conversational answers for chitchat and off-topic
// turns without touching the dataset.
type Responder struct {
	gateway llm.Client
	logger  *slog.Logger
}

// NewResponder creates a chitchat responder.
func NewResponder(gateway llm.Client, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{gateway: gateway, logger: logger}
}

const fallbackReply = "I'm DataWhisper, your private data assistant. Ask me a question about your uploaded data, like 'Show total revenue by category'."

// offTopicReply steers the conversation back to the dataset. Off-topic
// turns never reach the model.
const offTopicReply = "I can only help with questions about your uploaded data. Try something like 'What are the top 5 products by sales?' or 'Show revenue trends by month'."

// OffTopic returns the templated off-topic answer.
func (r *Responder) OffTopic() string {
	return offTopicReply
}

// Chitchat returns a friendly conversational reply. Common questions get
// canned answers; anything else goes to the model, degrading to a canned
// line when the gateway is unavailable.
func (r *Responder) Chitchat(ctx context.Context, question string) string {
	q := strings.ToLower(strings.TrimSpace(question))

	switch {
	case anyPhrase(q, []string{"your name", "who are you", "what are you"}):
		return "I'm DataWhisper, your private AI data assistant. I help you explore and analyze your uploaded data using natural language. Try asking me something about your data, like 'Show total revenue by category'!"
	case anyPhrase(q, []string{"how are you", "how's it going", "what's up"}):
		return "I'm running great and ready to analyze your data! Ask me any question about your uploaded dataset."
	case anyPhrase(q, []string{"hello", "hi", "hey", "good morning", "good evening"}):
		return "Hello! I'm DataWhisper, your data assistant. Ask me anything about your uploaded data, like 'What are the top 5 products?' or 'Show revenue trends'."
	case anyPhrase(q, []string{"thank", "thanks"}):
		return "You're welcome! Let me know if you have more questions about your data."
	case anyPhrase(q, []string{"what can you do", "help", "what do you do"}):
		return "I can help you analyze your uploaded data using plain English! Here's what I can do:\n" +
			"- Answer questions like 'What is the total revenue?'\n" +
			"- Generate charts: 'Show sales by region'\n" +
			"- Find patterns: 'Which product sold the most?'\n" +
			"- Detect anomalies in your data\n" +
			"- Export session reports\n\n" +
			"Just ask a question about your data!"
	case anyPhrase(q, []string{"bye", "goodbye"}):
		return "Goodbye! Your data stays safe and private. Come back anytime!"
	}

	reply, err := r.gateway.Generate(ctx,
		"You are DataWhisper, a friendly private AI data assistant.\n"+
			"You help users analyze their uploaded data using natural language.\n"+
			"Keep your response short (1-2 sentences) and guide the user to ask data-related questions.\n\n"+
			"User: "+question+"\nAssistant:")
	if err != nil {
		r.logger.Warn("chitchat reply degraded to canned response", "error", err)
		return fallbackReply
	}
	if reply = strings.TrimSpace(reply); reply == "" {
		return fallbackReply
	}
	return reply
}
