package nlsql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/official-eswaran/DataWhisper/internal/domain"
	"github.com/official-eswaran/DataWhisper/internal/llm"
)

// Classifier triages questions into data queries, chitchat, and off-topic.
// Rules decide the overwhelming majority of inputs; the model gateway is
// only consulted when every rule is inconclusive.
type Classifier struct {
	gateway llm.Client
	logger  *slog.Logger
}

// NewClassifier creates an intent classifier backed by the given gateway.
func NewClassifier(gateway llm.Client, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{gateway: gateway, logger: logger}
}

// Classify applies the rule bank in priority order and falls back to a
// single model call when rules are inconclusive. It never fails: gateway
// errors degrade to the data-query default so the user sees a concrete
// downstream error instead of a silent refusal.
func (c *Classifier) Classify(ctx context.Context, question string) domain.Intent {
	q := strings.ToLower(strings.TrimSpace(question))

	// Short greetings: at most 3 words opening with a greeting token.
	words := strings.Fields(q)
	if len(words) > 0 && len(words) <= 3 {
		first := strings.Trim(words[0], ".,!?")
		for _, opener := range greetingOpeners {
			if first == opener {
				return domain.IntentChitchat
			}
		}
	}

	if anyPhrase(q, chitchatPhrases) {
		return domain.IntentChitchat
	}

	// Score data intent before the off-topic scan so a legitimate data
	// question containing a generic noun cannot be misrouted.
	dataScore := countPhrases(q, dataIntentPhrases)
	tableScore := countPhrases(q, tableContextWords)
	if dataScore >= 2 || (dataScore >= 1 && tableScore >= 1) {
		return domain.IntentDataQuery
	}

	if anyPhrase(q, offTopicPhrases) {
		return domain.IntentOffTopic
	}

	if dataScore >= 1 || tableScore >= 1 {
		return domain.IntentDataQuery
	}

	return c.classifyWithModel(ctx, question)
}

const classifyInstructions = `Classify this user message as exactly one of: data_query, chitchat, off_topic.

- "data_query": the user wants to retrieve, analyze, or explore data from their dataset (e.g. "show total sales", "how many employees?", "revenue by month")
- "chitchat": a casual conversation, greeting, thanks, or a question about the assistant itself (e.g. "hi", "what is your name?")
- "off_topic": unrelated to both the dataset and the assistant (e.g. "write a poem", "who is the president")

User message: %q

Reply with ONLY one label: data_query, chitchat, or off_topic`

func (c *Classifier) classifyWithModel(ctx context.Context, question string) domain.Intent {
	response, err := c.gateway.Generate(ctx, fmt.Sprintf(classifyInstructions, question))
	if err != nil {
		c.logger.Warn("intent fallback degraded to data_query", "error", err)
		return domain.IntentDataQuery
	}
	return parseIntentLabel(response)
}

// parseIntentLabel picks the first recognized label token in the response.
// An unrecognized response defaults to data_query.
func parseIntentLabel(response string) domain.Intent {
	r := strings.ToLower(response)
	best := domain.IntentDataQuery
	bestIdx := -1
	for label, intent := range map[string]domain.Intent{
		"data_query": domain.IntentDataQuery,
		"chitchat":   domain.IntentChitchat,
		"off_topic":  domain.IntentOffTopic,
	} {
		if idx := strings.Index(r, label); idx >= 0 && (bestIdx < 0 || idx < bestIdx) {
			best, bestIdx = intent, idx
		}
	}
	return best
}
