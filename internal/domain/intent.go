// Package domain contains core domain types for the DataWhisper application.
package domain

// Intent is the triage verdict for an inbound question.
type Intent int

const (
	// IntentDataQuery routes the question through the NL-to-SQL pipeline.
	IntentDataQuery Intent = iota
	// IntentChitchat is casual conversation answered without touching the dataset.
	IntentChitchat
	// IntentOffTopic is a question unrelated to both the dataset and the assistant.
	IntentOffTopic
)

// String returns the wire label for the intent.
func (i Intent) String() string {
	switch i {
	case IntentChitchat:
		return "chitchat"
	case IntentOffTopic:
		return "off_topic"
	default:
		return "data_query"
	}
}
