// Package nlsql turns natural-language questions about an uploaded dataset
// into safe, read-only SQL and executes them with a single self-healing
// retry, streaming stage progress to the caller.
package nlsql

import "strings"

// greetingOpeners are tokens that mark a short message as a greeting,
// farewell, or thanks when they open it.
var greetingOpeners = []string{
	"hi", "hey", "hello", "bye", "goodbye", "thanks", "thank",
}

// chitchatPhrases definitely aren't data queries, wherever they appear.
var chitchatPhrases = []string{
	"who are you", "what are you", "your name", "what is your name",
	"how are you", "hello", "hi", "hey", "good morning", "good evening",
	"thank you", "thanks", "bye", "goodbye", "help me", "what can you do",
	"tell me about yourself", "introduce yourself", "what do you do",
	"are you ai", "are you a bot", "are you human", "who made you",
	"who created you", "what's up", "how's it going", "nice to meet",
	"tell me a joke", "sing a song",
}

// offTopicPhrases mark questions unrelated to both the assistant and the
// dataset. Every entry is multi-word so a phrase can never collide with a
// single column name.
var offTopicPhrases = []string{
	"recipe for", "how do i cook", "who is the president", "write a poem",
	"write an essay", "write a story", "tell me a story", "capital of",
	"meaning of life", "weather like today", "the weather today",
	"sports scores", "play a game", "movie recommendation",
}

// dataIntentPhrases indicate the user wants to retrieve or aggregate data:
// aggregation verbs, filter/sort vocabulary, and time/category grouping.
var dataIntentPhrases = []string{
	"show", "total", "average", "count", "sum", "max", "min", "how many",
	"how much", "list", "top", "bottom", "group by", "by month", "by year",
	"by week", "by quarter", "by region", "by category", "by department",
	"filter", "where", "between", "greater than", "less than", "sort",
	"order by", "highest", "lowest", "most", "least", "trend", "compare",
	"what is the", "which", "find", "per month", "over time",
}

// tableContextWords are generic business/column vocabulary suggesting the
// question is about a dataset even without an aggregation verb.
var tableContextWords = []string{
	"revenue", "sales", "profit", "salary", "price", "amount", "quantity",
	"customer", "product", "order", "orders", "employee", "department",
	"region", "category", "cost", "units", "invoice", "transaction",
	"month", "year", "date", "rows", "column", "table", "dataset", "data",
}

// containsPhrase reports whether phrase occurs in text on word boundaries.
// Both arguments must already be lower-cased.
func containsPhrase(text, phrase string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], phrase)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(phrase)
		if boundaryBefore(text, idx) && boundaryAfter(text, end) {
			return true
		}
		start = idx + 1
	}
}

func boundaryBefore(text string, idx int) bool {
	return idx == 0 || !isWordByte(text[idx-1])
}

func boundaryAfter(text string, end int) bool {
	return end >= len(text) || !isWordByte(text[end])
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// countPhrases counts how many distinct phrases occur in text.
func countPhrases(text string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if containsPhrase(text, p) {
			n++
		}
	}
	return n
}

func anyPhrase(text string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(text, p) {
			return true
		}
	}
	return false
}
