// Package session keeps per-session conversation history in memory.
//
// Distinct sessions share no state. Two concurrent turns for the same
// session would race on that session's history, so the registry also
// hands out a per-session exclusion lock that the serving layer holds for
// the duration of a turn.
package session

import (
	"sync"

	"github.com/official-eswaran/DataWhisper/internal/domain"
)

// HistoryStore is the conversation-history contract the pipeline depends on.
type HistoryStore interface {
	// Get returns a copy of the session's history.
	Get(sessionID string) []domain.ConversationTurn

	// Append adds turns to the session's history.
	Append(sessionID string, turns ...domain.ConversationTurn)
}

// Registry implements HistoryStore with per-session records.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*record
}

type record struct {
	turnMu  sync.Mutex // serializes whole turns, not individual accesses
	histMu  sync.Mutex
	history []domain.ConversationTurn
}

// NewRegistry creates an empty history registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*record)}
}

func (r *Registry) record(sessionID string) *record {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sessions[sessionID]
	if !ok {
		rec = &record{}
		r.sessions[sessionID] = rec
	}
	return rec
}

// Acquire takes the session's turn lock and returns the release func.
// Serializing same-session turns keeps history ordered under concurrent
// requests for the same session id.
func (r *Registry) Acquire(sessionID string) func() {
	rec := r.record(sessionID)
	rec.turnMu.Lock()
	return rec.turnMu.Unlock
}

// Get returns a copy of the session's history.
func (r *Registry) Get(sessionID string) []domain.ConversationTurn {
	rec := r.record(sessionID)
	rec.histMu.Lock()
	defer rec.histMu.Unlock()
	out := make([]domain.ConversationTurn, len(rec.history))
	copy(out, rec.history)
	return out
}

// Append adds turns to the session's history.
func (r *Registry) Append(sessionID string, turns ...domain.ConversationTurn) {
	rec := r.record(sessionID)
	rec.histMu.Lock()
	defer rec.histMu.Unlock()
	rec.history = append(rec.history, turns...)
}
