package session

import (
	"sync"
	"testing"

	"github.com/official-eswaran/DataWhisper/internal/domain"
)

func TestRegistryIsolatesSessions(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Append("a", domain.ConversationTurn{Role: domain.RoleUser, Content: "question a"})
	r.Append("b", domain.ConversationTurn{Role: domain.RoleUser, Content: "question b"})

	if got := r.Get("a"); len(got) != 1 || got[0].Content != "question a" {
		t.Errorf("session a history = %v", got)
	}
	if got := r.Get("b"); len(got) != 1 || got[0].Content != "question b" {
		t.Errorf("session b history = %v", got)
	}
	if got := r.Get("c"); len(got) != 0 {
		t.Errorf("unknown session history = %v", got)
	}
}

func TestRegistryGetReturnsCopy(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Append("a", domain.ConversationTurn{Role: domain.RoleUser, Content: "original"})

	got := r.Get("a")
	got[0].Content = "mutated"

	if again := r.Get("a"); again[0].Content != "original" {
		t.Errorf("stored history was mutated through the returned slice")
	}
}

func TestAcquireSerializesTurns(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	var (
		active   int
		maxSeen  int
		activeMu sync.Mutex
		wg       sync.WaitGroup
	)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := r.Acquire("shared")
			defer release()

			activeMu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			activeMu.Unlock()

			r.Append("shared",
				domain.ConversationTurn{Role: domain.RoleUser, Content: "q"},
				domain.ConversationTurn{Role: domain.RoleAssistant, Content: "a"},
			)

			activeMu.Lock()
			active--
			activeMu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("saw %d concurrent turn holders for one session, want 1", maxSeen)
	}
	if got := len(r.Get("shared")); got != 32 {
		t.Errorf("history length = %d, want 32", got)
	}
}

func TestAcquireDistinctSessionsDoNotBlock(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	releaseA := r.Acquire("a")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		release := r.Acquire("b")
		release()
		close(done)
	}()
	<-done
}
