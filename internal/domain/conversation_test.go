package domain

import (
	"fmt"
	"testing"
)

func TestBoundHistory(t *testing.T) {
	t.Parallel()

	turns := func(n int) []ConversationTurn {
		out := make([]ConversationTurn, n)
		for i := range out {
			out[i] = ConversationTurn{Role: RoleUser, Content: fmt.Sprintf("turn %d", i)}
		}
		return out
	}

	tests := []struct {
		name      string
		in        []ConversationTurn
		wantLen   int
		wantFirst string
	}{
		{"empty", nil, 0, ""},
		{"under the window", turns(4), 4, "turn 0"},
		{"exactly the window", turns(HistoryWindow), HistoryWindow, "turn 0"},
		{"over the window keeps the tail", turns(10), HistoryWindow, "turn 4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BoundHistory(tt.in)
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].Content != tt.wantFirst {
				t.Errorf("first turn = %q, want %q", got[0].Content, tt.wantFirst)
			}
		})
	}
}

func TestOutcomeType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		outcome *Outcome
		want    string
	}{
		{"chat", ChatOutcome("hello"), "chat"},
		{"error", ErrorOutcome("bad", ""), "error"},
		{"result uses its shape", &Outcome{Kind: OutcomeResult, Shape: ShapeChart}, "chart"},
		{"single value result", &Outcome{Kind: OutcomeResult, Shape: ShapeSingleValue}, "single_value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.Type(); got != tt.want {
				t.Errorf("Type() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutcomeAuditStatus(t *testing.T) {
	t.Parallel()

	if got := ChatOutcome("hi").AuditStatus(); got != "chat" {
		t.Errorf("chat status = %q", got)
	}
	if got := ErrorOutcome("bad", "").AuditStatus(); got != "error" {
		t.Errorf("error status = %q", got)
	}
	if got := (&Outcome{Kind: OutcomeResult}).AuditStatus(); got != "success" {
		t.Errorf("result status = %q", got)
	}
}
