package store

import (
	"context"
	"strings"
	"testing"

	"github.com/rcliao/memoya/internal/model"
)

func TestContextBasic(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	mustAppend(t, s, "u1", "2025-02-01T09:00:00Z", "hello")
	s.Append(ctx, model.Message{ID: "r1", Text: "hi there", Type: model.TypeAI, Timestamp: ts(t, "2025-02-01T09:00:01Z")})
	s.Append(ctx, model.Message{ID: "memo", Text: "a memo", Type: model.TypeMemo, Timestamp: ts(t, "2025-02-01T09:00:02Z")})
	mustAppend(t, s, "u2", "2025-02-01T09:00:03Z", "how are you")

	result, err := s.Context(ctx, ContextParams{})
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	if !equalIDs(result.Messages, "u1", "r1", "u2") {
		t.Errorf("expected [u1 r1 u2], got %v", ids(result.Messages))
	}
	if result.Budget != 8000 {
		t.Errorf("expected default budget 8000, got %d", result.Budget)
	}
}

func TestContextTurnLimit(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	mustAppend(t, s, "u1", "2025-02-01T09:00:00Z", "one")
	mustAppend(t, s, "u2", "2025-02-02T09:00:00Z", "two")
	mustAppend(t, s, "u3", "2025-02-03T09:00:00Z", "three")

	result, _ := s.Context(ctx, ContextParams{Limit: 2})
	if !equalIDs(result.Messages, "u2", "u3") {
		t.Errorf("expected most recent two turns, got %v", ids(result.Messages))
	}
}

func TestContextBudgetLimit(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	mustAppend(t, s, "big", "2025-02-01T09:00:00Z", strings.Repeat("x", 500))
	mustAppend(t, s, "small", "2025-02-02T09:00:00Z", "short")

	result, _ := s.Context(ctx, ContextParams{Budget: 100})
	if !equalIDs(result.Messages, "small") {
		t.Errorf("expected only the recent short turn, got %v", ids(result.Messages))
	}
	if result.Used != len("short") {
		t.Errorf("expected used %d, got %d", len("short"), result.Used)
	}
}

func TestContextBudgetCountsCharacters(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	korean := strings.Repeat("안", 40) // 40 characters, 120 bytes
	mustAppend(t, s, "ko", "2025-02-01T09:00:00Z", korean)

	result, _ := s.Context(ctx, ContextParams{Budget: 50})
	if !equalIDs(result.Messages, "ko") {
		t.Fatalf("expected the 40-character turn to fit a budget of 50, got %v", ids(result.Messages))
	}
	if result.Used != 40 {
		t.Errorf("expected used 40, got %d", result.Used)
	}
}

func TestContextSkipsDeleted(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	mustAppend(t, s, "u1", "2025-02-01T09:00:00Z", "keep")
	mustAppend(t, s, "u2", "2025-02-02T09:00:00Z", "drop")
	s.SoftDelete(ctx, "u2")

	result, _ := s.Context(ctx, ContextParams{})
	if !equalIDs(result.Messages, "u1") {
		t.Errorf("expected [u1], got %v", ids(result.Messages))
	}
}
