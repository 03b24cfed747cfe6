package memo

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rcliao/memoya/internal/kv"
	"github.com/rcliao/memoya/internal/model"
)

var aug2025 = time.Date(2025, time.August, 20, 9, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*Repo, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	return NewRepo(mem, log.New(io.Discard), func() time.Time { return aug2025 }), mem
}

func newTestExecutor(t *testing.T) (*Executor, *Repo) {
	t.Helper()
	repo, _ := newTestRepo(t)
	return NewExecutor(repo, time.UTC, log.New(io.Discard)), repo
}

func seedMemo(t *testing.T, r *Repo, room, id, at, content string) model.Memo {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, at)
	if err != nil {
		t.Fatal(err)
	}
	m, err := r.Add(context.Background(), room, model.Memo{ID: id, Content: content, Timestamp: ts})
	if err != nil {
		t.Fatalf("add %s: %v", id, err)
	}
	return m
}
