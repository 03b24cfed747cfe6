package store

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rcliao/memoya/internal/kv"
	"github.com/rcliao/memoya/internal/model"
)

var errInjected = errors.New("injected failure")

// flakyKV wraps an in-memory substrate and fails selected operations.
type flakyKV struct {
	*kv.Memory
	failGet  bool
	failSet  bool
	failKeys bool
}

func (f *flakyKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, errInjected
	}
	return f.Memory.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errInjected
	}
	return f.Memory.Set(ctx, key, value)
}

func (f *flakyKV) AllKeys(ctx context.Context) ([]string, error) {
	if f.failKeys {
		return nil, errInjected
	}
	return f.Memory.AllKeys(ctx)
}

// feb2025 is the pinned "now" for store tests.
var feb2025 = time.Date(2025, time.February, 20, 12, 0, 0, 0, time.UTC)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newMem() *kv.Memory { return kv.NewMemory() }

func newTestStore(t *testing.T) (*Partitioned, *kv.Memory) {
	t.Helper()
	mem := newMem()
	return newTestStoreOn(t, mem), mem
}

func newTestStoreOn(t *testing.T, substrate kv.Store) *Partitioned {
	t.Helper()
	return New(substrate, Options{
		Location: time.UTC,
		Now:      func() time.Time { return feb2025 },
		Logger:   quietLogger(),
	})
}

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return v
}

func mustAppend(t *testing.T, s *Partitioned, id, at, text string) model.Message {
	t.Helper()
	m, err := s.Append(context.Background(), model.Message{
		ID: id, Text: text, Type: model.TypeUser, Timestamp: ts(t, at),
	})
	if err != nil {
		t.Fatalf("append %s: %v", id, err)
	}
	return m
}

func ids(msgs []model.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func equalIDs(got []model.Message, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i].ID != want[i] {
			return false
		}
	}
	return true
}
