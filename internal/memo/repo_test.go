package memo

import (
	"context"
	"errors"
	"testing"

	"github.com/rcliao/memoya/internal/model"
)

func TestKeys(t *testing.T) {
	tests := []struct {
		room, active, trash string
	}{
		{"", "memos", "trashedMemos"},
		{"room-1", "memos_room-1", "trashedMemos_room-1"},
	}
	for _, tt := range tests {
		if got := ActiveKey(tt.room); got != tt.active {
			t.Errorf("ActiveKey(%q) = %q, want %q", tt.room, got, tt.active)
		}
		if got := TrashKey(tt.room); got != tt.trash {
			t.Errorf("TrashKey(%q) = %q, want %q", tt.room, got, tt.trash)
		}
	}
}

func TestAddListNewestFirst(t *testing.T) {
	ctx := context.Background()
	r, mem := newTestRepo(t)
	seedMemo(t, r, "room-1", "m1", "2025-08-01T00:00:00Z", "first")
	m2, err := r.Add(ctx, "room-1", model.Memo{Content: "  second  "})
	if err != nil {
		t.Fatal(err)
	}
	if m2.ID == "" || !m2.Timestamp.Equal(aug2025) || m2.Content != "second" {
		t.Errorf("unexpected defaults: %+v", m2)
	}

	memos, _ := r.List(ctx, "room-1")
	if len(memos) != 2 || memos[0].ID != m2.ID || memos[1].ID != "m1" {
		t.Errorf("expected newest first, got %+v", memos)
	}
	if _, ok, _ := mem.Get(ctx, "memos"); ok {
		t.Error("room memos must not leak into the roomless key")
	}
}

func TestAddRejectsEmpty(t *testing.T) {
	r, _ := newTestRepo(t)
	if _, err := r.Add(context.Background(), "", model.Memo{Content: "   "}); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t)
	seedMemo(t, r, "", "m1", "2025-08-01T00:00:00Z", "draft")

	title := "Groceries"
	fav := true
	m, err := r.Update(ctx, "", "m1", Patch{Title: &title, IsFavorite: &fav})
	if err != nil {
		t.Fatal(err)
	}
	if m.Title != "Groceries" || !m.IsFavorite || m.Content != "draft" {
		t.Errorf("unexpected memo %+v", m)
	}

	if _, err := r.Update(ctx, "", "nope", Patch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTrashRestorePurgeLifecycle(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t)
	seedMemo(t, r, "room-1", "old", "2025-07-01T00:00:00Z", "old")
	seedMemo(t, r, "room-1", "mid", "2025-07-15T00:00:00Z", "mid")
	seedMemo(t, r, "room-1", "new", "2025-08-01T00:00:00Z", "new")

	status := func(id string) model.State {
		s, err := r.Status(ctx, "room-1", id)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}

	if status("mid") != model.StateActive {
		t.Fatal("expected active before trash")
	}
	trashed, err := r.Trash(ctx, "room-1", "mid")
	if err != nil {
		t.Fatal(err)
	}
	if trashed.DeletedAt == nil || !trashed.DeletedAt.Equal(aug2025) {
		t.Errorf("expected deletedAt stamp, got %+v", trashed)
	}
	if status("mid") != model.StateDeleted {
		t.Error("expected deleted after trash")
	}
	trash, _ := r.Trashed(ctx, "room-1")
	if len(trash) != 1 || trash[0].ID != "mid" {
		t.Errorf("unexpected trash %+v", trash)
	}

	if _, err := r.RestoreTrashed(ctx, "room-1", "mid"); err != nil {
		t.Fatal(err)
	}
	memos, _ := r.List(ctx, "room-1")
	if len(memos) != 3 || memos[1].ID != "mid" || memos[1].DeletedAt != nil {
		t.Errorf("expected mid restored in timestamp order, got %+v", memos)
	}

	r.Trash(ctx, "room-1", "mid")
	if err := r.PurgeTrashed(ctx, "room-1", "mid"); err != nil {
		t.Fatal(err)
	}
	if status("mid") != model.StatePermanentlyDeleted {
		t.Error("expected permanently deleted after purge")
	}
	if err := r.PurgeTrashed(ctx, "room-1", "mid"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second purge, got %v", err)
	}
}

func TestTrashMissing(t *testing.T) {
	r, _ := newTestRepo(t)
	if _, err := r.Trash(context.Background(), "", "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListCorrupt(t *testing.T) {
	ctx := context.Background()
	r, mem := newTestRepo(t)
	mem.Set(ctx, "memos", "{")
	memos, err := r.List(ctx, "")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if memos == nil || len(memos) != 0 {
		t.Errorf("expected empty slice, got %v", memos)
	}
}

func TestAnnotateStatus(t *testing.T) {
	ctx := context.Background()
	r, mem := newTestRepo(t)
	seedMemo(t, r, "room-1", "kept", "2025-08-01T00:00:00Z", "kept")
	seedMemo(t, r, "room-1", "binned", "2025-08-02T00:00:00Z", "binned")
	r.Trash(ctx, "room-1", "binned")

	msgs := []model.Message{
		{ID: "kept", Type: model.TypeRecord},
		{ID: "binned", Type: model.TypeRecord},
		{ID: "gone", Type: model.TypeMemo},
		{ID: "kept", Type: model.TypeUser},
	}
	if err := r.AnnotateStatus(ctx, "room-1", msgs); err != nil {
		t.Fatal(err)
	}
	want := []model.State{model.StateActive, model.StateDeleted, model.StatePermanentlyDeleted, ""}
	for i, m := range msgs {
		if m.MemoStatus != want[i] {
			t.Errorf("msgs[%d] %s/%s: got status %q, want %q", i, m.ID, m.Type, m.MemoStatus, want[i])
		}
	}

	// Rooms are separate: the same id is unknown elsewhere.
	other := []model.Message{{ID: "kept", Type: model.TypeRecord}}
	r.AnnotateStatus(ctx, "room-2", other)
	if other[0].MemoStatus != model.StatePermanentlyDeleted {
		t.Errorf("expected permanentlyDeleted in another room, got %q", other[0].MemoStatus)
	}

	// No memo lists are read when nothing needs a status.
	mem.Set(ctx, ActiveKey("room-3"), "{")
	plain := []model.Message{{ID: "u", Type: model.TypeUser}}
	if err := r.AnnotateStatus(ctx, "room-3", plain); err != nil {
		t.Errorf("expected no error without record messages, got %v", err)
	}
	if err := r.AnnotateStatus(ctx, "room-3", msgs); err == nil {
		t.Error("expected parse error from a corrupt memo list")
	}
}
