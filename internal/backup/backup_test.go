package backup

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rcliao/memoya/internal/kv"
)

var when = time.Date(2025, 8, 20, 9, 30, 15, 0, time.UTC)

func seed(t *testing.T) *kv.Memory {
	t.Helper()
	ctx := context.Background()
	mem := kv.NewMemory()
	mem.MultiSet(ctx, map[string]string{
		"chatRooms":                `[{"id":"default-room","title":"Default"},{"id":"room-1","title":"Work"}]`,
		"currentRoomId":            "room-1",
		"memos_room-1":             `[{"id":"m1","content":"a"},{"id":"m2","content":"b"}]`,
		"memos":                    `[{"id":"m3","content":"c"}]`,
		"@memoya_messages_2025-08": `[{"id":"a","text":"hi","type":"user","timestamp":"2025-08-01T00:00:00Z"}]`,
		"quoted":                   `"already json"`,
		"count":                    `42`,
	})
	return mem
}

func TestCreateAndInfo(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memoya-backup.json")

	sum, err := Create(ctx, seed(t), path, when)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Keys != 7 || sum.Rooms != 2 || sum.Memos != 3 || sum.Partitions != 1 || sum.Messages != 1 {
		t.Errorf("unexpected summary %+v", sum)
	}

	b, _ := os.ReadFile(path)
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["version"] != "1.0.0" {
		t.Errorf("unexpected version %v", raw["version"])
	}
	data := raw["data"].(map[string]any)
	if _, ok := data["chatRooms"].([]any); !ok {
		t.Error("JSON values should be embedded as JSON")
	}
	if data["currentRoomId"] != "room-1" {
		t.Errorf("plain values should be kept as strings, got %v", data["currentRoomId"])
	}

	info, err := Info(path)
	if err != nil {
		t.Fatal(err)
	}
	if !info.Timestamp.Equal(when) || info.Keys != 7 {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := seed(t)
	path := filepath.Join(t.TempDir(), "b.json")
	if _, err := Create(ctx, src, path, when); err != nil {
		t.Fatal(err)
	}

	dst := kv.NewMemory()
	dst.Set(ctx, "stale", "gone after restore")
	if _, err := Restore(ctx, dst, path); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := dst.Get(ctx, "stale"); ok {
		t.Error("restore must clear existing keys")
	}
	keys, _ := src.AllKeys(ctx)
	for _, k := range keys {
		want, _, _ := src.Get(ctx, k)
		got, ok, _ := dst.Get(ctx, k)
		if !ok || got != want {
			t.Errorf("key %s: got %q, want %q", k, got, want)
		}
	}
}

func TestRestoreKeepsLiteralNull(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memoya-backup.json")
	src := kv.NewMemory()
	src.MultiSet(ctx, map[string]string{
		"subscriptionEndDate": "null",
		"currentRoomId":       "room-1",
	})
	if _, err := Create(ctx, src, path, when); err != nil {
		t.Fatal(err)
	}

	dst := kv.NewMemory()
	if _, err := Restore(ctx, dst, path); err != nil {
		t.Fatal(err)
	}
	v, ok, err := dst.Get(ctx, "subscriptionEndDate")
	if err != nil || !ok || v != "null" {
		t.Errorf("expected null string to survive restore, got %q ok=%v err=%v", v, ok, err)
	}
}

func TestRestoreRejectsInvalidEnvelope(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte(`{"data":{}}`), 0o600)

	dst := kv.NewMemory()
	dst.Set(ctx, "keep", "me")
	if _, err := Restore(ctx, dst, path); err == nil {
		t.Fatal("expected error for envelope without version")
	}
	if _, ok, _ := dst.Get(ctx, "keep"); !ok {
		t.Error("invalid backup must not clear the substrate")
	}
}

func TestExportCopyAndList(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "internal.json")
	Create(ctx, seed(t), path, when)

	exports := filepath.Join(dir, "exports")
	first, err := ExportCopy(path, exports, when)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(first) != "memoya-backup-2025-08-20_09-30-15.json" {
		t.Errorf("unexpected name %s", filepath.Base(first))
	}
	second, _ := ExportCopy(path, exports, when.Add(time.Hour))

	list, err := List(exports)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0] != second || list[1] != first {
		t.Errorf("expected newest first, got %v", list)
	}

	empty, err := List(filepath.Join(dir, "missing"))
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty list, got %v %v", empty, err)
	}
}
