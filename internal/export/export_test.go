package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rcliao/memoya/internal/model"
)

func sample() []model.Message {
	del := time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC)
	return []model.Message{
		{ID: "a", Text: "buy milk", Type: model.TypeUser, Timestamp: time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC), IsFavorite: true},
		{ID: "b", Text: "noted", Type: model.TypeAI, Timestamp: time.Date(2025, 8, 1, 9, 1, 0, 0, time.UTC)},
		{ID: "c", Text: "old idea", Type: model.TypeMemo, Timestamp: time.Date(2025, 8, 2, 8, 0, 0, 0, time.UTC), IsDeleted: true, DeletedAt: &del},
	}
}

func TestReadBackFormats(t *testing.T) {
	for _, format := range []string{"json", "jsonl", "yaml"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, format, sample(), time.UTC); err != nil {
				t.Fatal(err)
			}
			got, err := Read(&buf, format)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 3 || got[0].ID != "a" || got[2].DeletedAt == nil || !got[0].IsFavorite {
				t.Errorf("unexpected messages %+v", got)
			}
			if !got[1].Timestamp.Equal(sample()[1].Timestamp) {
				t.Errorf("timestamp changed: %v", got[1].Timestamp)
			}
		})
	}
}

func TestJSONLOneLinePerMessage(t *testing.T) {
	var buf bytes.Buffer
	Write(&buf, "jsonl", sample(), time.UTC)
	if n := strings.Count(buf.String(), "\n"); n != 3 {
		t.Errorf("expected 3 lines, got %d", n)
	}
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "md", sample(), time.UTC); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"## 2025-08-01",
		"- **09:00** [user] ★ buy milk",
		"## 2025-08-02",
		"~~old idea~~ (deleted)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestUnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, "csv", nil, nil); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := Read(strings.NewReader("x"), "md"); err == nil {
		t.Error("markdown import should be rejected")
	}
}

func TestReadContentAlias(t *testing.T) {
	got, err := Read(strings.NewReader(`[{"id":"x","content":"legacy text","type":"user","timestamp":"2024-05-10T00:00:00Z"}]`), "json")
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Text != "legacy text" {
		t.Errorf("expected content alias to fill text, got %q", got[0].Text)
	}
}
