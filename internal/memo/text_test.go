package memo

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rcliao/memoya/internal/model"
)

func TestFindTasks(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"todo marker", "TODO: buy milk\nnothing else", []string{"buy milk"}},
		{"numbered list", "1. 운동하기\n2. call the bank", []string{"운동하기", "call the bank"}},
		{"bullet", "- renew passport", []string{"renew passport"}},
		{"must do", "해야 할 일: 보고서 제출", []string{"해야 할 일: 보고서 제출"}},
		{"nothing", "just a thought", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindTasks(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("FindTasks() = %q, want %q", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("task %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFindTasksCapped(t *testing.T) {
	var lines []string
	for i := 0; i < 12; i++ {
		lines = append(lines, fmt.Sprintf("%d. errand %c", i+1, 'a'+i))
	}
	if got := FindTasks(strings.Join(lines, "\n")); len(got) != 10 {
		t.Errorf("expected 10 tasks, got %d: %q", len(got), got)
	}
}

func TestKeyTopics(t *testing.T) {
	memos := []model.Memo{
		{Content: "Golang rocks"},
		{Content: "golang tests"},
		{Content: "rust is ok 회의록 정리"},
	}
	got := KeyTopics(memos)
	want := []string{"golang", "rocks", "tests", "rust", "회의록"}
	if len(got) != len(want) {
		t.Fatalf("KeyTopics() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("topic %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPreview(t *testing.T) {
	if got := preview("짧은", 5); got != "짧은" {
		t.Errorf("unexpected %q", got)
	}
	if got := preview("가나다라마바", 3); got != "가나다..." {
		t.Errorf("unexpected %q", got)
	}
}
