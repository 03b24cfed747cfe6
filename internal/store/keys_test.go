package store

import (
	"errors"
	"testing"
	"time"
)

func TestMonthKey(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		loc  *time.Location
		want string
	}{
		{"utc", time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), time.UTC, "2025-03"},
		{"december", time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC), time.UTC, "2024-12"},
		{"local calendar wins", time.Date(2025, 1, 31, 20, 0, 0, 0, time.UTC), time.FixedZone("KST", 9*3600), "2025-02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthKey(tt.in, tt.loc); got != tt.want {
				t.Errorf("MonthKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecentMonthKeysCrossesYearBoundary(t *testing.T) {
	now := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	got := RecentMonthKeys(now, 4, time.UTC)
	want := []string{"2025-02", "2025-01", "2024-12", "2024-11"}
	if len(got) != len(want) {
		t.Fatalf("expected %d keys, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRecentMonthKeysFromMonthEnd(t *testing.T) {
	// Day-based subtraction from the 31st would skip or repeat months here.
	now := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	got := RecentMonthKeys(now, 3, time.UTC)
	want := []string{"2025-03", "2025-02", "2025-01"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRecentMonthKeysFullYear(t *testing.T) {
	got := RecentMonthKeys(feb2025, 24, time.UTC)
	seen := map[string]bool{}
	for _, k := range got {
		if seen[k] {
			t.Fatalf("duplicate month %s in %v", k, got)
		}
		seen[k] = true
	}
	if got[23] != "2023-03" {
		t.Errorf("expected oldest 2023-03, got %s", got[23])
	}
}

func TestRecentMonthKeysNonPositive(t *testing.T) {
	if got := RecentMonthKeys(feb2025, 0, time.UTC); len(got) != 0 {
		t.Errorf("expected no keys, got %v", got)
	}
}

func TestValidMonth(t *testing.T) {
	valid := []string{"2025-01", "1999-12"}
	invalid := []string{"2025-1", "2025-13", "2025-00", "25-01", "2025-01-01", "abcd-ef", ""}
	for _, s := range valid {
		if !ValidMonth(s) {
			t.Errorf("expected %q valid", s)
		}
	}
	for _, s := range invalid {
		if ValidMonth(s) {
			t.Errorf("expected %q invalid", s)
		}
	}
}

func TestParseMonth(t *testing.T) {
	got, err := ParseMonth("2024-06", time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected time %v", got)
	}

	if _, err := ParseMonth("2024-6", time.UTC); !errors.Is(err, ErrInvalidMonth) {
		t.Errorf("expected ErrInvalidMonth, got %v", err)
	}
}
