package utils

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	cases := []struct {
		input string
		want  time.Time
	}{
		{"2024-03-15T09:00:00-05:00", time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)},
		{"2024-03-15T14:00:00Z", time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)},
		{"2024-03-15T09:00:00", time.Date(2024, 3, 15, 9, 0, 0, 0, ny)},
		{"2024-03-15 09:30", time.Date(2024, 3, 15, 9, 30, 0, 0, ny)},
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, ny)},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.input, ny)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", tc.input, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("ParseTimestamp(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}

	if _, err := ParseTimestamp("next tuesday", ny); err == nil {
		t.Fatalf("expected error for free text")
	}
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	if err != nil || loc != time.UTC {
		t.Fatalf("empty zone should be UTC, got %v %v", loc, err)
	}
	if _, err := LoadLocation("Mars/Olympus_Mons"); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}

func TestMessageUnwrapsAppError(t *testing.T) {
	base := errors.New("boom")
	err := NewAppError("scheduler.Optimize", "optimization failed", base)
	if got := Message(err); got != "optimization failed: boom" {
		t.Fatalf("unexpected message %q", got)
	}
	if !errors.Is(err, base) {
		t.Fatalf("AppError should unwrap to its cause")
	}
	if got := Message(base); got != "boom" {
		t.Fatalf("plain errors pass through, got %q", got)
	}
}
