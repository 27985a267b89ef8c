package utils

import (
	"testing"
	"time"
)

func TestLatencyTrackerPercentile(t *testing.T) {
	tracker := NewLatencyTracker(10)
	durations := []time.Duration{50 * time.Millisecond, 10 * time.Millisecond, 40 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond}
	for _, d := range durations {
		tracker.Observe(d)
	}

	if tracker.Count() != len(durations) {
		t.Fatalf("expected count %d, got %d", len(durations), tracker.Count())
	}
	if p95 := tracker.Percentile(95); p95 < 40*time.Millisecond {
		t.Fatalf("expected percentile >= 40ms, got %v", p95)
	}
	if low := tracker.Percentile(0); low != 10*time.Millisecond {
		t.Fatalf("expected min 10ms, got %v", low)
	}
}

func TestLatencyTrackerOverwritesOldest(t *testing.T) {
	tracker := NewLatencyTracker(3)
	for i := 1; i <= 10; i++ {
		tracker.Observe(time.Duration(i) * time.Millisecond)
	}
	if tracker.Count() != 3 {
		t.Fatalf("expected tracker size 3, got %d", tracker.Count())
	}
	if got := tracker.Percentile(0); got != 8*time.Millisecond {
		t.Fatalf("expected oldest retained sample 8ms, got %v", got)
	}
	if got := tracker.Percentile(100); got != 10*time.Millisecond {
		t.Fatalf("expected newest sample 10ms, got %v", got)
	}
}

func TestLatencyTrackerEmpty(t *testing.T) {
	if got := NewLatencyTracker(0).Percentile(95); got != 0 {
		t.Fatalf("expected zero for empty tracker, got %v", got)
	}
}
