package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
	if clock.Today() != "2024-03-04" {
		t.Fatalf("expected 2024-03-04, got %s", clock.Today())
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2024, time.March, 14, 23, 30, 0, 0, time.UTC)
	clock := NewClock(start)
	nowFn := clock.NowFunc()

	updated := clock.Advance(time.Hour)
	if !updated.Equal(start.Add(time.Hour)) {
		t.Fatalf("advance returned %v", updated)
	}
	if clock.Today() != "2024-03-15" {
		t.Fatalf("expected date to roll over, got %s", clock.Today())
	}
	if got := nowFn(); !got.Equal(updated) {
		t.Fatalf("expected NowFunc to track the clock, got %v", got)
	}

	clock.Set(start)
	if got := clock.Now(); !got.Equal(start) {
		t.Fatalf("expected %v, got %v", start, got)
	}
}
