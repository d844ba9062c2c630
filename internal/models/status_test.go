package models

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeStatus(t *testing.T) {
	start := day(2024, time.January, 1)
	due := day(2024, time.January, 10)

	tests := []struct {
		name string
		now  time.Time
		want Status
	}{
		{"day before start", day(2023, time.December, 31), StatusUpcoming},
		{"on start", start, StatusOngoing},
		{"between", day(2024, time.January, 5), StatusOngoing},
		{"on due", due, StatusOngoing},
		{"day after due", day(2024, time.January, 11), StatusPending},
		{"long after due", day(2025, time.June, 1), StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeStatus(start, due, tt.now); got != tt.want {
				t.Errorf("ComputeStatus(%s) = %s, want %s", tt.now.Format(time.DateOnly), got, tt.want)
			}
		})
	}
}

func TestComputeStatus_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, time.January, 1, 18, 45, 0, 0, time.UTC)
	due := time.Date(2024, time.January, 10, 6, 0, 0, 0, time.UTC)

	early := time.Date(2024, time.January, 1, 0, 0, 1, 0, time.UTC)
	if got := ComputeStatus(start, due, early); got != StatusOngoing {
		t.Errorf("expected ongoing early on the start day, got %s", got)
	}

	late := time.Date(2024, time.January, 10, 23, 59, 59, 0, time.UTC)
	if got := ComputeStatus(start, due, late); got != StatusOngoing {
		t.Errorf("expected ongoing late on the due day, got %s", got)
	}

	for h := 0; h < 24; h++ {
		now := time.Date(2024, time.January, 11, h, 30, 0, 0, time.UTC)
		if got := ComputeStatus(start, due, now); got != StatusPending {
			t.Fatalf("hour %d: expected pending, got %s", h, got)
		}
	}
}

func TestComputeStatus_UsesLocalCalendarDay(t *testing.T) {
	tz := time.FixedZone("UTC-5", -5*60*60)
	start := day(2024, time.January, 1)
	due := day(2024, time.January, 10)

	// 2024-01-11T03:00Z is still the 10th in UTC-5.
	now := time.Date(2024, time.January, 10, 22, 0, 0, 0, tz)
	if got := ComputeStatus(start, due, now); got != StatusOngoing {
		t.Errorf("expected ongoing, got %s", got)
	}
}

func TestComputeStatus_SingleDayTask(t *testing.T) {
	d := day(2024, time.May, 5)

	if got := ComputeStatus(d, d, day(2024, time.May, 4)); got != StatusUpcoming {
		t.Errorf("expected upcoming, got %s", got)
	}
	if got := ComputeStatus(d, d, d.Add(12*time.Hour)); got != StatusOngoing {
		t.Errorf("expected ongoing, got %s", got)
	}
	if got := ComputeStatus(d, d, day(2024, time.May, 6)); got != StatusPending {
		t.Errorf("expected pending, got %s", got)
	}
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range []Status{StatusUpcoming, StatusOngoing, StatusPending} {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	for _, s := range []Status{"", "completed", "Ongoing"} {
		if s.Valid() {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}
