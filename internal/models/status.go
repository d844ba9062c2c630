package models

import "time"

type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOngoing  Status = "ongoing"
	StatusPending  Status = "pending"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusPending:
		return true
	}
	return false
}

// ComputeStatus derives a todo's status from its start and due dates as seen
// on the calendar day of now. Time of day is ignored for all three values, so
// repeated calls during the same day agree.
//
// now before start is upcoming, start through due (inclusive) is ongoing,
// anything after due is pending.
func ComputeStatus(start, due, now time.Time) Status {
	today := dayOf(now)
	switch {
	case today.Before(dayOf(start)):
		return StatusUpcoming
	case !today.After(dayOf(due)):
		return StatusOngoing
	default:
		return StatusPending
	}
}

// dayOf maps t to UTC midnight of the calendar day t falls on in its own location.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
