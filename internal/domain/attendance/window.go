package attendance

import (
	"fmt"
	"time"
)

// WindowPolicy decides which punches a run summarizes.
type WindowPolicy int

const (
	// WindowAllHistory upserts every (employee, date) pair ever punched.
	WindowAllHistory WindowPolicy = iota + 1
	// WindowSingleDay regenerates only the attendance day containing the run's
	// reference time, including Absent rows for the roster.
	WindowSingleDay
)

func (p WindowPolicy) String() string {
	switch p {
	case WindowAllHistory:
		return "all_history"
	case WindowSingleDay:
		return "single_day"
	}
	return fmt.Sprintf("WindowPolicy(%d)", int(p))
}

func ParseWindowPolicy(s string) (WindowPolicy, error) {
	switch s {
	case "all_history", "":
		return WindowAllHistory, nil
	case "single_day":
		return WindowSingleDay, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWindowPolicy, s)
}

// Window fixes the policy, the time of day at which an attendance day starts, and the
// reference instant for single-day runs.
type Window struct {
	Policy      WindowPolicy
	DayBoundary time.Duration
	Reference   time.Time
}

// AttendanceDate returns the attendance day a punch belongs to.
func (w Window) AttendanceDate(ts time.Time) time.Time {
	y, m, d := ts.Add(-w.DayBoundary).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}

// Bounds returns the half-open span of the attendance day containing Reference.
func (w Window) Bounds() (time.Time, time.Time) {
	day := w.AttendanceDate(w.Reference)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()).Add(w.DayBoundary)
	return start, start.Add(24 * time.Hour)
}

// Includes reports whether ts is summarized under this window.
func (w Window) Includes(ts time.Time) bool {
	switch w.Policy {
	case WindowSingleDay:
		start, end := w.Bounds()
		return !ts.Before(start) && ts.Before(end)
	case WindowAllHistory:
		return true
	}
	return true
}
