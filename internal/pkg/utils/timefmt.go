package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	ClockLayout    = "15:04:05"
	DateTimeLayout = DateLayout + " " + ClockLayout
)

// storedClockLayouts lists every time-of-day text form seen in persisted sheets.
// Older exports used 12-hour clocks, newer ones write ClockLayout.
var storedClockLayouts = []string{
	"03:04 PM",
	"3:04 PM",
	"03:04:05 PM",
	"3:04:05 PM",
	ClockLayout,
	"15:04",
}

// ParseDateTime rebuilds a wall-clock timestamp from a stored date and time-of-day pair.
// Returns false when either part cannot be parsed.
func ParseDateTime(date, clock string, loc *time.Location) (time.Time, bool) {
	date = strings.TrimSpace(date)
	clock = strings.ToUpper(strings.TrimSpace(clock))
	if date == "" || clock == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range storedClockLayouts {
		t, err := time.ParseInLocation(DateLayout+" "+layout, date+" "+clock, loc)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(date string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	return t, err == nil
}

// ParseClock parses an HH:MM time of day and returns the offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// MinutesBetween returns whole minutes from a to b, truncated toward zero.
func MinutesBetween(a, b time.Time) int {
	return int(b.Sub(a) / time.Minute)
}

// FormatHHMM renders minutes as HH:MM. Negative values clamp to zero, and a zero value
// renders as an empty string when blankZero is set.
func FormatHHMM(mins int, blankZero bool) string {
	if mins < 0 {
		mins = 0
	}
	if mins == 0 && blankZero {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// ParseHHMM is the inverse of FormatHHMM. Empty input yields zero.
func ParseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return h*60 + m, nil
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
