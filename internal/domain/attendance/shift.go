package attendance

import (
	"fmt"
	"time"
)

// ShiftKind is the closed set of shift classifications.
type ShiftKind int

const (
	ShiftMorning ShiftKind = iota + 1
	ShiftEvening
	ShiftNight
	ShiftCustom
)

func (k ShiftKind) String() string {
	switch k {
	case ShiftMorning:
		return "Morning"
	case ShiftEvening:
		return "Evening"
	case ShiftNight:
		return "Night"
	case ShiftCustom:
		return "Custom"
	}
	return fmt.Sprintf("ShiftKind(%d)", int(k))
}

func ParseShiftKind(s string) (ShiftKind, error) {
	switch s {
	case "Morning", "morning":
		return ShiftMorning, nil
	case "Evening", "evening":
		return ShiftEvening, nil
	case "Night", "night":
		return ShiftNight, nil
	case "Custom", "custom":
		return ShiftCustom, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShift, s)
}

// BucketForHour picks the default shift for the hour of the first punch.
func BucketForHour(hour int) ShiftKind {
	switch {
	case hour >= 8 && hour < 16:
		return ShiftMorning
	case hour >= 16 && hour < 24:
		return ShiftEvening
	default:
		return ShiftNight
	}
}

// Shift is a named work period.
type Shift struct {
	Kind            ShiftKind
	Name            string
	Start           time.Duration // offset from midnight
	ExpectedMinutes int           // sitting hours, the undertime baseline
	LengthMinutes   int           // full span, the overtime baseline
}

// StartOn returns the nominal start of the shift on day's calendar date.
func (s Shift) StartOn(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, day.Location()).Add(s.Start)
}

// ShiftTable resolves the shift for an employee. Immutable once built.
type ShiftTable struct {
	defaults map[ShiftKind]Shift
	custom   map[string]Shift
}

// NewShiftTable requires a default for every hour bucket. Custom shifts are keyed by
// employee id and always take precedence.
func NewShiftTable(defaults []Shift, custom map[string]Shift) (ShiftTable, error) {
	t := ShiftTable{
		defaults: make(map[ShiftKind]Shift, 3),
		custom:   make(map[string]Shift, len(custom)),
	}
	for _, s := range defaults {
		if s.Kind == ShiftCustom {
			return ShiftTable{}, fmt.Errorf("%w: custom shift %q in default table", ErrInvalidShiftTable, s.Name)
		}
		if s.Name == "" {
			s.Name = s.Kind.String()
		}
		t.defaults[s.Kind] = s
	}
	for _, k := range []ShiftKind{ShiftMorning, ShiftEvening, ShiftNight} {
		if _, ok := t.defaults[k]; !ok {
			return ShiftTable{}, fmt.Errorf("%w: missing %s shift", ErrInvalidShiftTable, k)
		}
	}
	for id, s := range custom {
		s.Kind = ShiftCustom
		t.custom[id] = s
	}
	return t, nil
}

// DefaultShifts are the stock buckets: 7 sitting hours in an 8 hour span.
func DefaultShifts() []Shift {
	return []Shift{
		{Kind: ShiftMorning, Name: "Morning", Start: 8 * time.Hour, ExpectedMinutes: 7 * 60, LengthMinutes: 8 * 60},
		{Kind: ShiftEvening, Name: "Evening", Start: 16 * time.Hour, ExpectedMinutes: 7 * 60, LengthMinutes: 8 * 60},
		{Kind: ShiftNight, Name: "Night", Start: 0, ExpectedMinutes: 7 * 60, LengthMinutes: 8 * 60},
	}
}

// Resolve returns the employee's custom shift, or the default bucket for hour.
func (t ShiftTable) Resolve(employeeID string, hour int) Shift {
	if s, ok := t.custom[employeeID]; ok {
		return s
	}
	return t.defaults[BucketForHour(hour)]
}

// Assigned is the shift used when there is no punch to classify by.
func (t ShiftTable) Assigned(employeeID string) Shift {
	if s, ok := t.custom[employeeID]; ok {
		return s
	}
	return t.defaults[ShiftMorning]
}
