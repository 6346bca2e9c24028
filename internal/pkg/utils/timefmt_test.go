package utils

import (
	"testing"
	"time"
)

func TestParseDateTime(t *testing.T) {
	want := time.Date(2025, 3, 14, 16, 5, 0, 0, time.UTC)
	cases := []struct {
		date, clock string
		ok          bool
	}{
		{"2025-03-14", "04:05 PM", true},
		{"2025-03-14", "4:05 PM", true},
		{"2025-03-14", "04:05 pm", true},
		{"2025-03-14", "16:05:00", true},
		{"2025-03-14", "16:05", true},
		{"2025-03-14", "", false},
		{"", "16:05:00", false},
		{"14/03/2025", "16:05:00", false},
		{"2025-03-14", "quarter past four", false},
	}
	for _, c := range cases {
		got, ok := ParseDateTime(c.date, c.clock, time.UTC)
		if ok != c.ok {
			t.Errorf("ParseDateTime(%q, %q) ok = %v, want %v", c.date, c.clock, ok, c.ok)
			continue
		}
		if ok && !got.Equal(want) {
			t.Errorf("ParseDateTime(%q, %q) = %v, want %v", c.date, c.clock, got, want)
		}
	}
}

func TestParseDateTime_SecondsKept(t *testing.T) {
	got, ok := ParseDateTime("2025-03-14", "08:00:59", time.UTC)
	if !ok || got.Second() != 59 {
		t.Errorf("ParseDateTime kept seconds = %v (ok=%v), want 59", got.Second(), ok)
	}
}

func TestFormatHHMM(t *testing.T) {
	cases := []struct {
		mins      int
		blankZero bool
		want      string
	}{
		{0, true, ""},
		{0, false, "00:00"},
		{-5, false, "00:00"},
		{-5, true, ""},
		{90, true, "01:30"},
		{605, false, "10:05"},
		{6000, false, "100:00"},
	}
	for _, c := range cases {
		if got := FormatHHMM(c.mins, c.blankZero); got != c.want {
			t.Errorf("FormatHHMM(%d, %v) = %q, want %q", c.mins, c.blankZero, got, c.want)
		}
	}
}

func TestParseHHMM(t *testing.T) {
	cases := map[string]int{"": 0, "00:00": 0, "01:30": 90, "10:05": 605, " 08:09 ": 489}
	for in, want := range cases {
		got, err := ParseHHMM(in)
		if err != nil || got != want {
			t.Errorf("ParseHHMM(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	if _, err := ParseHHMM("abc"); err == nil {
		t.Errorf("ParseHHMM(abc) expected error")
	}
}

func TestParseClock(t *testing.T) {
	got, err := ParseClock("16:30")
	if err != nil || got != 16*time.Hour+30*time.Minute {
		t.Errorf("ParseClock(16:30) = %v, %v", got, err)
	}
	if _, err := ParseClock("25:00"); err == nil {
		t.Errorf("ParseClock(25:00) expected error")
	}
}

func TestMinutesBetween(t *testing.T) {
	a := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	if got := MinutesBetween(a, a.Add(90*time.Minute+59*time.Second)); got != 90 {
		t.Errorf("MinutesBetween truncation = %d, want 90", got)
	}
	if got := MinutesBetween(a, a.Add(-30*time.Second)); got != 0 {
		t.Errorf("MinutesBetween sub-minute negative = %d, want 0", got)
	}
}
