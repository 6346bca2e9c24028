package punch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	cases := map[string]Direction{
		"IN":       DirectionIn,
		"out":      DirectionOut,
		" 509 IN":  DirectionIn,
		" 609 OUT": DirectionOut,
	}
	for in, want := range cases {
		got, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "   ", "509", "INSIDE"} {
		_, err := ParseDirection(bad)
		assert.ErrorIs(t, err, ErrInvalidDirection, bad)
	}
}

func TestEventKey_IgnoresDeviceAndName(t *testing.T) {
	ts := time.Date(2025, 5, 2, 8, 20, 0, 0, time.UTC)
	a := Event{EmployeeID: "E1", Timestamp: ts, DeviceAddress: "10.0.0.1", Direction: DirectionIn}
	b := Event{EmployeeID: "E1", EmployeeName: "Ana", Timestamp: ts, DeviceAddress: "10.0.0.2", Direction: DirectionOut}

	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, Key("E1|2025-05-02 08:20:00"), a.Key())
	assert.NotEqual(t, a.Key(), NewKey("E1", ts.Add(time.Second)))
}

func TestRosterMerge(t *testing.T) {
	r := Roster{"E1": "Ana", "E2": ""}
	r.Merge(Roster{"E1": "Other", "E2": "Budi", "E3": "Citra"})

	assert.Equal(t, Roster{"E1": "Ana", "E2": "Budi", "E3": "Citra"}, r)
}
