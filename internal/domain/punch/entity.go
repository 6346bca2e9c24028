package punch

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/pkg/utils"
)

// Direction is the side of the door a device sits on.
type Direction int

const (
	DirectionIn Direction = iota + 1
	DirectionOut
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection accepts "IN"/"OUT" and device labels whose last word is the
// direction, e.g. " 509 IN".
func ParseDirection(s string) (Direction, error) {
	fields := strings.Fields(strings.ToUpper(s))
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty", ErrInvalidDirection)
	}
	switch fields[len(fields)-1] {
	case "IN":
		return DirectionIn, nil
	case "OUT":
		return DirectionOut, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Device is one punch-clock terminal and the direction its scans mean.
type Device struct {
	Address   string
	Port      int
	Label     string
	Direction Direction
}

// Roster maps employee id to display name.
type Roster map[string]string

// Merge copies entries from other, keeping names already known.
func (r Roster) Merge(other Roster) {
	for id, name := range other {
		if existing, ok := r[id]; !ok || existing == "" {
			r[id] = name
		}
	}
}

// Event is one observed badge scan.
type Event struct {
	EmployeeID    string
	EmployeeName  string
	Timestamp     time.Time
	DeviceAddress string
	Direction     Direction
}

// Key identifies a punch regardless of device: same employee, same second.
type Key string

func NewKey(employeeID string, ts time.Time) Key {
	return Key(employeeID + "|" + ts.Format(utils.DateTimeLayout))
}

func (e Event) Key() Key {
	return NewKey(e.EmployeeID, e.Timestamp)
}

// StoredPunch is a raw-log row as the store persisted it. Date and Time are the
// textual forms found in the store and may use either a 12 or 24 hour clock.
type StoredPunch struct {
	EmployeeID string
	Date       string
	Time       string
}

// RawLogFilter narrows a raw log listing.
type RawLogFilter struct {
	EmployeeID *string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
}
