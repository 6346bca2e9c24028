package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/pkg/utils"
)

// Status of an employee on an attendance date.
type Status int

const (
	StatusPresent Status = iota + 1
	StatusAbsent
)

func (s Status) String() string {
	switch s {
	case StatusPresent:
		return "Present"
	case StatusAbsent:
		return "Absent"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func ParseStatus(s string) (Status, error) {
	switch s {
	case "Present", "present":
		return StatusPresent, nil
	case "Absent", "absent":
		return StatusAbsent, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Key identifies a summary row: one per attendance date and employee.
type Key string

func NewKey(date time.Time, employeeID string) Key {
	return Key(date.Format(utils.DateLayout) + "|" + employeeID)
}

// Record is the per-employee, per-day attendance summary.
// Optional values are nil when the punches do not allow computing them.
type Record struct {
	Date         time.Time
	ShiftKind    ShiftKind
	ShiftName    string
	EmployeeID   string
	EmployeeName string

	TimeIn  *time.Time
	TimeOut *time.Time

	WorkedMinutes    *int
	ExpectedMinutes  int
	LengthMinutes    int
	OvertimeMinutes  int
	UndertimeMinutes int

	Late        bool
	LateMinutes *int

	Status         Status
	PunchCount     int
	OutsideMinutes int
}

func (r Record) Key() Key {
	return NewKey(r.Date, r.EmployeeID)
}

// StoredRecordKey is the identifying part of a persisted summary row.
// RowID is whatever the store needs to update the row in place.
type StoredRecordKey struct {
	RowID      string
	Date       string
	EmployeeID string
}

// RecordUpdate overwrites the stored row RowID with Record.
type RecordUpdate struct {
	RowID  string
	Record Record
}
