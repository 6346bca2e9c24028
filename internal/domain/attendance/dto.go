package attendance

import (
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/validator"
)

// ========================================
// REGISTER DTOs
// ========================================

type RecordFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Date       *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status     *string `json:"status,omitempty"`

	Limit int `json:"limit"`
}

func (f *RecordFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 100
	}
	if f.Limit > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 1000",
		})
	}

	if f.Status != nil {
		if !validator.IsInSlice(*f.Status, []string{"present", "absent"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: present, absent",
			})
		}
	}

	for field, value := range map[string]*string{"date": f.Date, "start_date": f.StartDate, "end_date": f.EndDate} {
		if value == nil || *value == "" {
			continue
		}
		if _, valid := validator.IsValidDate(*value); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: field + " must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RecordResponse struct {
	Date             string  `json:"date"`
	Shift            string  `json:"shift"`
	EmployeeID       string  `json:"employee_id"`
	EmployeeName     string  `json:"employee_name"`
	TimeIn           *string `json:"time_in,omitempty"`
	TimeOut          *string `json:"time_out,omitempty"`
	WorkedMinutes    *int    `json:"worked_minutes,omitempty"`
	ExpectedMinutes  int     `json:"expected_minutes"`
	LengthMinutes    int     `json:"length_minutes"`
	OvertimeMinutes  int     `json:"overtime_minutes"`
	UndertimeMinutes int     `json:"undertime_minutes"`
	IsLate           bool    `json:"is_late"`
	LateMinutes      *int    `json:"late_minutes,omitempty"`
	Status           string  `json:"status"`
	PunchCount       int     `json:"punch_count"`
	OutsideMinutes   int     `json:"outside_minutes"`
}

type ListRecordsResponse struct {
	TotalCount int              `json:"total_count"`
	Records    []RecordResponse `json:"records"`
}

// ReconcileResult counts what a reconcile pass wrote.
type ReconcileResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}
