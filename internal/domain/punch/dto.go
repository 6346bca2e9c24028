package punch

import (
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/pkg/utils"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/validator"
)

// ListPunchesRequest is the query of a raw log listing.
type ListPunchesRequest struct {
	EmployeeID string `json:"employee_id,omitempty"`
	StartDate  string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Limit      int    `json:"limit"`
}

func (r *ListPunchesRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if r.Limit > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 1000",
		})
	}

	var start, end time.Time
	if r.StartDate != "" {
		var ok bool
		if start, ok = validator.IsValidDate(r.StartDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}
	if r.EndDate != "" {
		var ok bool
		if end, ok = validator.IsValidDate(r.EndDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Filter converts a validated request into a repository filter with dates in loc.
func (r ListPunchesRequest) Filter(loc *time.Location) RawLogFilter {
	filter := RawLogFilter{Limit: r.Limit}
	if r.EmployeeID != "" {
		id := r.EmployeeID
		filter.EmployeeID = &id
	}
	if t, ok := utils.ParseDate(r.StartDate, loc); ok {
		filter.StartDate = &t
	}
	if t, ok := utils.ParseDate(r.EndDate, loc); ok {
		filter.EndDate = &t
	}
	return filter
}

type PunchResponse struct {
	EmployeeID    string `json:"employee_id"`
	EmployeeName  string `json:"employee_name"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	DeviceAddress string `json:"device_address"`
	Direction     string `json:"direction"`
}

type ListPunchesResponse struct {
	TotalCount int             `json:"total_count"`
	Punches    []PunchResponse `json:"punches"`
}

func NewListPunchesResponse(events []Event) ListPunchesResponse {
	punches := make([]PunchResponse, 0, len(events))
	for _, e := range events {
		punches = append(punches, PunchResponse{
			EmployeeID:    e.EmployeeID,
			EmployeeName:  e.EmployeeName,
			Date:          e.Timestamp.Format(utils.DateLayout),
			Time:          e.Timestamp.Format(utils.ClockLayout),
			DeviceAddress: e.DeviceAddress,
			Direction:     e.Direction.String(),
		})
	}
	return ListPunchesResponse{TotalCount: len(punches), Punches: punches}
}
