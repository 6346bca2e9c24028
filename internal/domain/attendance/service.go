package attendance

import (
	"context"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/punch"
)

// AttendanceService turns punches into register rows.
type AttendanceService interface {
	// Summarize computes one record per (employee, attendance date) under window.
	// Pure: the same input always yields the same records in the same order.
	Summarize(events []punch.Event, roster punch.Roster, window Window) []Record

	// Reconcile writes records to the register, updating rows that already exist.
	Reconcile(ctx context.Context, records []Record) (ReconcileResult, error)

	// ListRecords reads the register for reporting.
	ListRecords(ctx context.Context, filter RecordFilter) (ListRecordsResponse, error)
}
