// Package tabular stores the raw log and the attendance register as header-led
// tables, either Google Sheets tabs or CSV files.
package tabular

import (
	"context"
	"slices"
)

var (
	RawLogHeader = []string{"UserID", "UserName", "Punch Date", "Punch Time", "DeviceIP", "Type"}

	RegisterHeader = []string{
		"Date", "Shift", "UserID", "UserName", "Time In", "Time Out",
		"Worked Hours", "Sitting Hours", "Shift Length", "Overtime", "Undertime",
		"Late", "Late Minutes", "Attendance", "Punch Count", "Outside Duration",
	}
)

// firstDataRow is the 1-based row number of the first row under the header.
const firstDataRow = 2

// RowUpdate overwrites the 1-based row Row.
type RowUpdate struct {
	Row    int
	Values []string
}

// Table is a grid whose first row is a header.
type Table interface {
	// EnsureHeader creates the table if missing and rewrites a header that differs.
	EnsureHeader(ctx context.Context, header []string) error

	// Rows returns the data rows. Rows[i] lives at row number i+firstDataRow.
	Rows(ctx context.Context) ([][]string, error)

	Append(ctx context.Context, rows [][]string) error

	Update(ctx context.Context, updates []RowUpdate) error
}

func headerMatches(current, want []string) bool {
	return slices.Equal(current, want)
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
