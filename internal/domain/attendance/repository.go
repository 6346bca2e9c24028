package attendance

import "context"

// RecordRepository is the attendance register, one row per (date, employee).
type RecordRepository interface {
	// ListKeys returns the key columns of every stored row.
	// Rows whose key cannot be read are returned as-is; callers decide what to skip.
	ListKeys(ctx context.Context) ([]StoredRecordKey, error)

	// Update overwrites existing rows in place
	Update(ctx context.Context, updates []RecordUpdate) error

	// Append adds new rows
	Append(ctx context.Context, records []Record) error

	// List returns stored rows matching filter, ordered by date then employee
	List(ctx context.Context, filter RecordFilter) ([]Record, error)
}
