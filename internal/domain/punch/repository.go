package punch

import "context"

// RawLogRepository is the append-only raw punch table.
type RawLogRepository interface {
	// ListStored returns the identifying columns of every stored row.
	ListStored(ctx context.Context) ([]StoredPunch, error)

	// Append writes new rows in the given order.
	Append(ctx context.Context, events []Event) error

	// List returns stored punches for reporting, newest first.
	List(ctx context.Context, filter RawLogFilter) ([]Event, error)
}
