package tabular

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/utils"
)

type rawLogRepository struct {
	table Table
	loc   *time.Location
}

func NewRawLogRepository(table Table, loc *time.Location) punch.RawLogRepository {
	return &rawLogRepository{table: table, loc: loc}
}

func (r *rawLogRepository) ListStored(ctx context.Context) ([]punch.StoredPunch, error) {
	rows, err := r.table.Rows(ctx)
	if err != nil {
		return nil, err
	}
	stored := make([]punch.StoredPunch, 0, len(rows))
	for _, row := range rows {
		stored = append(stored, decodeStoredPunch(row))
	}
	return stored, nil
}

func (r *rawLogRepository) Append(ctx context.Context, events []punch.Event) error {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, encodeRawRow(e))
	}
	if err := r.table.Append(ctx, rows); err != nil {
		return fmt.Errorf("failed to append raw log rows: %w", err)
	}
	return nil
}

func (r *rawLogRepository) List(ctx context.Context, filter punch.RawLogFilter) ([]punch.Event, error) {
	rows, err := r.table.Rows(ctx)
	if err != nil {
		return nil, err
	}

	var events []punch.Event
	skipped := 0
	for _, row := range rows {
		e, err := decodeRawRow(row, r.loc)
		if err != nil {
			skipped++
			continue
		}
		if filter.EmployeeID != nil && e.EmployeeID != *filter.EmployeeID {
			continue
		}
		day := utils.DateOf(e.Timestamp)
		if filter.StartDate != nil && day.Before(utils.DateOf(*filter.StartDate)) {
			continue
		}
		if filter.EndDate != nil && day.After(utils.DateOf(*filter.EndDate)) {
			continue
		}
		events = append(events, e)
	}
	if skipped > 0 {
		slog.Debug("RawLogs: unreadable rows skipped in listing", "count", skipped)
	}

	slices.SortStableFunc(events, func(a, b punch.Event) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if filter.Limit > 0 && len(events) > filter.Limit {
		events = events[:filter.Limit]
	}
	return events, nil
}
