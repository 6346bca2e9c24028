package tabular

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/utils"
)

type recordRepository struct {
	table Table
	loc   *time.Location
}

func NewRecordRepository(table Table, loc *time.Location) attendance.RecordRepository {
	return &recordRepository{table: table, loc: loc}
}

func (r *recordRepository) ListKeys(ctx context.Context) ([]attendance.StoredRecordKey, error) {
	rows, err := r.table.Rows(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]attendance.StoredRecordKey, 0, len(rows))
	for i, row := range rows {
		keys = append(keys, storedRecordKey(row, i+firstDataRow))
	}
	return keys, nil
}

func (r *recordRepository) Update(ctx context.Context, updates []attendance.RecordUpdate) error {
	rowUpdates := make([]RowUpdate, 0, len(updates))
	for _, u := range updates {
		row, err := strconv.Atoi(u.RowID)
		if err != nil {
			return fmt.Errorf("invalid register row id %q: %w", u.RowID, err)
		}
		rowUpdates = append(rowUpdates, RowUpdate{Row: row, Values: encodeRegisterRow(u.Record)})
	}
	return r.table.Update(ctx, rowUpdates)
}

func (r *recordRepository) Append(ctx context.Context, records []attendance.Record) error {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, encodeRegisterRow(rec))
	}
	return r.table.Append(ctx, rows)
}

func (r *recordRepository) List(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	rows, err := r.table.Rows(ctx)
	if err != nil {
		return nil, err
	}

	var status *attendance.Status
	if filter.Status != nil {
		s, err := attendance.ParseStatus(*filter.Status)
		if err != nil {
			return nil, err
		}
		status = &s
	}

	var records []attendance.Record
	for _, row := range rows {
		rec, err := decodeRegisterRow(row, r.loc)
		if err != nil {
			continue
		}
		day := rec.Date.Format(utils.DateLayout)
		switch {
		case filter.EmployeeID != nil && rec.EmployeeID != *filter.EmployeeID:
			continue
		case filter.Date != nil && day != *filter.Date:
			continue
		case filter.StartDate != nil && day < *filter.StartDate:
			continue
		case filter.EndDate != nil && day > *filter.EndDate:
			continue
		case status != nil && rec.Status != *status:
			continue
		}
		records = append(records, rec)
	}

	slices.SortStableFunc(records, func(a, b attendance.Record) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.EmployeeID, b.EmployeeID)
	})
	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return records, nil
}

// Bootstrap creates both tables and fixes their header rows.
func Bootstrap(ctx context.Context, raw, register Table) error {
	if err := raw.EnsureHeader(ctx, RawLogHeader); err != nil {
		return fmt.Errorf("failed to prepare raw log table: %w", err)
	}
	if err := register.EnsureHeader(ctx, RegisterHeader); err != nil {
		return fmt.Errorf("failed to prepare register table: %w", err)
	}
	return nil
}
