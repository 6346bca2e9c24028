package postgresql

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/utils"
	"github.com/jackc/pgx/v5"
)

type attendanceRecordRepository struct {
	db  *database.DB
	loc *time.Location
}

func NewAttendanceRecordRepository(db *database.DB, loc *time.Location) attendance.RecordRepository {
	return &attendanceRecordRepository{db: db, loc: loc}
}

const recordColumns = `
	date, employee_id, employee_name, shift_kind, shift_name,
	time_in, time_out, worked_minutes, expected_minutes, length_minutes,
	overtime_minutes, undertime_minutes, is_late, late_minutes,
	status, punch_count, outside_minutes`

func recordArgs(rec attendance.Record) []interface{} {
	return []interface{}{
		rec.Date, rec.EmployeeID, rec.EmployeeName,
		strings.ToLower(rec.ShiftKind.String()), rec.ShiftName,
		rec.TimeIn, rec.TimeOut, rec.WorkedMinutes, rec.ExpectedMinutes, rec.LengthMinutes,
		rec.OvertimeMinutes, rec.UndertimeMinutes, rec.Late, rec.LateMinutes,
		strings.ToLower(rec.Status.String()), rec.PunchCount, rec.OutsideMinutes,
	}
}

// ListKeys implements attendance.RecordRepository.
func (a *attendanceRecordRepository) ListKeys(ctx context.Context) ([]attendance.StoredRecordKey, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx, `SELECT id, date, employee_id FROM attendance_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read attendance record keys: %w", err)
	}
	defer rows.Close()

	var keys []attendance.StoredRecordKey
	for rows.Next() {
		var (
			id         int64
			date       time.Time
			employeeID string
		)
		if err := rows.Scan(&id, &date, &employeeID); err != nil {
			return nil, fmt.Errorf("failed to scan attendance record key: %w", err)
		}
		keys = append(keys, attendance.StoredRecordKey{
			RowID:      strconv.FormatInt(id, 10),
			Date:       date.Format(utils.DateLayout),
			EmployeeID: employeeID,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance record keys: %w", err)
	}
	return keys, nil
}

// Update implements attendance.RecordRepository.
func (a *attendanceRecordRepository) Update(ctx context.Context, updates []attendance.RecordUpdate) error {
	return WithTransaction(ctx, a.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, a.db)

		batch := &pgx.Batch{}
		for _, u := range updates {
			id, err := strconv.ParseInt(u.RowID, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid attendance record id %q: %w", u.RowID, err)
			}
			args := append(recordArgs(u.Record), id)
			batch.Queue(`
				UPDATE attendance_records SET
					date = $1, employee_id = $2, employee_name = $3, shift_kind = $4, shift_name = $5,
					time_in = $6, time_out = $7, worked_minutes = $8, expected_minutes = $9, length_minutes = $10,
					overtime_minutes = $11, undertime_minutes = $12, is_late = $13, late_minutes = $14,
					status = $15, punch_count = $16, outside_minutes = $17, updated_at = NOW()
				WHERE id = $18
			`, args...)
		}
		if err := execBatch(ctx, q, batch); err != nil {
			return fmt.Errorf("failed to update attendance records: %w", err)
		}
		return nil
	})
}

// Append implements attendance.RecordRepository. A row inserted concurrently under the
// same key is overwritten rather than duplicated.
func (a *attendanceRecordRepository) Append(ctx context.Context, records []attendance.Record) error {
	return WithTransaction(ctx, a.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, a.db)

		batch := &pgx.Batch{}
		for _, rec := range records {
			batch.Queue(`
				INSERT INTO attendance_records (`+recordColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
				ON CONFLICT (date, employee_id) DO UPDATE SET
					employee_name = EXCLUDED.employee_name, shift_kind = EXCLUDED.shift_kind,
					shift_name = EXCLUDED.shift_name, time_in = EXCLUDED.time_in, time_out = EXCLUDED.time_out,
					worked_minutes = EXCLUDED.worked_minutes, expected_minutes = EXCLUDED.expected_minutes,
					length_minutes = EXCLUDED.length_minutes, overtime_minutes = EXCLUDED.overtime_minutes,
					undertime_minutes = EXCLUDED.undertime_minutes, is_late = EXCLUDED.is_late,
					late_minutes = EXCLUDED.late_minutes, status = EXCLUDED.status,
					punch_count = EXCLUDED.punch_count, outside_minutes = EXCLUDED.outside_minutes,
					updated_at = NOW()
			`, recordArgs(rec)...)
		}
		if err := execBatch(ctx, q, batch); err != nil {
			return fmt.Errorf("failed to insert attendance records: %w", err)
		}
		return nil
	})
}

// List implements attendance.RecordRepository.
func (a *attendanceRecordRepository) List(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	where := "TRUE"
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		where += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Date != nil && *filter.Date != "" {
		where += fmt.Sprintf(" AND date = $%d", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		where += fmt.Sprintf(" AND date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		where += fmt.Sprintf(" AND date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, strings.ToLower(*filter.Status))
		argIdx++
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM attendance_records
		WHERE %s
		ORDER BY date, employee_id
		LIMIT $%d
	`, recordColumns, where, argIdx)
	args = append(args, filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := a.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance records: %w", err)
	}
	return records, nil
}

func (a *attendanceRecordRepository) scanRecord(row pgx.Row) (attendance.Record, error) {
	var (
		rec       attendance.Record
		shiftKind string
		status    string
	)
	err := row.Scan(
		&rec.Date, &rec.EmployeeID, &rec.EmployeeName, &shiftKind, &rec.ShiftName,
		&rec.TimeIn, &rec.TimeOut, &rec.WorkedMinutes, &rec.ExpectedMinutes, &rec.LengthMinutes,
		&rec.OvertimeMinutes, &rec.UndertimeMinutes, &rec.Late, &rec.LateMinutes,
		&status, &rec.PunchCount, &rec.OutsideMinutes,
	)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to scan attendance record: %w", err)
	}

	if rec.ShiftKind, err = attendance.ParseShiftKind(shiftKind); err != nil {
		return attendance.Record{}, err
	}
	if rec.Status, err = attendance.ParseStatus(status); err != nil {
		return attendance.Record{}, err
	}
	rec.Date = wallClock(rec.Date, a.loc)
	if rec.TimeIn != nil {
		t := wallClock(*rec.TimeIn, a.loc)
		rec.TimeIn = &t
	}
	if rec.TimeOut != nil {
		t := wallClock(*rec.TimeOut, a.loc)
		rec.TimeOut = &t
	}
	return rec, nil
}
