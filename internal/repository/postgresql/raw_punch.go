package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/utils"
	"github.com/jackc/pgx/v5"
)

type rawPunchRepository struct {
	db  *database.DB
	loc *time.Location
}

func NewRawPunchRepository(db *database.DB, loc *time.Location) punch.RawLogRepository {
	return &rawPunchRepository{db: db, loc: loc}
}

// ListStored implements punch.RawLogRepository.
func (r *rawPunchRepository) ListStored(ctx context.Context) ([]punch.StoredPunch, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT employee_id, punched_at FROM raw_punches`)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw punches: %w", err)
	}
	defer rows.Close()

	var stored []punch.StoredPunch
	for rows.Next() {
		var (
			employeeID string
			punchedAt  time.Time
		)
		if err := rows.Scan(&employeeID, &punchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan raw punch: %w", err)
		}
		stored = append(stored, punch.StoredPunch{
			EmployeeID: employeeID,
			Date:       punchedAt.Format(utils.DateLayout),
			Time:       punchedAt.Format(utils.ClockLayout),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate raw punches: %w", err)
	}
	return stored, nil
}

// Append implements punch.RawLogRepository. The unique key makes a concurrent writer's
// rows a no-op instead of a failure.
func (r *rawPunchRepository) Append(ctx context.Context, events []punch.Event) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		batch := &pgx.Batch{}
		for _, e := range events {
			batch.Queue(`
				INSERT INTO raw_punches (employee_id, employee_name, punched_at, device_address, direction)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (employee_id, punched_at) DO NOTHING
			`, e.EmployeeID, e.EmployeeName, e.Timestamp, e.DeviceAddress, e.Direction.String())
		}
		if err := execBatch(ctx, q, batch); err != nil {
			return fmt.Errorf("failed to insert raw punches: %w", err)
		}
		return nil
	})
}

// List implements punch.RawLogRepository.
func (r *rawPunchRepository) List(ctx context.Context, filter punch.RawLogFilter) ([]punch.Event, error) {
	q := GetQuerier(ctx, r.db)

	// Build WHERE clause
	where := "TRUE"
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		where += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.StartDate != nil {
		where += fmt.Sprintf(" AND punched_at >= $%d", argIdx)
		args = append(args, utils.DateOf(*filter.StartDate))
		argIdx++
	}
	if filter.EndDate != nil {
		where += fmt.Sprintf(" AND punched_at < $%d", argIdx)
		args = append(args, utils.DateOf(*filter.EndDate).AddDate(0, 0, 1))
		argIdx++
	}

	query := fmt.Sprintf(`
		SELECT employee_id, employee_name, punched_at, device_address, direction
		FROM raw_punches
		WHERE %s
		ORDER BY punched_at DESC, employee_id
		LIMIT $%d
	`, where, argIdx)
	args = append(args, filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw punches: %w", err)
	}
	defer rows.Close()

	var events []punch.Event
	for rows.Next() {
		var (
			e         punch.Event
			direction string
		)
		if err := rows.Scan(&e.EmployeeID, &e.EmployeeName, &e.Timestamp, &e.DeviceAddress, &direction); err != nil {
			return nil, fmt.Errorf("failed to scan raw punch: %w", err)
		}
		if e.Direction, err = punch.ParseDirection(direction); err != nil {
			return nil, err
		}
		e.Timestamp = wallClock(e.Timestamp, r.loc)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate raw punches: %w", err)
	}
	return events, nil
}
