package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/utils"
)

type AttendanceServiceImpl struct {
	attendance.RecordRepository
	Summarizer
}

func NewAttendanceService(recordRepo attendance.RecordRepository, shifts attendance.ShiftTable) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		RecordRepository: recordRepo,
		Summarizer:       NewSummarizer(shifts),
	}
}

// Reconcile implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Reconcile(ctx context.Context, records []attendance.Record) (attendance.ReconcileResult, error) {
	stored, err := a.RecordRepository.ListKeys(ctx)
	if err != nil {
		return attendance.ReconcileResult{}, fmt.Errorf("%w: %w", attendance.ErrRecordIndexUnavailable, err)
	}

	index, skipped := indexStoredKeys(stored)
	if skipped > 0 {
		slog.Warn("Register rows with unreadable keys ignored", "count", skipped)
	}

	var updates []attendance.RecordUpdate
	var inserts []attendance.Record
	pending := make(map[attendance.Key]int)
	for _, rec := range records {
		key := rec.Key()
		if rowID, ok := index[key]; ok {
			updates = append(updates, attendance.RecordUpdate{RowID: rowID, Record: rec})
			continue
		}
		if i, ok := pending[key]; ok {
			inserts[i] = rec
			continue
		}
		pending[key] = len(inserts)
		inserts = append(inserts, rec)
	}

	if len(updates) > 0 {
		if err := a.RecordRepository.Update(ctx, updates); err != nil {
			return attendance.ReconcileResult{}, fmt.Errorf("failed to update register rows: %w", err)
		}
	}
	if len(inserts) > 0 {
		if err := a.RecordRepository.Append(ctx, inserts); err != nil {
			return attendance.ReconcileResult{Updated: len(updates)}, fmt.Errorf("failed to append register rows: %w", err)
		}
	}

	result := attendance.ReconcileResult{Inserted: len(inserts), Updated: len(updates)}
	slog.Info("Register reconciled", "inserted", result.Inserted, "updated", result.Updated)
	return result, nil
}

// indexStoredKeys maps each readable stored key to its row. The first row wins when a
// legacy store already holds duplicates.
func indexStoredKeys(stored []attendance.StoredRecordKey) (map[attendance.Key]string, int) {
	index := make(map[attendance.Key]string, len(stored))
	skipped := 0
	for _, row := range stored {
		date, ok := utils.ParseDate(row.Date, time.UTC)
		if !ok || row.EmployeeID == "" {
			skipped++
			continue
		}
		key := attendance.NewKey(date, row.EmployeeID)
		if _, dup := index[key]; !dup {
			index[key] = row.RowID
		}
	}
	return index, skipped
}

// ListRecords implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListRecords(ctx context.Context, filter attendance.RecordFilter) (attendance.ListRecordsResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListRecordsResponse{}, err
	}

	records, err := a.RecordRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListRecordsResponse{}, fmt.Errorf("failed to list register rows: %w", err)
	}

	responses := make([]attendance.RecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, mapRecordToResponse(rec))
	}

	return attendance.ListRecordsResponse{
		TotalCount: len(responses),
		Records:    responses,
	}, nil
}

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format(utils.DateTimeLayout)
	return &format
}

func mapRecordToResponse(rec attendance.Record) attendance.RecordResponse {
	return attendance.RecordResponse{
		Date:             rec.Date.Format(utils.DateLayout),
		Shift:            rec.ShiftName,
		EmployeeID:       rec.EmployeeID,
		EmployeeName:     rec.EmployeeName,
		TimeIn:           timePtrToString(rec.TimeIn),
		TimeOut:          timePtrToString(rec.TimeOut),
		WorkedMinutes:    rec.WorkedMinutes,
		ExpectedMinutes:  rec.ExpectedMinutes,
		LengthMinutes:    rec.LengthMinutes,
		OvertimeMinutes:  rec.OvertimeMinutes,
		UndertimeMinutes: rec.UndertimeMinutes,
		IsLate:           rec.Late,
		LateMinutes:      rec.LateMinutes,
		Status:           rec.Status.String(),
		PunchCount:       rec.PunchCount,
		OutsideMinutes:   rec.OutsideMinutes,
	}
}
