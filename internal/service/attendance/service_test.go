package attendance

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/utils"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRegister keeps rows in insertion order; RowID is the slice index.
type memoryRegister struct {
	rows      []attendance.Record
	broken    []attendance.StoredRecordKey
	listErr   error
	appends   int
	updateCnt int
}

func (m *memoryRegister) ListKeys(ctx context.Context) ([]attendance.StoredRecordKey, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	keys := append([]attendance.StoredRecordKey{}, m.broken...)
	for i, r := range m.rows {
		keys = append(keys, attendance.StoredRecordKey{
			RowID:      strconv.Itoa(i),
			Date:       r.Date.Format(utils.DateLayout),
			EmployeeID: r.EmployeeID,
		})
	}
	return keys, nil
}

func (m *memoryRegister) Update(ctx context.Context, updates []attendance.RecordUpdate) error {
	for _, u := range updates {
		i, err := strconv.Atoi(u.RowID)
		if err != nil {
			return err
		}
		m.rows[i] = u.Record
		m.updateCnt++
	}
	return nil
}

func (m *memoryRegister) Append(ctx context.Context, records []attendance.Record) error {
	m.rows = append(m.rows, records...)
	m.appends += len(records)
	return nil
}

func (m *memoryRegister) List(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	var out []attendance.Record
	for _, r := range m.rows {
		if filter.EmployeeID != nil && r.EmployeeID != *filter.EmployeeID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func newTestService(t *testing.T, repo *memoryRegister) attendance.AttendanceService {
	t.Helper()
	return NewAttendanceService(repo, testShifts(t))
}

func TestReconcile_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRegister{}
	svc := newTestService(t, repo)
	events := []punch.Event{
		in("E1", at(0, 8, 20)), out("E1", at(0, 16, 20)),
		in("E2", at(0, 16, 0)),
		in("E1", at(1, 8, 0)), out("E1", at(1, 12, 0)), in("E1", at(1, 13, 30)),
	}

	first, err := svc.Reconcile(ctx, svc.Summarize(events, nil, allHistory()))
	require.NoError(t, err)
	assert.Equal(t, attendance.ReconcileResult{Inserted: 3}, first)
	snapshot := append([]attendance.Record{}, repo.rows...)

	second, err := svc.Reconcile(ctx, svc.Summarize(events, nil, allHistory()))
	require.NoError(t, err)
	assert.Equal(t, attendance.ReconcileResult{Updated: 3}, second)
	assert.Len(t, repo.rows, 3)
	assert.Equal(t, snapshot, repo.rows)
}

func TestReconcile_UpdatesChangedDayInPlace(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRegister{}
	svc := newTestService(t, repo)

	_, err := svc.Reconcile(ctx, svc.Summarize([]punch.Event{in("E1", at(0, 8, 0))}, nil, allHistory()))
	require.NoError(t, err)

	later := []punch.Event{in("E1", at(0, 8, 0)), out("E1", at(0, 17, 0))}
	result, err := svc.Reconcile(ctx, svc.Summarize(later, nil, allHistory()))
	require.NoError(t, err)

	assert.Equal(t, attendance.ReconcileResult{Updated: 1}, result)
	require.Len(t, repo.rows, 1)
	require.NotNil(t, repo.rows[0].WorkedMinutes)
	assert.Equal(t, 540, *repo.rows[0].WorkedMinutes)
	assert.Equal(t, 60, repo.rows[0].OvertimeMinutes)
}

func TestReconcile_UnreadableStoredKeysDoNotMatch(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRegister{broken: []attendance.StoredRecordKey{
		{RowID: "99", Date: "02/06/2025", EmployeeID: "E1"},
		{RowID: "98", Date: "2025-06-02", EmployeeID: ""},
	}}
	svc := newTestService(t, repo)

	result, err := svc.Reconcile(ctx, svc.Summarize([]punch.Event{in("E1", at(0, 8, 0))}, nil, allHistory()))

	require.NoError(t, err)
	assert.Equal(t, attendance.ReconcileResult{Inserted: 1}, result)
}

func TestReconcile_IndexFailureAborts(t *testing.T) {
	repo := &memoryRegister{listErr: errors.New("quota exceeded")}
	svc := newTestService(t, repo)

	_, err := svc.Reconcile(context.Background(), svc.Summarize([]punch.Event{in("E1", at(0, 8, 0))}, nil, allHistory()))

	assert.ErrorIs(t, err, attendance.ErrRecordIndexUnavailable)
	assert.Empty(t, repo.rows)
}

func TestIndexStoredKeys_FirstDuplicateWins(t *testing.T) {
	index, skipped := indexStoredKeys([]attendance.StoredRecordKey{
		{RowID: "2", Date: "2025-06-02", EmployeeID: "E1"},
		{RowID: "7", Date: "2025-06-02", EmployeeID: "E1"},
		{RowID: "8", Date: "not a date", EmployeeID: "E1"},
	})

	assert.Equal(t, 1, skipped)
	assert.Equal(t, map[attendance.Key]string{attendance.NewKey(day, "E1"): "2"}, index)
}

func TestListRecords(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRegister{}
	svc := newTestService(t, repo)
	_, err := svc.Reconcile(ctx, svc.Summarize([]punch.Event{
		in("E1", at(0, 8, 20)), out("E1", at(0, 16, 20)), in("E2", at(0, 9, 0)),
	}, punch.Roster{"E1": "Ana", "E2": "Budi"}, allHistory()))
	require.NoError(t, err)

	employeeID := "E1"
	resp, err := svc.ListRecords(ctx, attendance.RecordFilter{EmployeeID: &employeeID})
	require.NoError(t, err)

	require.Equal(t, 1, resp.TotalCount)
	got := resp.Records[0]
	assert.Equal(t, "2025-06-02", got.Date)
	assert.Equal(t, "Morning", got.Shift)
	assert.Equal(t, "Ana", got.EmployeeName)
	require.NotNil(t, got.TimeIn)
	assert.Equal(t, "2025-06-02 08:20:00", *got.TimeIn)
	assert.True(t, got.IsLate)
	assert.Equal(t, "Present", got.Status)
}

func TestListRecords_InvalidFilter(t *testing.T) {
	svc := newTestService(t, &memoryRegister{})
	status := "late"
	date := "2025/06/02"

	_, err := svc.ListRecords(context.Background(), attendance.RecordFilter{Status: &status, Date: &date})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "status")
	assert.Contains(t, verrs.ToMap(), "date")
}
