package tabular

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync/internal/domain/punch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestEncodeRegisterRow_Present(t *testing.T) {
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	rec := attendance.Record{
		Date:             day,
		ShiftKind:        attendance.ShiftMorning,
		ShiftName:        "Morning",
		EmployeeID:       "EH00001",
		EmployeeName:     "Ali",
		TimeIn:           timePtr(day.Add(8*time.Hour + 20*time.Minute)),
		TimeOut:          timePtr(day.Add(16*time.Hour + 30*time.Minute)),
		WorkedMinutes:    intPtr(490),
		ExpectedMinutes:  420,
		LengthMinutes:    480,
		OvertimeMinutes:  10,
		UndertimeMinutes: 0,
		Late:             true,
		LateMinutes:      intPtr(20),
		Status:           attendance.StatusPresent,
		PunchCount:       2,
	}

	assert.Equal(t, []string{
		"2025-06-02", "Morning", "EH00001", "Ali", "08:20:00", "16:30:00",
		"08:10", "07:00", "08:00", "00:10", "", "Yes", "00:20", "Present", "2", "00:00",
	}, encodeRegisterRow(rec))
}

func TestEncodeRegisterRow_Absent(t *testing.T) {
	rec := attendance.Record{
		Date:             time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		ShiftName:        "Morning",
		EmployeeID:       "EH00002",
		ExpectedMinutes:  420,
		LengthMinutes:    480,
		UndertimeMinutes: 420,
		Status:           attendance.StatusAbsent,
	}

	assert.Equal(t, []string{
		"2025-06-02", "Morning", "EH00002", "", "", "",
		"", "07:00", "08:00", "", "07:00", "", "", "Absent", "0", "00:00",
	}, encodeRegisterRow(rec))
}

func TestDecodeRegisterRow_AcrossMidnight(t *testing.T) {
	row := []string{
		"2025-06-02", "Zohaib", "EH00009", "Zohaib", "16:00:00", "02:05:00",
		"10:05", "09:00", "10:00", "00:05", "", "", "", "Present", "2", "00:00",
	}

	rec, err := decodeRegisterRow(row, time.UTC)

	require.NoError(t, err)
	assert.Equal(t, attendance.ShiftCustom, rec.ShiftKind)
	assert.Equal(t, time.Date(2025, 6, 3, 2, 5, 0, 0, time.UTC), *rec.TimeOut)
	assert.Equal(t, 605, *rec.WorkedMinutes)
	assert.Nil(t, rec.LateMinutes)
	assert.Equal(t, 540, rec.ExpectedMinutes)
	assert.Equal(t, 5, rec.OvertimeMinutes)
	assert.Equal(t, 0, rec.UndertimeMinutes)
}

func TestDecodeRegisterRow_LegacyTwelveHourTimes(t *testing.T) {
	row := []string{"2025-06-02", "Morning", "EH00001", "Ali", "08:20 AM", "04:30 PM", "08:10", "07:00", "08:00", "00:10", "", "Yes", "00:20", "Present", "2", "00:00"}

	rec, err := decodeRegisterRow(row, time.UTC)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 2, 16, 30, 0, 0, time.UTC), *rec.TimeOut)
	assert.Equal(t, attendance.ShiftMorning, rec.ShiftKind)
	assert.True(t, rec.Late)
}

func TestDecodeRegisterRow_Malformed(t *testing.T) {
	_, err := decodeRegisterRow([]string{"yesterday", "Morning", "EH00001"}, time.UTC)
	assert.Error(t, err)

	_, err = decodeRegisterRow([]string{"2025-06-02", "Morning", "EH00001", "", "", "", "", "", "", "", "", "", "", "Maybe"}, time.UTC)
	assert.ErrorIs(t, err, attendance.ErrInvalidStatus)
}

func TestRawRowCodec(t *testing.T) {
	e := punch.Event{
		EmployeeID:    "EH00049",
		EmployeeName:  "Bilal",
		Timestamp:     time.Date(2025, 6, 2, 18, 4, 5, 0, time.UTC),
		DeviceAddress: "192.168.1.206",
		Direction:     punch.DirectionIn,
	}

	row := encodeRawRow(e)
	assert.Equal(t, []string{"EH00049", "Bilal", "2025-06-02", "18:04:05", "192.168.1.206", "IN"}, row)

	got, err := decodeRawRow(row, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, e, got)

	legacy, err := decodeRawRow([]string{"EH00049", "Bilal", "2025-06-02", "06:04 PM", "192.168.1.205", " 509 OUT"}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, punch.DirectionOut, legacy.Direction)
	assert.Equal(t, 18, legacy.Timestamp.Hour())
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "F", columnName(6))
	assert.Equal(t, "P", columnName(16))
	assert.Equal(t, "Z", columnName(26))
	assert.Equal(t, "AA", columnName(27))
}
