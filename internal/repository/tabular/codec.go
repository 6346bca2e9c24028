package tabular

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/utils"
)

// raw log columns
const (
	rawColUserID = iota
	rawColUserName
	rawColDate
	rawColTime
	rawColDevice
	rawColType
)

// register columns
const (
	regColDate = iota
	regColShift
	regColUserID
	regColUserName
	regColTimeIn
	regColTimeOut
	regColWorked
	regColSitting
	regColLength
	regColOvertime
	regColUndertime
	regColLate
	regColLateMinutes
	regColStatus
	regColPunchCount
	regColOutside
)

const lateFlag = "Yes"

func encodeRawRow(e punch.Event) []string {
	return []string{
		e.EmployeeID,
		e.EmployeeName,
		e.Timestamp.Format(utils.DateLayout),
		e.Timestamp.Format(utils.ClockLayout),
		e.DeviceAddress,
		e.Direction.String(),
	}
}

func decodeStoredPunch(row []string) punch.StoredPunch {
	return punch.StoredPunch{
		EmployeeID: strings.TrimSpace(cell(row, rawColUserID)),
		Date:       cell(row, rawColDate),
		Time:       cell(row, rawColTime),
	}
}

func decodeRawRow(row []string, loc *time.Location) (punch.Event, error) {
	stored := decodeStoredPunch(row)
	ts, ok := utils.ParseDateTime(stored.Date, stored.Time, loc)
	if !ok {
		return punch.Event{}, fmt.Errorf("unreadable punch time %q %q", stored.Date, stored.Time)
	}
	dir, err := punch.ParseDirection(cell(row, rawColType))
	if err != nil {
		return punch.Event{}, err
	}
	return punch.Event{
		EmployeeID:    stored.EmployeeID,
		EmployeeName:  cell(row, rawColUserName),
		Timestamp:     ts,
		DeviceAddress: cell(row, rawColDevice),
		Direction:     dir,
	}, nil
}

func clockOrBlank(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(utils.ClockLayout)
}

func optionalHHMM(mins *int) string {
	if mins == nil {
		return ""
	}
	return utils.FormatHHMM(*mins, true)
}

func encodeRegisterRow(r attendance.Record) []string {
	late := ""
	if r.Late {
		late = lateFlag
	}
	return []string{
		r.Date.Format(utils.DateLayout),
		r.ShiftName,
		r.EmployeeID,
		r.EmployeeName,
		clockOrBlank(r.TimeIn),
		clockOrBlank(r.TimeOut),
		optionalHHMM(r.WorkedMinutes),
		utils.FormatHHMM(r.ExpectedMinutes, false),
		utils.FormatHHMM(r.LengthMinutes, false),
		utils.FormatHHMM(r.OvertimeMinutes, true),
		utils.FormatHHMM(r.UndertimeMinutes, true),
		late,
		optionalHHMM(r.LateMinutes),
		r.Status.String(),
		strconv.Itoa(r.PunchCount),
		utils.FormatHHMM(r.OutsideMinutes, false),
	}
}

func storedRecordKey(row []string, rowNum int) attendance.StoredRecordKey {
	return attendance.StoredRecordKey{
		RowID:      strconv.Itoa(rowNum),
		Date:       strings.TrimSpace(cell(row, regColDate)),
		EmployeeID: strings.TrimSpace(cell(row, regColUserID)),
	}
}

func parseOptionalHHMM(s string) (*int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := utils.ParseHHMM(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// decodeRegisterRow reads a register row back. Times carry no date, so a time out
// earlier than the time in is taken to be on the next day.
func decodeRegisterRow(row []string, loc *time.Location) (attendance.Record, error) {
	date, ok := utils.ParseDate(cell(row, regColDate), loc)
	if !ok {
		return attendance.Record{}, fmt.Errorf("unreadable date %q", cell(row, regColDate))
	}
	status, err := attendance.ParseStatus(strings.TrimSpace(cell(row, regColStatus)))
	if err != nil {
		return attendance.Record{}, err
	}

	rec := attendance.Record{
		Date:         date,
		ShiftName:    cell(row, regColShift),
		EmployeeID:   strings.TrimSpace(cell(row, regColUserID)),
		EmployeeName: cell(row, regColUserName),
		Late:         strings.EqualFold(strings.TrimSpace(cell(row, regColLate)), lateFlag),
		Status:       status,
	}
	rec.ShiftKind, err = attendance.ParseShiftKind(rec.ShiftName)
	if err != nil {
		rec.ShiftKind = attendance.ShiftCustom
	}

	dateText := date.Format(utils.DateLayout)
	if t, ok := utils.ParseDateTime(dateText, cell(row, regColTimeIn), loc); ok {
		rec.TimeIn = &t
	}
	if t, ok := utils.ParseDateTime(dateText, cell(row, regColTimeOut), loc); ok {
		if rec.TimeIn != nil && t.Before(*rec.TimeIn) {
			t = t.AddDate(0, 0, 1)
		}
		rec.TimeOut = &t
	}

	mins := []struct {
		col int
		dst *int
	}{
		{regColSitting, &rec.ExpectedMinutes},
		{regColLength, &rec.LengthMinutes},
		{regColOvertime, &rec.OvertimeMinutes},
		{regColUndertime, &rec.UndertimeMinutes},
		{regColOutside, &rec.OutsideMinutes},
	}
	for _, m := range mins {
		if *m.dst, err = utils.ParseHHMM(cell(row, m.col)); err != nil {
			return attendance.Record{}, err
		}
	}
	if rec.WorkedMinutes, err = parseOptionalHHMM(cell(row, regColWorked)); err != nil {
		return attendance.Record{}, err
	}
	if rec.LateMinutes, err = parseOptionalHHMM(cell(row, regColLateMinutes)); err != nil {
		return attendance.Record{}, err
	}
	if s := strings.TrimSpace(cell(row, regColPunchCount)); s != "" {
		if rec.PunchCount, err = strconv.Atoi(s); err != nil {
			return attendance.Record{}, fmt.Errorf("invalid punch count %q: %w", s, err)
		}
	}
	return rec, nil
}
