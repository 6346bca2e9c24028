package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/utils"
)

// Arrivals up to this many minutes after the shift start are not flagged late.
const lateGraceMinutes = 15

// Summarizer groups punches by employee and attendance date and derives the register
// row for each group. It holds no state besides the shift table.
type Summarizer struct {
	shifts attendance.ShiftTable
}

func NewSummarizer(shifts attendance.ShiftTable) Summarizer {
	return Summarizer{shifts: shifts}
}

type punchGroup struct {
	employeeID string
	date       time.Time
	punches    []punch.Event
}

// Summarize implements attendance.AttendanceService.
func (s Summarizer) Summarize(events []punch.Event, roster punch.Roster, window attendance.Window) []attendance.Record {
	groups := make(map[attendance.Key]*punchGroup)
	for _, e := range events {
		if !window.Includes(e.Timestamp) {
			continue
		}
		date := window.AttendanceDate(e.Timestamp)
		key := attendance.NewKey(date, e.EmployeeID)
		g, ok := groups[key]
		if !ok {
			g = &punchGroup{employeeID: e.EmployeeID, date: date}
			groups[key] = g
		}
		g.punches = append(g.punches, e)
	}

	records := make([]attendance.Record, 0, len(groups)+len(roster))
	present := make(map[string]bool, len(groups))
	for _, g := range groups {
		sort.SliceStable(g.punches, func(i, j int) bool {
			return g.punches[i].Timestamp.Before(g.punches[j].Timestamp)
		})
		records = append(records, s.summarizeGroup(g, roster))
		present[g.employeeID] = true
	}

	switch window.Policy {
	case attendance.WindowSingleDay:
		start, _ := window.Bounds()
		day := window.AttendanceDate(start)
		for id, name := range roster {
			if !present[id] {
				records = append(records, s.absent(id, name, day))
			}
		}
	case attendance.WindowAllHistory:
		// only days with punches are known
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].EmployeeID < records[j].EmployeeID
	})
	return records
}

func (s Summarizer) summarizeGroup(g *punchGroup, roster punch.Roster) attendance.Record {
	var timeIn, timeOut *time.Time
	for i := range g.punches {
		ts := g.punches[i].Timestamp
		switch g.punches[i].Direction {
		case punch.DirectionIn:
			if timeIn == nil || ts.Before(*timeIn) {
				timeIn = &ts
			}
		case punch.DirectionOut:
			if timeOut == nil || ts.After(*timeOut) {
				timeOut = &ts
			}
		}
	}

	anchor := g.punches[0].Timestamp
	if timeIn != nil {
		anchor = *timeIn
	}
	shift := s.shifts.Resolve(g.employeeID, anchor.Hour())

	name := g.punches[0].EmployeeName
	if name == "" {
		name = roster[g.employeeID]
	}

	rec := attendance.Record{
		Date:            g.date,
		ShiftKind:       shift.Kind,
		ShiftName:       shift.Name,
		EmployeeID:      g.employeeID,
		EmployeeName:    name,
		TimeIn:          timeIn,
		TimeOut:         timeOut,
		ExpectedMinutes: shift.ExpectedMinutes,
		LengthMinutes:   shift.LengthMinutes,
		Status:          attendance.StatusPresent,
		PunchCount:      len(g.punches),
		OutsideMinutes:  outsideMinutes(g.punches),
	}

	if timeIn != nil && timeOut != nil && !timeOut.Before(*timeIn) {
		worked := utils.MinutesBetween(*timeIn, *timeOut)
		rec.WorkedMinutes = &worked
	}

	if timeIn != nil {
		late := max(0, utils.MinutesBetween(shift.StartOn(*timeIn), *timeIn))
		rec.LateMinutes = &late
		rec.Late = late > lateGraceMinutes
	}

	rec.OvertimeMinutes, rec.UndertimeMinutes = overUnder(rec.WorkedMinutes, shift)
	return rec
}

func (s Summarizer) absent(employeeID, name string, day time.Time) attendance.Record {
	shift := s.shifts.Assigned(employeeID)
	return attendance.Record{
		Date:             day,
		ShiftKind:        shift.Kind,
		ShiftName:        shift.Name,
		EmployeeID:       employeeID,
		EmployeeName:     name,
		ExpectedMinutes:  shift.ExpectedMinutes,
		LengthMinutes:    shift.LengthMinutes,
		UndertimeMinutes: shift.ExpectedMinutes,
		Status:           attendance.StatusAbsent,
	}
}

// overUnder measures overtime against the full shift length and undertime against the
// sitting hours. A missing worked duration counts as fully under.
func overUnder(worked *int, shift attendance.Shift) (overtime, undertime int) {
	if worked == nil {
		return 0, shift.ExpectedMinutes
	}
	if *worked > shift.LengthMinutes {
		overtime = *worked - shift.LengthMinutes
	}
	if *worked < shift.ExpectedMinutes {
		undertime = shift.ExpectedMinutes - *worked
	}
	return overtime, undertime
}

// outsideMinutes sums every gap between an exit and the punch right after it when that
// punch is an entry. punches must be sorted by time.
func outsideMinutes(punches []punch.Event) int {
	total := 0
	for i := 0; i+1 < len(punches); i++ {
		if punches[i].Direction == punch.DirectionOut && punches[i+1].Direction == punch.DirectionIn {
			total += max(0, utils.MinutesBetween(punches[i].Timestamp, punches[i+1].Timestamp))
		}
	}
	return total
}
