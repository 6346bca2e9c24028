package rawlog

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/utils"
)

// KeySet holds the keys already present in the raw log. Rows written with a
// minute-precision clock ("08:20 AM") can only be matched to the minute, so those are
// counted per minute and each stored row accounts for one fetched event.
type KeySet struct {
	exact  map[punch.Key]struct{}
	minute map[punch.Key]int
}

func minuteKey(employeeID string, ts time.Time) punch.Key {
	return punch.Key(employeeID + "|" + ts.Format("2006-01-02 15:04"))
}

func (k KeySet) Len() int {
	n := len(k.exact)
	for _, c := range k.minute {
		n += c
	}
	return n
}

// StoredKeys normalizes stored rows into punch keys. Rows whose date or time cannot
// be parsed yield no key, so they never block a re-insert.
func StoredKeys(stored []punch.StoredPunch, loc *time.Location) (KeySet, int) {
	keys := KeySet{
		exact:  make(map[punch.Key]struct{}, len(stored)),
		minute: make(map[punch.Key]int),
	}
	unparsable := 0
	for _, row := range stored {
		ts, ok := utils.ParseDateTime(row.Date, row.Time, loc)
		if !ok || row.EmployeeID == "" {
			unparsable++
			continue
		}
		if strings.Count(row.Time, ":") >= 2 {
			keys.exact[punch.NewKey(row.EmployeeID, ts)] = struct{}{}
		} else {
			keys.minute[minuteKey(row.EmployeeID, ts)]++
		}
	}
	return keys, unparsable
}

// Deduplicate returns the events not in existing, keeping input order.
// A key repeated inside events is emitted once. Each minute-precision stored row
// absorbs at most one event of its minute; later events in that minute are new.
// existing is not modified.
func Deduplicate(events []punch.Event, existing KeySet) []punch.Event {
	remaining := make(map[punch.Key]int, len(existing.minute))
	for k, c := range existing.minute {
		remaining[k] = c
	}

	seen := make(map[punch.Key]struct{}, len(events))
	fresh := make([]punch.Event, 0)
	for _, e := range events {
		key := e.Key()
		if _, ok := existing.exact[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		mk := minuteKey(e.EmployeeID, e.Timestamp)
		if remaining[mk] > 0 {
			remaining[mk]--
			continue
		}
		fresh = append(fresh, e)
	}
	return fresh
}
