package rawlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/punch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ev(id string, ts time.Time, dir punch.Direction) punch.Event {
	return punch.Event{EmployeeID: id, Timestamp: ts, DeviceAddress: "192.168.1.206", Direction: dir}
}

var base = time.Date(2025, 6, 2, 8, 20, 0, 0, time.UTC)

func TestDeduplicate_OnlyNewEventsAcrossStoredFormats(t *testing.T) {
	old := []punch.Event{
		ev("E1", base, punch.DirectionIn),
		ev("E1", base.Add(8*time.Hour), punch.DirectionOut),
		ev("E2", base.Add(9*time.Hour+45*time.Second), punch.DirectionIn),
	}
	fresh := []punch.Event{
		ev("E1", base.Add(24*time.Hour), punch.DirectionIn),
		ev("E3", base.Add(time.Minute), punch.DirectionIn),
	}
	batch := append(append([]punch.Event{}, old...), fresh...)

	formats := map[string][]punch.StoredPunch{
		"24 hour": {
			{EmployeeID: "E1", Date: "2025-06-02", Time: "08:20:00"},
			{EmployeeID: "E1", Date: "2025-06-02", Time: "16:20:00"},
			{EmployeeID: "E2", Date: "2025-06-02", Time: "17:20:45"},
		},
		"12 hour": {
			{EmployeeID: "E1", Date: "2025-06-02", Time: "08:20 AM"},
			{EmployeeID: "E1", Date: "2025-06-02", Time: "04:20 PM"},
			{EmployeeID: "E2", Date: "2025-06-02", Time: "05:20 PM"},
		},
		"mixed": {
			{EmployeeID: "E1", Date: "2025-06-02", Time: "8:20 AM"},
			{EmployeeID: "E1", Date: "2025-06-02", Time: "16:20:00"},
			{EmployeeID: "E2", Date: "2025-06-02", Time: "05:20 pm"},
		},
	}

	for name, stored := range formats {
		keys, unparsable := StoredKeys(stored, time.UTC)
		require.Zero(t, unparsable, name)

		got := Deduplicate(batch, keys)
		assert.Equal(t, fresh, got, name)
	}
}

func TestDeduplicate_UnparsableRowsNeverBlock(t *testing.T) {
	stored := []punch.StoredPunch{
		{EmployeeID: "E1", Date: "02-06-2025", Time: "08:20:00"},
		{EmployeeID: "E1", Date: "2025-06-02", Time: "morning"},
		{EmployeeID: "", Date: "2025-06-02", Time: "08:20:00"},
	}
	keys, unparsable := StoredKeys(stored, time.UTC)

	assert.Equal(t, 3, unparsable)
	assert.Zero(t, keys.Len())
	got := Deduplicate([]punch.Event{ev("E1", base, punch.DirectionIn)}, keys)
	assert.Len(t, got, 1)
}

func TestDeduplicate_RepeatsInsideBatchKeptOnce(t *testing.T) {
	a := ev("E1", base, punch.DirectionIn)
	b := ev("E1", base, punch.DirectionOut)
	b.DeviceAddress = "192.168.1.205"
	c := ev("E1", base.Add(time.Second), punch.DirectionIn)

	got := Deduplicate([]punch.Event{a, b, c}, KeySet{})

	assert.Equal(t, []punch.Event{a, c}, got)
}

func TestDeduplicate_SecondsDistinguishExactRows(t *testing.T) {
	keys, _ := StoredKeys([]punch.StoredPunch{{EmployeeID: "E1", Date: "2025-06-02", Time: "08:20:00"}}, time.UTC)

	got := Deduplicate([]punch.Event{ev("E1", base.Add(30*time.Second), punch.DirectionIn)}, keys)

	assert.Len(t, got, 1)
}

func TestDeduplicate_MinuteRowAccountsForOneEvent(t *testing.T) {
	keys, _ := StoredKeys([]punch.StoredPunch{{EmployeeID: "E1", Date: "2025-06-02", Time: "08:20 AM"}}, time.UTC)
	events := []punch.Event{
		ev("E1", base.Add(10*time.Second), punch.DirectionIn),
		ev("E1", base.Add(45*time.Second), punch.DirectionIn),
	}

	got := Deduplicate(events, keys)

	assert.Equal(t, []punch.Event{events[1]}, got)
	// the key set is reusable
	assert.Len(t, Deduplicate(events, keys), 1)
}

func TestDeduplicate_MinuteRowsCounted(t *testing.T) {
	keys, _ := StoredKeys([]punch.StoredPunch{
		{EmployeeID: "E1", Date: "2025-06-02", Time: "08:20 AM"},
		{EmployeeID: "E1", Date: "2025-06-02", Time: "8:20 AM"},
	}, time.UTC)
	events := []punch.Event{
		ev("E1", base.Add(10*time.Second), punch.DirectionIn),
		ev("E1", base.Add(45*time.Second), punch.DirectionIn),
		ev("E2", base.Add(5*time.Second), punch.DirectionIn),
	}

	got := Deduplicate(events, keys)

	assert.Equal(t, []punch.Event{events[2]}, got)
	assert.Equal(t, 2, keys.Len())
}

type memoryRawLog struct {
	stored  []punch.StoredPunch
	listErr error
	added   []punch.Event
}

func (m *memoryRawLog) ListStored(ctx context.Context) ([]punch.StoredPunch, error) {
	return m.stored, m.listErr
}

func (m *memoryRawLog) Append(ctx context.Context, events []punch.Event) error {
	m.added = append(m.added, events...)
	for _, e := range events {
		m.stored = append(m.stored, punch.StoredPunch{
			EmployeeID: e.EmployeeID,
			Date:       e.Timestamp.Format("2006-01-02"),
			Time:       e.Timestamp.Format("15:04:05"),
		})
	}
	return nil
}

func (m *memoryRawLog) List(ctx context.Context, filter punch.RawLogFilter) ([]punch.Event, error) {
	return m.added, nil
}

func TestService_SyncTwiceAppendsOnce(t *testing.T) {
	repo := &memoryRawLog{}
	svc := NewService(repo, time.UTC)
	batch := []punch.Event{ev("E1", base, punch.DirectionIn), ev("E1", base.Add(8*time.Hour+17*time.Second), punch.DirectionOut)}

	first, err := svc.Sync(context.Background(), batch)
	require.NoError(t, err)
	second, err := svc.Sync(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, SyncResult{Fetched: 2, Appended: 2}, first)
	assert.Equal(t, SyncResult{Fetched: 2, Appended: 0}, second)
	assert.Len(t, repo.added, 2)
}

func TestService_SyncDegradesWhenStoreUnreadable(t *testing.T) {
	repo := &memoryRawLog{
		stored:  []punch.StoredPunch{{EmployeeID: "E1", Date: "2025-06-02", Time: "08:20:00"}},
		listErr: errors.New("sheet unavailable"),
	}
	svc := NewService(repo, time.UTC)

	result, err := svc.Sync(context.Background(), []punch.Event{ev("E1", base, punch.DirectionIn)})

	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.Equal(t, 1, result.Appended)
}
