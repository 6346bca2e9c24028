package syncrun

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-sync/internal/domain/syncrun"
	"github.com/cmlabs-hris/attendance-sync/internal/service/rawlog"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RunLocker guards a run against other processes writing the same store.
type RunLocker interface {
	TryLock(ctx context.Context) (release func(), ok bool, err error)
}

// Publisher receives run lifecycle events.
type Publisher interface {
	Publish(topic string, event string, data interface{})
}

type Options struct {
	Devices     []punch.Device
	Policy      attendance.WindowPolicy
	DayBoundary time.Duration
	// Concurrency bounds parallel device fetches; 0 fetches all devices at once.
	Concurrency int
	Location    *time.Location
	// Now is the run clock, time.Now when nil.
	Now func() time.Time
}

type SyncServiceImpl struct {
	source     punch.DeviceSource
	rawLogs    *rawlog.Service
	attendance attendance.AttendanceService
	locker     RunLocker
	publisher  Publisher
	opts       Options

	runMu sync.Mutex

	stateMu sync.RWMutex
	current *syncrun.Result
	last    *syncrun.Result
}

// NewSyncService wires a run. locker and publisher may be nil.
func NewSyncService(
	source punch.DeviceSource,
	rawLogs *rawlog.Service,
	attendanceService attendance.AttendanceService,
	locker RunLocker,
	publisher Publisher,
	opts Options,
) *SyncServiceImpl {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &SyncServiceImpl{
		source:     source,
		rawLogs:    rawLogs,
		attendance: attendanceService,
		locker:     locker,
		publisher:  publisher,
		opts:       opts,
	}
}

// Run implements syncrun.SyncService.
func (s *SyncServiceImpl) Run(ctx context.Context, trigger syncrun.Trigger) (syncrun.Result, error) {
	if len(s.opts.Devices) == 0 {
		return syncrun.Result{}, syncrun.ErrNoDevices
	}
	if !s.runMu.TryLock() {
		return syncrun.Result{}, syncrun.ErrRunInProgress
	}
	defer s.runMu.Unlock()

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx)
		if err != nil {
			return syncrun.Result{}, fmt.Errorf("failed to take run lock: %w", err)
		}
		if !ok {
			return syncrun.Result{}, syncrun.ErrRunInProgress
		}
		defer release()
	}

	result := syncrun.Result{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: s.opts.Now().In(s.opts.Location),
		Devices:   len(s.opts.Devices),
	}
	s.setCurrent(&result)
	s.publish(syncrun.EventStarted, result)
	slog.Info("Sync: run started", "run_id", result.RunID, "trigger", trigger, "devices", result.Devices)

	err := s.run(ctx, &result)
	if err != nil {
		result.Error = err.Error()
	}
	result.FinishedAt = s.opts.Now().In(s.opts.Location)

	s.finish(result)
	s.publish(syncrun.EventFinished, result)

	logArgs := []any{
		"run_id", result.RunID,
		"fetched", result.Fetched,
		"raw_appended", result.RawAppended,
		"inserted", result.RecordsInserted,
		"updated", result.RecordsUpdated,
		"failed_devices", len(result.FailedDevices),
		"duration", result.FinishedAt.Sub(result.StartedAt),
	}
	if err != nil {
		slog.Error("Sync: run finished with errors", append(logArgs, "error", err)...)
	} else {
		slog.Info("Sync: run finished", logArgs...)
	}
	return result, err
}

func (s *SyncServiceImpl) run(ctx context.Context, result *syncrun.Result) error {
	roster, events, failures, err := s.fetchAll(ctx)
	result.FailedDevices = failures
	if err != nil {
		return err
	}

	batch := mergeBatch(events, roster)
	result.Employees = len(roster)
	result.Fetched = len(batch)

	// both steps consume the same batch; a raw log failure does not block the register
	var errs []error
	rawResult, err := s.rawLogs.Sync(ctx, batch)
	result.RawAppended = rawResult.Appended
	result.RawDegraded = rawResult.Degraded
	if err != nil {
		errs = append(errs, err)
	}

	window := attendance.Window{
		Policy:      s.opts.Policy,
		DayBoundary: s.opts.DayBoundary,
		Reference:   result.StartedAt,
	}
	records := s.attendance.Summarize(batch, roster, window)
	result.RecordsSummarized = len(records)

	reconciled, err := s.attendance.Reconcile(ctx, records)
	result.RecordsInserted = reconciled.Inserted
	result.RecordsUpdated = reconciled.Updated
	if err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

type deviceFetch struct {
	roster punch.Roster
	events []punch.Event
	err    error
}

// fetchAll reads every device in parallel. A failing device is logged and contributes
// nothing; only cancellation aborts the fetch.
func (s *SyncServiceImpl) fetchAll(ctx context.Context) (punch.Roster, []punch.Event, []syncrun.DeviceFailure, error) {
	fetched := make([]deviceFetch, len(s.opts.Devices))

	g, gctx := errgroup.WithContext(ctx)
	if s.opts.Concurrency > 0 {
		g.SetLimit(s.opts.Concurrency)
	}
	for i, device := range s.opts.Devices {
		i, device := i, device
		g.Go(func() error {
			fetched[i] = s.fetchDevice(gctx, device)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}

	roster := punch.Roster{}
	var events []punch.Event
	var failures []syncrun.DeviceFailure
	for i, f := range fetched {
		device := s.opts.Devices[i]
		if f.err != nil {
			slog.Error("Sync: device fetch failed", "device", device.Address, "label", device.Label, "error", f.err)
			failures = append(failures, syncrun.DeviceFailure{Address: device.Address, Label: device.Label, Error: f.err.Error()})
			continue
		}
		slog.Info("Sync: device fetched", "device", device.Address, "users", len(f.roster), "punches", len(f.events))
		roster.Merge(f.roster)
		events = append(events, f.events...)
	}
	return roster, events, failures, nil
}

func (s *SyncServiceImpl) fetchDevice(ctx context.Context, device punch.Device) deviceFetch {
	roster, err := s.source.ListEmployees(ctx, device)
	if err != nil {
		return deviceFetch{err: err}
	}
	events, err := s.source.ListPunchEvents(ctx, device)
	if err != nil {
		return deviceFetch{err: err}
	}
	return deviceFetch{roster: roster, events: events}
}

// mergeBatch sorts events by time, employee and device, keeps the first event per key,
// and fills missing names from the merged roster.
func mergeBatch(events []punch.Event, roster punch.Roster) []punch.Event {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b punch.Event) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		if c := cmp.Compare(a.EmployeeID, b.EmployeeID); c != 0 {
			return c
		}
		return cmp.Compare(a.DeviceAddress, b.DeviceAddress)
	})

	seen := make(map[punch.Key]struct{}, len(sorted))
	batch := make([]punch.Event, 0, len(sorted))
	for _, e := range sorted {
		key := e.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if e.EmployeeName == "" {
			e.EmployeeName = roster[e.EmployeeID]
		}
		batch = append(batch, e)
	}
	return batch
}

func (s *SyncServiceImpl) publish(event string, result syncrun.Result) {
	if s.publisher != nil {
		s.publisher.Publish(syncrun.Topic, event, result)
	}
}

func (s *SyncServiceImpl) setCurrent(r *syncrun.Result) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	current := *r
	s.current = &current
}

func (s *SyncServiceImpl) finish(r syncrun.Result) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.current = nil
	s.last = &r
}

// Status implements syncrun.SyncService.
func (s *SyncServiceImpl) Status() syncrun.Status {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	status := syncrun.Status{LastRun: s.last}
	if s.current != nil {
		status.Running = true
		status.RunID = s.current.RunID
		status.RunningFor = s.opts.Now().Sub(s.current.StartedAt).Round(time.Second).String()
	}
	return status
}
