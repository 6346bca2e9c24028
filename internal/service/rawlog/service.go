package rawlog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/punch"
)

// SyncResult counts what one raw log merge did.
type SyncResult struct {
	Fetched  int `json:"fetched"`
	Appended int `json:"appended"`
	// Degraded is set when the stored rows could not be read and every fetched
	// event was treated as new.
	Degraded bool `json:"degraded"`
}

type Service struct {
	punch.RawLogRepository
	loc *time.Location
}

func NewService(rawLogRepo punch.RawLogRepository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{RawLogRepository: rawLogRepo, loc: loc}
}

// Sync appends the events not yet in the raw log. A failed read of the stored rows is
// not fatal: re-inserting is preferred over dropping events.
func (s *Service) Sync(ctx context.Context, events []punch.Event) (SyncResult, error) {
	result := SyncResult{Fetched: len(events)}

	var existing KeySet
	stored, err := s.RawLogRepository.ListStored(ctx)
	if err != nil {
		slog.Warn("RawLogs: could not read stored rows, treating all fetched events as new", "error", err)
		result.Degraded = true
	} else {
		var unparsable int
		existing, unparsable = StoredKeys(stored, s.loc)
		if unparsable > 0 {
			slog.Warn("RawLogs: stored rows with unreadable timestamps ignored", "count", unparsable)
		}
	}

	fresh := Deduplicate(events, existing)
	if len(fresh) == 0 {
		slog.Info("RawLogs: no new rows")
		return result, nil
	}

	if err := s.RawLogRepository.Append(ctx, fresh); err != nil {
		return result, fmt.Errorf("failed to append raw logs: %w", err)
	}
	result.Appended = len(fresh)
	slog.Info("RawLogs: added new rows", "count", result.Appended)
	return result, nil
}

// List returns stored punches for reporting.
func (s *Service) List(ctx context.Context, filter punch.RawLogFilter) ([]punch.Event, error) {
	if filter.Limit <= 0 || filter.Limit > 1000 {
		filter.Limit = 100
	}
	events, err := s.RawLogRepository.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw logs: %w", err)
	}
	return events, nil
}
