package cron

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/syncrun"
)

type SyncJobs struct {
	syncService syncrun.SyncService
	interval    time.Duration
}

func NewSyncJobs(syncService syncrun.SyncService, interval time.Duration) *SyncJobs {
	return &SyncJobs{syncService: syncService, interval: interval}
}

func (j *SyncJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(Job{
		Name:       "sync_devices",
		Interval:   j.interval,
		RunOnStart: true,
		Fn:         j.SyncDevices,
	})
}

// SyncDevices pulls every device into the raw log and the register. A run already in
// progress, e.g. one started from the API, is not an error.
func (j *SyncJobs) SyncDevices(ctx context.Context) error {
	slog.Info("Cron: Starting device sync job")

	_, err := j.syncService.Run(ctx, syncrun.TriggerSchedule)
	if errors.Is(err, syncrun.ErrRunInProgress) {
		slog.Info("Cron: Sync already running, skipping this tick")
		return nil
	}
	return err
}
