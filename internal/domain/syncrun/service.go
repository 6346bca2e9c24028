package syncrun

import "context"

// SyncService runs the device to register pipeline.
type SyncService interface {
	// Run performs one full run. Overlapping calls fail with ErrRunInProgress.
	Run(ctx context.Context, trigger Trigger) (Result, error)

	// Status reports the current run, if any, and the last finished one.
	Status() Status
}
