package syncrun

import "errors"

var (
	ErrRunInProgress = errors.New("a sync run is already in progress")
	ErrNoDevices     = errors.New("no devices configured")
)
