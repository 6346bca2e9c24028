package syncrun

import "time"

// Trigger says what started a run.
type Trigger string

const (
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
	TriggerStartup  Trigger = "startup"
)

// SSE topic and event names published for every run.
const (
	Topic         = "sync"
	EventStarted  = "run.started"
	EventFinished = "run.finished"
)

// DeviceFailure is a device whose contribution to a run was empty.
type DeviceFailure struct {
	Address string `json:"address"`
	Label   string `json:"label"`
	Error   string `json:"error"`
}

// Result summarizes one run.
type Result struct {
	RunID      string    `json:"run_id"`
	Trigger    Trigger   `json:"trigger"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Devices       int             `json:"devices"`
	FailedDevices []DeviceFailure `json:"failed_devices,omitempty"`
	Employees     int             `json:"employees"`

	Fetched     int  `json:"fetched"`
	RawAppended int  `json:"raw_appended"`
	RawDegraded bool `json:"raw_degraded"`

	RecordsSummarized int `json:"records_summarized"`
	RecordsInserted   int `json:"records_inserted"`
	RecordsUpdated    int `json:"records_updated"`

	Error string `json:"error,omitempty"`
}

// Status is what the API reports between runs.
type Status struct {
	Running    bool    `json:"running"`
	RunID      string  `json:"run_id,omitempty"`
	RunningFor string  `json:"running_for,omitempty"`
	LastRun    *Result `json:"last_run,omitempty"`
}
