package punch

import "context"

// DeviceSource reads the roster and the stored punch log from a terminal.
type DeviceSource interface {
	// ListEmployees returns every user enrolled on the device.
	ListEmployees(ctx context.Context, device Device) (Roster, error)

	// ListPunchEvents returns the full punch history kept by the device.
	// Direction comes from the device configuration, not from the device itself.
	ListPunchEvents(ctx context.Context, device Device) ([]Event, error)
}
