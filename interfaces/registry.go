package interfaces

import "context"

// DeviceRegistry is the realtime device registry the backend relays through.
// Implementations exist for Firebase RTDB (production) and an embedded badger
// store (development and tests).
type DeviceRegistry interface {
	// AllDevices returns every device record keyed by device ID. An empty
	// registry yields an empty map, not an error.
	AllDevices(ctx context.Context) (map[DeviceID]DeviceRecord, error)

	// DeviceStatus returns the device's status field. Returns
	// ErrDeviceNotFound when the device has no record.
	DeviceStatus(ctx context.Context, id DeviceID) (string, error)

	// SendCommand writes the command into the device's record for the agent
	// to pick up. Creates the record if absent.
	SendCommand(ctx context.Context, id DeviceID, cmd Command) error

	// DeleteDevice removes the device's record entirely.
	DeleteDevice(ctx context.Context, id DeviceID) error
}
