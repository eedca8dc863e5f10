package service

import (
	"context"

	"github.com/vexxhost/adb-monitor/models"
)

// DeviceLister reports the devices adb currently sees.
// Implementations swallow errors and return an empty slice.
type DeviceLister interface {
	ListDevices(ctx context.Context) []models.DeviceRecord
}

// RootElevator attempts to restart adbd as root on a device
type RootElevator interface {
	RestartAsRoot(ctx context.Context, serial string) models.RootResult
}

// ModelResolver looks up a human readable device model
type ModelResolver interface {
	ModelName(ctx context.Context, serial string) string
}

// StatusReader is the consumer side of the status board
type StatusReader interface {
	Snapshot() map[string]models.DeviceStatus
	Changed() bool
	ClearChanged()
	TakeChanges() (map[string]models.DeviceStatus, bool)
}
