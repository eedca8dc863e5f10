package models

import (
	"time"
)

// DeviceState is the state token reported by `adb devices`
// Values other than the constants below are kept verbatim (e.g. "recovery", "sideload")
type DeviceState string

const (
	StateDevice       DeviceState = "device"
	StateUnauthorized DeviceState = "unauthorized"
	StateOffline      DeviceState = "offline"
)

// IsAuthorized reports whether the device accepted this host's debugging key
func (s DeviceState) IsAuthorized() bool {
	return s == StateDevice
}

func (s DeviceState) String() string {
	return string(s)
}

// DeviceRecord is one row of `adb devices` output, produced fresh on every poll
type DeviceRecord struct {
	Serial string      `json:"serial"`
	State  DeviceState `json:"state"`
}

// DeviceStatus is the published view of a device shared with consumers
type DeviceStatus struct {
	State      DeviceState `json:"state"`
	Authorized bool        `json:"authorized"`
	Model      string      `json:"model,omitempty"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewDeviceStatus builds a status entry with Authorized derived from the state
func NewDeviceStatus(state DeviceState, model string) DeviceStatus {
	return DeviceStatus{
		State:      state,
		Authorized: state.IsAuthorized(),
		Model:      model,
		UpdatedAt:  time.Now(),
	}
}

// RootResult classifies the outcome of an `adb root` attempt
type RootResult string

const (
	RootRestarted     RootResult = "restarted"
	RootAlreadyActive RootResult = "already_root"
	RootUnavailable   RootResult = "unavailable"
	RootTimedOut      RootResult = "timed_out"
	RootFailed        RootResult = "failed"
	RootCanceled      RootResult = "canceled"
)
