package service

import (
	"sync"

	"github.com/vexxhost/adb-monitor/models"
)

// StatusBoard holds the published device status and the change flag.
// The monitor is the only writer; consumers read copies and clear the flag.
type StatusBoard struct {
	mu      sync.RWMutex
	devices map[string]models.DeviceStatus
	changed bool
}

// NewStatusBoard creates an empty status board
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{
		devices: make(map[string]models.DeviceStatus),
	}
}

// Set stores the status for serial and raises the change flag
func (b *StatusBoard) Set(serial string, status models.DeviceStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.devices[serial] = status
	b.changed = true
}

// Remove deletes serial and raises the change flag.
// It reports whether an entry was present.
func (b *StatusBoard) Remove(serial string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, existed := b.devices[serial]
	delete(b.devices, serial)
	b.changed = true
	return existed
}

// Get returns the status for serial
func (b *StatusBoard) Get(serial string) (models.DeviceStatus, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	status, ok := b.devices[serial]
	return status, ok
}

// Len returns the number of published devices
func (b *StatusBoard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.devices)
}

// Snapshot returns a copy of all published statuses
func (b *StatusBoard) Snapshot() map[string]models.DeviceStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.copyLocked()
}

// Changed reports whether the board changed since the flag was last cleared
func (b *StatusBoard) Changed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.changed
}

// ClearChanged resets the change flag
func (b *StatusBoard) ClearChanged() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.changed = false
}

// TakeChanges returns a snapshot and clears the flag in one step.
// The boolean is false, and the snapshot nil, when nothing changed.
func (b *StatusBoard) TakeChanges() (map[string]models.DeviceStatus, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.changed {
		return nil, false
	}
	b.changed = false
	return b.copyLocked(), true
}

func (b *StatusBoard) copyLocked() map[string]models.DeviceStatus {
	out := make(map[string]models.DeviceStatus, len(b.devices))
	for serial, status := range b.devices {
		out[serial] = status
	}
	return out
}
