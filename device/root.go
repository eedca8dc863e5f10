package device

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vexxhost/adb-monitor/common/logging"
	"github.com/vexxhost/adb-monitor/models"
)

// DefaultRootTimeout bounds a single `adb root` invocation
const DefaultRootTimeout = 10 * time.Second

// Known `adb root` responses. These are English tool strings and may change
// between adb versions.
const (
	rootRestartingMarker = "restarting adbd as root"
	rootAlreadyMarker    = "adbd is already running as root"
)

// Elevator restarts adbd as root on a device
type Elevator struct {
	runner  Runner
	timeout time.Duration
	logger  *logging.SessionLogger
}

// NewElevator creates a root elevator
func NewElevator(runner Runner, timeout time.Duration, logger *logging.SessionLogger) *Elevator {
	if timeout <= 0 {
		timeout = DefaultRootTimeout
	}
	if logger == nil {
		logger = logging.NewSessionLogger("root-elevator")
	}
	return &Elevator{
		runner:  runner,
		timeout: timeout,
		logger:  logger,
	}
}

// RestartAsRoot runs `adb -s <serial> root` and classifies the result.
// A non-zero exit is not fatal: the combined output decides the outcome.
func (e *Elevator) RestartAsRoot(ctx context.Context, serial string) models.RootResult {
	entry := e.logger.Device(serial)
	entry.Info("🔄 Attempting to restart adb as root")

	output, err := e.runner.CombinedOutput(ctx, e.timeout, "-s", serial, "root")
	if err != nil {
		switch {
		case errors.Is(err, ErrCommandTimeout):
			entry.WithField("timeout", e.timeout).Warn("⚠️ 'adb root' command timed out")
			return models.RootTimedOut
		case errors.Is(err, ErrCommandCanceled):
			entry.Debug("'adb root' canceled")
			return models.RootCanceled
		case errors.Is(err, ErrToolExit):
			// classified from output below
		default:
			entry.WithError(err).Error("❌ Error executing 'adb root'")
			return models.RootFailed
		}
	}

	result := ClassifyRootOutput(string(output))
	switch result {
	case models.RootRestarted:
		entry.Info("✅ Successfully executed 'adb root'. Device might disconnect and reconnect shortly")
	case models.RootAlreadyActive:
		entry.Info("'adb root' already enabled")
	default:
		entry.WithField("output", strings.TrimSpace(strings.ToLower(string(output)))).
			Warn("⚠️ Could not restart adb as root (maybe not a debug build?)")
	}
	return result
}

// ClassifyRootOutput maps combined `adb root` output to a result, case-insensitively
func ClassifyRootOutput(output string) models.RootResult {
	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, rootRestartingMarker):
		return models.RootRestarted
	case strings.Contains(lower, rootAlreadyMarker):
		return models.RootAlreadyActive
	default:
		return models.RootUnavailable
	}
}
