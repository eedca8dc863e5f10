// Package device wraps the adb command-line tool: device listing, root elevation
// and property reads. Every call is bounded by a timeout and failures are logged
// and turned into benign fallbacks rather than returned.
package device

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vexxhost/adb-monitor/common/logging"
	"github.com/vexxhost/adb-monitor/models"
)

// DefaultListTimeout bounds one `adb devices` call
const DefaultListTimeout = 2 * time.Second

// Lister runs `adb devices` and parses its table
type Lister struct {
	runner  Runner
	timeout time.Duration
	logger  *logging.SessionLogger
}

// NewLister creates a device lister
func NewLister(runner Runner, timeout time.Duration, logger *logging.SessionLogger) *Lister {
	if timeout <= 0 {
		timeout = DefaultListTimeout
	}
	if logger == nil {
		logger = logging.NewSessionLogger("device-lister")
	}
	return &Lister{
		runner:  runner,
		timeout: timeout,
		logger:  logger,
	}
}

// ListDevices returns the devices currently reported by adb.
// Any failure is logged and reported as an empty result.
func (l *Lister) ListDevices(ctx context.Context) []models.DeviceRecord {
	start := time.Now()
	defer l.logger.LogDuration("adb devices", start)

	output, err := l.runner.Output(ctx, l.timeout, "devices")
	if err != nil {
		l.logListError(err)
		return []models.DeviceRecord{}
	}

	return ParseDevices(string(output))
}

func (l *Lister) logListError(err error) {
	entry := l.logger.Entry().WithError(err)

	switch {
	case errors.Is(err, ErrCommandCanceled):
		entry.Debug("'adb devices' canceled")
	case errors.Is(err, ErrToolNotFound):
		entry.Error("❌ 'adb' command not found. Please ensure ADB is installed and in your PATH")
	case errors.Is(err, ErrToolExit):
		entry.Error("❌ Error running 'adb devices'")
	case errors.Is(err, ErrCommandTimeout):
		entry.WithField("timeout", l.timeout).Error("❌ 'adb devices' timed out")
	default:
		entry.Error("❌ Unexpected error listing adb devices")
	}
}

// ParseDevices parses `adb devices` output.
// The first line is a header. Remaining non-blank lines must split into exactly
// two whitespace-separated tokens (serial, state); anything else is skipped.
func ParseDevices(output string) []models.DeviceRecord {
	devices := []models.DeviceRecord{}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) < 2 {
		return devices
	}

	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			log.WithField("line", strings.TrimSpace(line)).Debug("Skipping unrecognised adb devices line")
			continue
		}
		devices = append(devices, models.DeviceRecord{
			Serial: fields[0],
			State:  models.DeviceState(fields[1]),
		})
	}

	return devices
}
