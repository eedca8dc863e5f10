package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vexxhost/adb-monitor/common/logging"
	"github.com/vexxhost/adb-monitor/models"
)

// DefaultReportInterval is how often the reporter checks the change flag
const DefaultReportInterval = time.Second

// Reporter is the consumer side: it polls the status board on its own cadence
// and logs the device table whenever the change flag was raised
type Reporter struct {
	board    StatusReader
	interval time.Duration
	logger   *logging.SessionLogger
}

// NewReporter creates a reporter
func NewReporter(board StatusReader, interval time.Duration, logger *logging.SessionLogger) *Reporter {
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	if logger == nil {
		logger = logging.NewSessionLogger("status-reporter")
	}
	return &Reporter{
		board:    board,
		interval: interval,
		logger:   logger,
	}
}

// Run checks the board every interval until ctx is cancelled
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Check()
		}
	}
}

// Check reports the current snapshot if the board changed since the last check
func (r *Reporter) Check() bool {
	snapshot, changed := r.board.TakeChanges()
	if !changed {
		return false
	}

	r.logger.Entry().WithFields(log.Fields{
		"device_count": len(snapshot),
		"devices":      FormatSnapshot(snapshot),
	}).Info("📋 Current device status")
	return true
}

// FormatSnapshot renders a snapshot as a stable, sorted one-line summary
func FormatSnapshot(snapshot map[string]models.DeviceStatus) string {
	if len(snapshot) == 0 {
		return "none"
	}

	serials := make([]string, 0, len(snapshot))
	for serial := range snapshot {
		serials = append(serials, serial)
	}
	sort.Strings(serials)

	parts := make([]string, 0, len(serials))
	for _, serial := range serials {
		status := snapshot[serial]
		part := fmt.Sprintf("%s=%s", serial, status.State)
		if status.Authorized {
			part += "(authorized)"
		}
		if status.Model != "" && status.Model != serial {
			part += fmt.Sprintf("[%s]", status.Model)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}
