package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vexxhost/adb-monitor/common/logging"
	"github.com/vexxhost/adb-monitor/models"
)

// Default monitor timings
const (
	DefaultPollInterval    = 2 * time.Second
	DefaultRootSettleDelay = 3 * time.Second
)

// MonitorOptions tunes the monitor loop
type MonitorOptions struct {
	PollInterval    time.Duration // Sleep between polls
	RootSettleDelay time.Duration // Pause after a successful `adb root` while the device re-enumerates
	AutoRoot        bool          // Attempt `adb root` on every transition into "device"
	ResolveModel    bool          // Read ro.product.model on every transition into "device"
}

// DefaultMonitorOptions returns the standard timings with root and model lookup enabled
func DefaultMonitorOptions() MonitorOptions {
	return MonitorOptions{
		PollInterval:    DefaultPollInterval,
		RootSettleDelay: DefaultRootSettleDelay,
		AutoRoot:        true,
		ResolveModel:    true,
	}
}

// Monitor polls adb, diffs the result against the last known state and publishes
// transitions to a StatusBoard
type Monitor struct {
	lister   DeviceLister
	elevator RootElevator
	resolver ModelResolver
	board    *StatusBoard
	opts     MonitorOptions
	logger   *logging.SessionLogger

	// lastKnown is owned by the polling goroutine; pollMu serialises Poll callers
	pollMu    sync.Mutex
	lastKnown map[string]models.DeviceState

	sleep func(ctx context.Context, d time.Duration) error

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewMonitor creates a monitor. elevator and resolver may be nil to disable those steps.
func NewMonitor(lister DeviceLister, elevator RootElevator, resolver ModelResolver, board *StatusBoard, opts MonitorOptions, logger *logging.SessionLogger) *Monitor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.RootSettleDelay < 0 {
		opts.RootSettleDelay = 0
	}
	if board == nil {
		board = NewStatusBoard()
	}
	if logger == nil {
		logger = logging.NewSessionLogger("adb-monitor")
	}

	return &Monitor{
		lister:    lister,
		elevator:  elevator,
		resolver:  resolver,
		board:     board,
		opts:      opts,
		logger:    logger,
		lastKnown: make(map[string]models.DeviceState),
		sleep:     sleepContext,
	}
}

// Board returns the status board this monitor publishes to
func (m *Monitor) Board() *StatusBoard {
	return m.board
}

// Start runs the monitor loop on its own goroutine
func (m *Monitor) Start(ctx context.Context) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if m.cancel != nil {
		return ErrMonitorRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go func() {
		defer close(done)
		defer m.clearLifecycle(done)
		m.Run(runCtx)
	}()

	return nil
}

// Running reports whether a loop started by Start is still active
func (m *Monitor) Running() bool {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	return m.cancel != nil
}

// clearLifecycle forgets the loop identified by done once it has exited on its own
func (m *Monitor) clearLifecycle(done chan struct{}) {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if m.done == done {
		m.cancel()
		m.cancel, m.done = nil, nil
	}
}

// Stop cancels the loop and waits for it to exit, bounded by ctx.
// It returns ErrMonitorNotRunning if the loop already exited because its parent context ended.
func (m *Monitor) Stop(ctx context.Context) error {
	m.lifecycleMu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.lifecycleMu.Unlock()

	if cancel == nil {
		return ErrMonitorNotRunning
	}

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for monitor to stop: %w", ctx.Err())
	}
}

// Run polls until ctx is cancelled
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Entry().WithFields(log.Fields{
		"poll_interval": m.opts.PollInterval,
		"auto_root":     m.opts.AutoRoot,
		"resolve_model": m.opts.ResolveModel,
	}).Info("🚀 Starting adb device monitor")

	for ctx.Err() == nil {
		m.Poll(ctx)

		if err := m.sleep(ctx, m.opts.PollInterval); err != nil {
			break
		}
	}

	m.logger.Entry().Info("🛑 adb device monitor stopped")
}

// Poll runs a single list-and-diff iteration.
// A panic inside the iteration is logged and swallowed so the loop keeps going.
func (m *Monitor) Poll(ctx context.Context) {
	m.pollMu.Lock()
	defer m.pollMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			m.logger.Entry().WithField("panic", r).Error("❌ An unexpected error occurred in adb monitor loop")
		}
	}()

	records := m.lister.ListDevices(ctx)
	if ctx.Err() != nil {
		// A cancelled listing observed nothing
		return
	}

	current := make(map[string]models.DeviceState, len(records))
	for _, record := range records {
		current[record.Serial] = record.State
	}

	for _, serial := range sortedSerials(current) {
		m.handleDevice(ctx, serial, current[serial])
	}

	for serial := range m.lastKnown {
		if _, present := current[serial]; !present {
			m.handleDisconnect(serial)
		}
	}
}

func (m *Monitor) handleDevice(ctx context.Context, serial string, state models.DeviceState) {
	last := m.lastKnown[serial]
	entry := m.logger.Device(serial)

	switch state {
	case models.StateDevice:
		if last != models.StateDevice {
			entry.Info("📱 Device connected and authorized")
			m.handleAuthorized(ctx, serial)
		}

	case models.StateUnauthorized:
		if last != state {
			entry.Warn("⚠️ Device is unauthorized. Please check the device screen")
			m.publish(serial, state, "")
		}

	case models.StateOffline:
		if last != state {
			entry.Warn("⚠️ Device is offline")
			m.publish(serial, state, "")
		}

	default:
		if last != state {
			entry.WithField("state", state).Info("Device is in state: " + state.String())
			m.publish(serial, state, "")
		}
	}

	m.lastKnown[serial] = state
}

// handleAuthorized runs the one-per-transition work for a device entering "device"
func (m *Monitor) handleAuthorized(ctx context.Context, serial string) {
	if m.opts.AutoRoot && m.elevator != nil {
		if m.elevator.RestartAsRoot(ctx, serial) == models.RootRestarted && m.opts.RootSettleDelay > 0 {
			// Give the device time to drop and re-enumerate
			_ = m.sleep(ctx, m.opts.RootSettleDelay)
		}
	}

	var model string
	if m.opts.ResolveModel && m.resolver != nil {
		model = m.resolver.ModelName(ctx, serial)
	}

	if existing, ok := m.board.Get(serial); !ok || existing.State != models.StateDevice {
		m.publish(serial, models.StateDevice, model)
	}
}

func (m *Monitor) publish(serial string, state models.DeviceState, model string) {
	m.board.Set(serial, models.NewDeviceStatus(state, model))
	m.logger.Device(serial).WithField("state", state).Debug("Status updated")
}

func (m *Monitor) handleDisconnect(serial string) {
	m.logger.Device(serial).Info("🔌 Device disconnected")

	m.board.Remove(serial)
	delete(m.lastKnown, serial)

	m.logger.Device(serial).Debug("Status updated: disconnected")
}

func sortedSerials(states map[string]models.DeviceState) []string {
	serials := make([]string, 0, len(states))
	for serial := range states {
		serials = append(serials, serial)
	}
	sort.Strings(serials)
	return serials
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
