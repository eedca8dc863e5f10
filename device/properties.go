package device

import (
	"context"
	"strings"
	"time"

	"github.com/vexxhost/adb-monitor/common/logging"
)

// DefaultPropertyTimeout bounds a single getprop call
const DefaultPropertyTimeout = 5 * time.Second

const modelProperty = "ro.product.model"

// PropertyReader reads system properties from a device through `adb shell getprop`
type PropertyReader struct {
	runner  Runner
	timeout time.Duration
	logger  *logging.SessionLogger
}

// NewPropertyReader creates a property reader
func NewPropertyReader(runner Runner, timeout time.Duration, logger *logging.SessionLogger) *PropertyReader {
	if timeout <= 0 {
		timeout = DefaultPropertyTimeout
	}
	if logger == nil {
		logger = logging.NewSessionLogger("property-reader")
	}
	return &PropertyReader{
		runner:  runner,
		timeout: timeout,
		logger:  logger,
	}
}

// ModelName returns the device model, falling back to the serial when unavailable
func (p *PropertyReader) ModelName(ctx context.Context, serial string) string {
	output, err := p.runner.Output(ctx, p.timeout, "-s", serial, "shell", "getprop", modelProperty)
	if err != nil {
		p.logger.Device(serial).WithError(err).Debug("Model lookup failed, using serial")
		return serial
	}

	model := strings.TrimSpace(string(output))
	if model == "" {
		p.logger.Device(serial).Debug("Model property empty, using serial")
		return serial
	}
	return model
}
