package device

import (
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound is returned when the adb executable cannot be found or started.
	ErrToolNotFound = errors.New("adb executable not found")

	// ErrToolExit is returned when adb exits with a non-zero status.
	ErrToolExit = errors.New("adb exited with non-zero status")

	// ErrCommandTimeout is returned when an adb invocation exceeds its time limit.
	ErrCommandTimeout = errors.New("adb command timed out")

	// ErrCommandCanceled is returned when the caller's context is cancelled mid-command.
	ErrCommandCanceled = errors.New("adb command canceled")
)

// CommandError wraps an error with adb invocation context.
type CommandError struct {
	Op     string // Subcommand that failed (devices, root, getprop)
	Serial string // Target device, empty for host commands
	Output string // Captured output, if any
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Err)
	if e.Serial != "" {
		msg = fmt.Sprintf("device %s: %s", e.Serial, msg)
	}
	if e.Output != "" {
		msg = fmt.Sprintf("%s (output: %s)", msg, e.Output)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
