package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Wait blocks on output pipes after the process is killed
const waitDelay = time.Second

// Runner executes adb subcommands
type Runner interface {
	// Output runs adb and returns stdout only
	Output(ctx context.Context, timeout time.Duration, args ...string) ([]byte, error)
	// CombinedOutput runs adb and returns stdout and stderr together.
	// Output captured before a failure is still returned.
	CombinedOutput(ctx context.Context, timeout time.Duration, args ...string) ([]byte, error)
}

// ExecRunner runs the adb binary as a subprocess
type ExecRunner struct {
	adbPath string
}

// NewExecRunner creates a runner for the adb executable at adbPath
func NewExecRunner(adbPath string) *ExecRunner {
	if adbPath == "" {
		adbPath = DefaultADBName
	}
	return &ExecRunner{adbPath: adbPath}
}

// Path returns the adb executable this runner invokes
func (r *ExecRunner) Path() string {
	return r.adbPath
}

// Output runs adb with the given arguments and returns stdout
func (r *ExecRunner) Output(ctx context.Context, timeout time.Duration, args ...string) ([]byte, error) {
	cmdCtx, cancel := withOptionalTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(cmdCtx, r.adbPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), classifyError(cmdCtx, args, stderr.String(), err)
	}
	return stdout.Bytes(), nil
}

// CombinedOutput runs adb with the given arguments and returns stdout+stderr
func (r *ExecRunner) CombinedOutput(ctx context.Context, timeout time.Duration, args ...string) ([]byte, error) {
	cmdCtx, cancel := withOptionalTimeout(ctx, timeout)
	defer cancel()

	var combined bytes.Buffer
	cmd := exec.CommandContext(cmdCtx, r.adbPath, args...)
	cmd.Stdout = &combined
	cmd.Stderr = &combined
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		return combined.Bytes(), classifyError(cmdCtx, args, combined.String(), err)
	}
	return combined.Bytes(), nil
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// classifyError maps exec failures onto the package sentinels
func classifyError(cmdCtx context.Context, args []string, output string, err error) error {
	op, serial := describeArgs(args)
	cmdErr := &CommandError{
		Op:     op,
		Serial: serial,
		Output: strings.TrimSpace(output),
	}

	var execErr *exec.Error
	var exitErr *exec.ExitError

	switch {
	case errors.Is(cmdCtx.Err(), context.DeadlineExceeded):
		cmdErr.Err = ErrCommandTimeout
	case errors.Is(cmdCtx.Err(), context.Canceled):
		cmdErr.Err = ErrCommandCanceled
	case errors.As(err, &execErr), errors.Is(err, fs.ErrNotExist):
		cmdErr.Err = fmt.Errorf("%w: %v", ErrToolNotFound, err)
	case errors.As(err, &exitErr):
		cmdErr.Err = fmt.Errorf("%w: exit code %d", ErrToolExit, exitErr.ExitCode())
	default:
		cmdErr.Err = err
	}
	return cmdErr
}

// describeArgs extracts the subcommand and target serial from an adb argument list
func describeArgs(args []string) (op, serial string) {
	rest := args
	if len(rest) >= 2 && rest[0] == "-s" {
		serial = rest[1]
		rest = rest[2:]
	}
	if len(rest) > 0 {
		op = rest[0]
	}
	return op, serial
}
