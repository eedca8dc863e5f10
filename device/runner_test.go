package device

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript creates an executable shell script standing in for adb
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures require a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "adb")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestExecRunner_Output(t *testing.T) {
	adb := writeScript(t, `echo "List of devices attached"
printf 'ABC123\tdevice\n'
echo "noise" >&2`)

	out, err := NewExecRunner(adb).Output(context.Background(), time.Second, "devices")
	require.NoError(t, err)
	assert.Equal(t, "List of devices attached\nABC123\tdevice\n", string(out))
}

func TestExecRunner_CombinedOutput(t *testing.T) {
	adb := writeScript(t, `echo "restarting adbd as root" >&2
exit 1`)

	out, err := NewExecRunner(adb).CombinedOutput(context.Background(), time.Second, "-s", "ABC123", "root")
	require.Error(t, err)
	assert.Contains(t, string(out), "restarting adbd as root")

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "root", cmdErr.Op)
	assert.Equal(t, "ABC123", cmdErr.Serial)
	assert.ErrorIs(t, err, ErrToolExit)
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	adb := writeScript(t, `echo "error: protocol fault" >&2
exit 3`)

	_, err := NewExecRunner(adb).Output(context.Background(), time.Second, "devices")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolExit)
	assert.Contains(t, err.Error(), "exit code 3")
	assert.Contains(t, err.Error(), "protocol fault")
}

func TestExecRunner_ToolNotFound(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"absolute path missing", filepath.Join(t.TempDir(), "missing-adb")},
		{"name not on PATH", "adb-does-not-exist-anywhere"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExecRunner(tt.path).Output(context.Background(), time.Second, "devices")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrToolNotFound)
		})
	}
}

func TestExecRunner_Timeout(t *testing.T) {
	adb := writeScript(t, `exec sleep 5`)

	start := time.Now()
	_, err := NewExecRunner(adb).Output(context.Background(), 100*time.Millisecond, "devices")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommandTimeout)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestExecRunner_Canceled(t *testing.T) {
	adb := writeScript(t, `exec sleep 5`)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	_, err := NewExecRunner(adb).CombinedOutput(ctx, 10*time.Second, "-s", "ABC123", "root")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommandCanceled)
	assert.NotErrorIs(t, err, ErrToolExit)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestDescribeArgs(t *testing.T) {
	op, serial := describeArgs([]string{"-s", "ABC123", "shell", "getprop", "ro.product.model"})
	assert.Equal(t, "shell", op)
	assert.Equal(t, "ABC123", serial)

	op, serial = describeArgs([]string{"devices"})
	assert.Equal(t, "devices", op)
	assert.Empty(t, serial)
}

func TestNewExecRunner_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultADBName, NewExecRunner("").Path())
}
