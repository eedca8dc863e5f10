package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vexxhost/adb-monitor/config"
)

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
		debug, noRoot, noModel = false, false, false
		logFormat = TextFormat
	})
}

func TestApplyFlagOverrides(t *testing.T) {
	resetFlags(t)

	require.NoError(t, rootCmd.ParseFlags([]string{
		"--poll-interval", "500ms",
		"--adb-path", "/opt/adb",
		"--log-format", "JSON",
		"--no-root",
		"--debug",
	}))

	c := config.Default()
	applyFlagOverrides(rootCmd, c)

	assert.Equal(t, 500*time.Millisecond, c.PollInterval)
	assert.Equal(t, "/opt/adb", c.ADBPath)
	assert.Equal(t, "json", c.LogFormat)
	assert.Equal(t, "debug", c.LogLevel)
	assert.False(t, c.AutoRoot)
	assert.True(t, c.ResolveModel)
	assert.NoError(t, c.Validate())
}

func TestApplyFlagOverrides_UnsetFlagsKeepConfig(t *testing.T) {
	resetFlags(t)
	require.NoError(t, rootCmd.ParseFlags([]string{}))

	c := config.Default()
	c.PollInterval = 7 * time.Second
	c.LogFormat = "json"
	applyFlagOverrides(rootCmd, c)

	assert.Equal(t, 7*time.Second, c.PollInterval)
	assert.Equal(t, "json", c.LogFormat)
	assert.True(t, c.AutoRoot)
}

func TestDevicesCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures require a POSIX shell")
	}

	tests := []struct {
		name   string
		script string
		want   string
	}{
		{
			name:   "lists devices",
			script: "echo 'List of devices attached'\nprintf 'ABC123\\tdevice\\nXYZ\\tunauthorized\\n'",
			want:   "ABC123\tdevice\tauthorized=yes\nXYZ\tunauthorized\tauthorized=no\n",
		},
		{
			name:   "no devices",
			script: "echo 'List of devices attached'",
			want:   "No devices attached\n",
		},
		{
			name:   "adb failure",
			script: "exit 1",
			want:   "No devices attached\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adb := filepath.Join(t.TempDir(), "adb")
			require.NoError(t, os.WriteFile(adb, []byte("#!/bin/sh\n"+tt.script+"\n"), 0755))

			prev := cfg
			t.Cleanup(func() { cfg = prev })
			cfg = config.Default()
			cfg.ADBPath = adb

			var out bytes.Buffer
			devicesCmd.SetOut(&out)
			devicesCmd.SetContext(context.Background())

			require.NoError(t, devicesCmd.RunE(devicesCmd, nil))
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestLogFormatOptsIds(t *testing.T) {
	assert.Equal(t, []string{"text"}, LogFormatOptsIds[TextFormat])
	assert.Equal(t, []string{"json"}, LogFormatOptsIds[JSONFormat])
}
