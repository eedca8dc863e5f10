package service

import "errors"

var (
	// ErrMonitorRunning is returned by Start when the loop is already running.
	ErrMonitorRunning = errors.New("monitor already running")

	// ErrMonitorNotRunning is returned by Stop when the loop was never started.
	ErrMonitorNotRunning = errors.New("monitor not running")
)
