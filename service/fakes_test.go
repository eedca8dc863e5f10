package service

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/vexxhost/adb-monitor/common/logging"
	"github.com/vexxhost/adb-monitor/models"
)

// scriptedLister returns one scripted poll per call, then repeats the last one
type scriptedLister struct {
	mu    sync.Mutex
	polls [][]models.DeviceRecord
	calls int
	panic bool
}

func (l *scriptedLister) ListDevices(ctx context.Context) []models.DeviceRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.panic {
		panic("lister exploded")
	}
	if len(l.polls) == 0 {
		return []models.DeviceRecord{}
	}
	poll := l.polls[0]
	if len(l.polls) > 1 {
		l.polls = l.polls[1:]
	}
	return poll
}

func (l *scriptedLister) push(records ...models.DeviceRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.polls = [][]models.DeviceRecord{records}
}

type fakeElevator struct {
	mu     sync.Mutex
	result models.RootResult
	calls  []string
}

func (e *fakeElevator) RestartAsRoot(ctx context.Context, serial string) models.RootResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, serial)
	return e.result
}

func (e *fakeElevator) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

type fakeResolver struct {
	models map[string]string
	calls  int
}

func (r *fakeResolver) ModelName(ctx context.Context, serial string) string {
	r.calls++
	if m, ok := r.models[serial]; ok {
		return m
	}
	return serial
}

type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.calls = append(s.calls, d)
	s.mu.Unlock()
	return ctx.Err()
}

func rec(serial string, state models.DeviceState) models.DeviceRecord {
	return models.DeviceRecord{Serial: serial, State: state}
}

func newTestSession() (*logging.SessionLogger, *logtest.Hook) {
	base, hook := logtest.NewNullLogger()
	base.SetLevel(log.DebugLevel)
	return logging.NewSessionLoggerWithBase("test", base), hook
}
