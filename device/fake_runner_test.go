package device

import (
	"context"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/vexxhost/adb-monitor/common/logging"
)

type fakeResponse struct {
	output []byte
	err    error
}

// fakeRunner answers by joined argument list and records every call
type fakeRunner struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []string
	timeouts  []time.Duration
	combined  []bool
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: make(map[string]fakeResponse)}
}

func (f *fakeRunner) on(args string, output string, err error) *fakeRunner {
	f.responses[args] = fakeResponse{output: []byte(output), err: err}
	return f
}

func (f *fakeRunner) Output(ctx context.Context, timeout time.Duration, args ...string) ([]byte, error) {
	return f.record(false, timeout, args)
}

func (f *fakeRunner) CombinedOutput(ctx context.Context, timeout time.Duration, args ...string) ([]byte, error) {
	return f.record(true, timeout, args)
}

func (f *fakeRunner) record(combined bool, timeout time.Duration, args []string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.Join(args, " ")
	f.calls = append(f.calls, key)
	f.timeouts = append(f.timeouts, timeout)
	f.combined = append(f.combined, combined)

	resp := f.responses[key]
	return resp.output, resp.err
}

func newTestLogger() (*logging.SessionLogger, *logtest.Hook) {
	base, hook := logtest.NewNullLogger()
	base.SetLevel(log.DebugLevel)
	return logging.NewSessionLoggerWithBase("test", base), hook
}

func entriesAt(hook *logtest.Hook, level log.Level) []*log.Entry {
	var out []*log.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
