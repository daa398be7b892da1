package goroutine

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Errorf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

func TestRun_RecoversPanic(t *testing.T) {
	log := &recordingLogger{}
	rh := NewRecoveryHandler(log)

	err := rh.Run("dispatch", func() { panic("boom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatch")
	require.Equal(t, 1, log.count())
	assert.Contains(t, log.lines[0], "boom")
}

func TestRun_NoPanic(t *testing.T) {
	log := &recordingLogger{}
	rh := NewRecoveryHandler(log)

	called := false
	assert.NoError(t, rh.Run("dispatch", func() { called = true }))
	assert.True(t, called)
	assert.Zero(t, log.count())
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	log := &recordingLogger{}
	rh := NewRecoveryHandler(log)

	done := make(chan struct{})
	rh.SafeGo("job", func() {
		defer close(done)
		panic("boom")
	})
	<-done
	assert.Eventually(t, func() bool { return log.count() == 1 }, time.Second, 10*time.Millisecond)
}
