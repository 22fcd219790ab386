package watch

import (
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitruvius-tools/ums-hooks/internal/lock"
	"github.com/vitruvius-tools/ums-hooks/internal/logging"
	"github.com/vitruvius-tools/ums-hooks/internal/trigger"
)

func testLogger() *logging.Logger {
	return logging.New(io.Discard, "test", logging.LevelDebug)
}

func TestBase_StartStop_IdempotentAndLeakFree(t *testing.T) {
	var ticks int64
	b := New(trigger.Kind("t"), 10*time.Millisecond, "", func() (bool, error) {
		atomic.AddInt64(&ticks, 1)
		return false, nil
	}, testLogger(), lock.NewMutexMap())

	b.Start()
	b.Start() // no-op
	require.Eventually(t, func() bool { return atomic.LoadInt64(&ticks) > 0 }, time.Second, 5*time.Millisecond)

	b.Stop()
	assert.False(t, b.Running())
	b.Stop() // no-op, must not hang or panic

	countAfterStop := atomic.LoadInt64(&ticks)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, countAfterStop, atomic.LoadInt64(&ticks), "no ticks after Stop")
}

func TestBase_SurvivesTickError(t *testing.T) {
	var ticks int64
	b := New(trigger.Kind("t"), 5*time.Millisecond, "", func() (bool, error) {
		atomic.AddInt64(&ticks, 1)
		return false, errors.New("boom")
	}, testLogger(), lock.NewMutexMap())

	b.Start()
	require.Eventually(t, func() bool { return atomic.LoadInt64(&ticks) >= 3 }, time.Second, 5*time.Millisecond)
	assert.True(t, b.Running())
	b.Stop()
}

func TestBase_SurvivesTickPanic(t *testing.T) {
	var ticks int64
	b := New(trigger.Kind("t"), 5*time.Millisecond, "", func() (bool, error) {
		atomic.AddInt64(&ticks, 1)
		panic("handler bug")
	}, testLogger(), lock.NewMutexMap())

	b.Start()
	require.Eventually(t, func() bool { return atomic.LoadInt64(&ticks) >= 3 }, time.Second, 5*time.Millisecond)
	assert.True(t, b.Running())
	b.Stop()
}

func TestBase_LastTriggerAtSetOnlyWhenAccepted(t *testing.T) {
	accept := make(chan bool, 1)
	b := New(trigger.Kind("t"), 5*time.Millisecond, "", func() (bool, error) {
		select {
		case a := <-accept:
			return a, nil
		default:
			return false, nil
		}
	}, testLogger(), lock.NewMutexMap())

	b.Start()
	assert.True(t, b.LastTriggerAt().IsZero())

	accept <- true
	require.Eventually(t, func() bool { return !b.LastTriggerAt().IsZero() }, time.Second, 5*time.Millisecond)
	b.Stop()
}

func TestBase_ConcurrentStartStop_EndsStopped(t *testing.T) {
	b := New(trigger.Kind("t"), 5*time.Millisecond, "", func() (bool, error) { return false, nil }, testLogger(), lock.NewMutexMap())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			b.Start()
		}
		close(done)
	}()
	<-done
	b.Stop()
	assert.False(t, b.Running())
}
