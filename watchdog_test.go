package rtsync

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchdog_invalidArguments(t *testing.T) {
	wd := NewWatchdog()
	defer wd.Delete()

	require.ErrorIs(t, wd.Start(10, nil, 0), ErrInvalidArgument)
	require.ErrorIs(t, wd.Start(-1, func(int) {}, 0), ErrInvalidArgument)
}

func TestWatchdog_firesOnce(t *testing.T) {
	defer func() { _ = SetClockRate(DefaultClockRate) }()
	require.NoError(t, SetClockRate(100))

	wd := NewWatchdog()
	defer wd.Delete()

	var fired atomic.Int32
	gotArg := make(chan int, 1)
	require.NoError(t, wd.Start(5, func(arg int) { // 50ms
		fired.Add(1)
		gotArg <- arg
	}, 42))

	select {
	case arg := <-gotArg:
		assert.Equal(t, 42, arg)
	case <-time.After(time.Second):
		t.Fatal("watchdog never fired")
	}

	// one-shot: no second invocation
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())

	// a fired watchdog is idle; Cancel is a no-op
	require.NoError(t, wd.Cancel())
}

func TestWatchdog_cancelSuppresses(t *testing.T) {
	defer func() { _ = SetClockRate(DefaultClockRate) }()
	require.NoError(t, SetClockRate(100))

	wd := NewWatchdog()
	defer wd.Delete()

	var fired atomic.Int32
	require.NoError(t, wd.Start(10, func(int) { fired.Add(1) }, 0)) // 100ms

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, wd.Cancel())

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, fired.Load(), "canceled watchdog must not fire")
}

func TestWatchdog_cancelIdleIsNoOp(t *testing.T) {
	wd := NewWatchdog()
	defer wd.Delete()

	require.NoError(t, wd.Cancel())
	require.NoError(t, wd.Cancel())
}

func TestWatchdog_restartSupersedes(t *testing.T) {
	defer func() { _ = SetClockRate(DefaultClockRate) }()
	require.NoError(t, SetClockRate(100))

	wd := NewWatchdog()
	defer wd.Delete()

	fired := make(chan int, 2)
	require.NoError(t, wd.Start(5, func(arg int) { fired <- arg }, 1)) // 50ms

	time.Sleep(10 * time.Millisecond)
	start := time.Now()
	require.NoError(t, wd.Start(10, func(arg int) { fired <- arg }, 2)) // 100ms from now

	select {
	case arg := <-fired:
		assert.Equal(t, 2, arg, "only the superseding handler may fire")
		elapsed := time.Since(start)
		assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond, "restart must reset the deadline")
	case <-time.After(time.Second):
		t.Fatal("restarted watchdog never fired")
	}

	select {
	case arg := <-fired:
		t.Fatalf("superseded handler fired with arg %d", arg)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatchdog_handlerRestartsSelf(t *testing.T) {
	defer func() { _ = SetClockRate(DefaultClockRate) }()
	require.NoError(t, SetClockRate(100))

	wd := NewWatchdog()
	defer wd.Delete()

	const want = 3
	done := make(chan struct{})
	var handler func(arg int)
	handler = func(arg int) {
		if arg >= want {
			close(done)
			return
		}
		if err := wd.Start(2, handler, arg+1); err != nil {
			t.Errorf("restart from handler: %v", err)
			close(done)
		}
	}
	require.NoError(t, wd.Start(2, handler, 1))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("self-retriggering watchdog stalled")
	}
}

func TestWatchdog_zeroDelayFiresImmediately(t *testing.T) {
	wd := NewWatchdog()
	defer wd.Delete()

	fired := make(chan struct{})
	require.NoError(t, wd.Start(0, func(int) { close(fired) }, 0))

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("zero-delay watchdog never fired")
	}
}

func TestWatchdog_deadlineFixedAtStart(t *testing.T) {
	defer func() { _ = SetClockRate(DefaultClockRate) }()
	require.NoError(t, SetClockRate(100))

	wd := NewWatchdog()
	defer wd.Delete()

	fired := make(chan struct{})
	require.NoError(t, wd.Start(10, func(int) { close(fired) }, 0)) // 100ms at rate 100

	require.NoError(t, SetClockRate(1)) // would be 10s if recomputed

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("deadline was recomputed from the new clock rate")
	}
}

func TestWatchdog_delete(t *testing.T) {
	defer func() { _ = SetClockRate(DefaultClockRate) }()
	require.NoError(t, SetClockRate(100))

	wd := NewWatchdog()

	var fired atomic.Int32
	require.NoError(t, wd.Start(10, func(int) { fired.Add(1) }, 0))

	require.NoError(t, wd.Delete())
	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, fired.Load(), "delete must suppress the pending handler")

	require.ErrorIs(t, wd.Delete(), ErrDeleted)
	require.ErrorIs(t, wd.Start(1, func(int) {}, 0), ErrDeleted)
	require.ErrorIs(t, wd.Cancel(), ErrDeleted)
}

func TestWatchdog_cancelJoinsWorker(t *testing.T) {
	defer func() { _ = SetClockRate(DefaultClockRate) }()
	require.NoError(t, SetClockRate(100))

	wd := NewWatchdog()
	defer wd.Delete()

	// repeated arm/cancel cycles; after each Cancel returns the handler of
	// that cycle is guaranteed dead, so the counter must stay at zero
	var fired atomic.Int32
	for i := 0; i < 20; i++ {
		require.NoError(t, wd.Start(50, func(int) { fired.Add(1) }, i))
		require.NoError(t, wd.Cancel())
		require.Zero(t, fired.Load())
	}
}
