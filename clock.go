package rtsync

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultClockRate is the tick rate assumed until SetClockRate is called.
const DefaultClockRate = 60

// Timeout values accepted by every blocking operation. Any negative value
// behaves as WaitForever; any positive value is a relative tick count.
const (
	// NoWait polls: the operation observes current state and returns without
	// ever blocking.
	NoWait int64 = 0

	// WaitForever blocks until the condition is satisfied or the primitive
	// is deleted.
	WaitForever int64 = -1
)

// clockState is the only process-wide mutable state in the package. The rate
// and tick counter are plain atomics; runMu guards only the announcer
// goroutine lifecycle.
var clockState struct {
	rate   atomic.Int64
	count  atomic.Uint64
	origin time.Time

	runMu sync.Mutex
	stop  chan struct{}
	done  chan struct{}
}

func init() {
	clockState.rate.Store(DefaultClockRate)
	clockState.origin = time.Now()
}

// ClockRate returns the current tick rate, in ticks per second.
func ClockRate() int {
	return int(clockState.rate.Load())
}

// SetClockRate updates the tick rate, in ticks per second. Deadlines already
// computed from the previous rate are unaffected.
func SetClockRate(rate int) error {
	if rate <= 0 {
		return ErrInvalidArgument
	}
	clockState.rate.Store(int64(rate))
	return nil
}

// TicksToDuration converts a tick count to a duration, as a whole number of
// milliseconds, truncating. It is the single authority for this conversion:
// every operation accepting a tick timeout obtains its wait window this way.
//
// Note that at rates above 1000 Hz small tick counts truncate to zero, which
// blocking operations still treat as a finite (immediate) wait.
func TicksToDuration(ticks int64) time.Duration {
	return time.Duration(ticks*1000/clockState.rate.Load()) * time.Millisecond
}

// TickCount returns the current value of the tick counter. The counter only
// advances via AnnounceTick, typically from the background announcer (see
// StartClock).
func TickCount() uint64 {
	return clockState.count.Load()
}

// SetTickCount overwrites the tick counter.
func SetTickCount(ticks uint64) {
	clockState.count.Store(ticks)
}

// AnnounceTick advances the tick counter by one.
func AnnounceTick() {
	clockState.count.Add(1)
}

// TicksSinceStart returns the elapsed monotonic time since process start,
// expressed in ticks at the current rate.
func TicksSinceStart() uint64 {
	period := time.Second / time.Duration(clockState.rate.Load())
	return uint64(time.Since(clockState.origin) / period)
}

// StartClock launches the background announcer, which calls AnnounceTick once
// per tick period. Rate changes take effect on the next period. Starting an
// already-running clock is a no-op success.
func StartClock() error {
	clockState.runMu.Lock()
	defer clockState.runMu.Unlock()
	if clockState.stop != nil {
		return nil
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	clockState.stop, clockState.done = stop, done
	go announceLoop(stop, done)
	return nil
}

// StopClock stops the background announcer and waits for it to exit. Stopping
// a stopped clock is a no-op.
func StopClock() {
	clockState.runMu.Lock()
	defer clockState.runMu.Unlock()
	if clockState.stop == nil {
		return
	}
	close(clockState.stop)
	<-clockState.done
	clockState.stop, clockState.done = nil, nil
}

func announceLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		// re-read the rate each period so SetClockRate takes effect
		timer := time.NewTimer(time.Second / time.Duration(clockState.rate.Load()))
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
			AnnounceTick()
		}
	}
}
