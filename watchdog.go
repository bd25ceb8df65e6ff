package rtsync

import (
	"sync"
	"time"
)

// Watchdog is a one-shot delay-then-callback timer. Start arms it, Cancel
// disarms it, and an armed watchdog fires its handler exactly once at the
// deadline, on a worker goroutine, outside the watchdog's lock. Restarting
// before the deadline supersedes the previous arming. Instances are safe for
// concurrent use.
//
// The handler carries one opaque integer argument; callers wanting richer
// context encode it into the integer, e.g. as an index into their own table.
type Watchdog struct {
	mu         sync.Mutex
	active     bool
	canceled   bool
	deleted    bool
	generation uint64
	handler    func(arg int)
	arg        int
	deadline   time.Time
	worker     *wdWorker
}

// wdWorker identifies one worker goroutine. Each Start spawns a fresh worker
// with its own wake and completion channels, so a joining Cancel can never
// confuse generations.
type wdWorker struct {
	wake chan struct{}
	done chan struct{}
}

// NewWatchdog creates an idle watchdog: inactive, not canceled, generation 0.
func NewWatchdog() *Watchdog {
	return &Watchdog{}
}

// Start arms the watchdog to invoke fn(arg) once, delayTicks from now,
// canceling any in-flight timer first. fn must be non-nil and delayTicks
// non-negative. The deadline is an absolute monotonic instant computed via
// TicksToDuration, so later clock-rate changes do not move it.
func (x *Watchdog) Start(delayTicks int64, fn func(arg int), arg int) error {
	if fn == nil || delayTicks < 0 {
		return ErrInvalidArgument
	}

	if err := x.Cancel(); err != nil {
		return err
	}
	delay := TicksToDuration(delayTicks)

	x.mu.Lock()
	if x.deleted {
		x.mu.Unlock()
		return ErrDeleted
	}
	x.handler, x.arg = fn, arg
	x.canceled = false
	x.active = true
	x.generation++
	x.deadline = time.Now().Add(delay)
	w := &wdWorker{wake: make(chan struct{}, 1), done: make(chan struct{})}
	x.worker = w
	myGen := x.generation
	deadline := x.deadline
	x.mu.Unlock()

	go x.run(w, myGen, deadline)

	logDebug().
		Str(`primitive`, `watchdog`).
		Uint64(`generation`, myGen).
		Dur(`delay`, delay).
		Log(`armed`)
	return nil
}

// run is the worker. A stale worker woken after a cancel or a newer Start
// sees its captured generation mismatch and exits without firing.
func (x *Watchdog) run(w *wdWorker, myGen uint64, deadline time.Time) {
	defer close(w.done)
	for {
		x.mu.Lock()
		if !x.active || x.canceled || x.generation != myGen {
			x.mu.Unlock()
			return
		}
		d := time.Until(deadline)
		if d <= 0 {
			fn, arg := x.handler, x.arg
			x.active = false // one-shot
			x.mu.Unlock()
			logDebug().
				Str(`primitive`, `watchdog`).
				Uint64(`generation`, myGen).
				Log(`fired`)
			// outside the lock: the handler may re-enter Start/Cancel/Delete
			fn(arg)
			return
		}
		x.mu.Unlock()

		timer := time.NewTimer(d)
		select {
		case <-w.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Cancel disarms the watchdog. When inactive it succeeds as a no-op;
// otherwise it wakes the worker and waits for it to finish, guaranteeing on
// return that the handler of the just-canceled Start will not be invoked.
func (x *Watchdog) Cancel() error {
	x.mu.Lock()
	if x.deleted {
		x.mu.Unlock()
		return ErrDeleted
	}
	if !x.active {
		x.mu.Unlock()
		return nil
	}
	x.canceled = true
	x.active = false
	x.generation++
	w := x.worker
	x.worker = nil
	x.mu.Unlock()

	if w != nil {
		select {
		case w.wake <- struct{}{}:
		default:
		}
		<-w.done
	}

	logDebug().
		Str(`primitive`, `watchdog`).
		Log(`canceled`)
	return nil
}

// Delete cancels any in-flight timer and releases the watchdog; all further
// operations, including a second Delete, fail with ErrDeleted.
func (x *Watchdog) Delete() error {
	if err := x.Cancel(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.deleted {
		return ErrDeleted
	}
	x.deleted = true
	return nil
}
