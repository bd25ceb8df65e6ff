package rtsync

import (
	"sync"
	"time"
)

// waiter is a single parked goroutine. All fields are guarded by the mutex of
// the primitive that owns the waitCond.
type waiter struct {
	ch   chan struct{} // closed on wakeup
	next *waiter
	prev *waiter
}

// waitCond is a condition variable supporting deadline waits, which
// [sync.Cond] does not. Waiters park on per-waiter channels held in a doubly
// linked queue; signal wakes exactly one waiter, broadcast wakes all. The
// zero value is ready to use. Every method requires the owning primitive's
// mutex to be held.
type waitCond struct {
	head *waiter
	tail *waiter
}

func (x *waitCond) push(w *waiter) {
	w.prev = x.tail
	if x.tail == nil {
		x.head = w
	} else {
		x.tail.next = w
	}
	x.tail = w
}

// remove unlinks w if it is still queued, reporting whether it was found. A
// waiter absent from the queue has already been signaled.
func (x *waitCond) remove(w *waiter) bool {
	if w.prev == nil && w.next == nil && x.head != w {
		return false
	}
	if w.prev == nil {
		x.head = w.next
	} else {
		w.prev.next = w.next
	}
	if w.next == nil {
		x.tail = w.prev
	} else {
		w.next.prev = w.prev
	}
	w.prev, w.next = nil, nil
	return true
}

// signal wakes the oldest waiter, if any.
func (x *waitCond) signal() {
	w := x.head
	if w == nil {
		return
	}
	x.head = w.next
	if x.head == nil {
		x.tail = nil
	} else {
		x.head.prev = nil
	}
	w.next = nil
	close(w.ch)
}

// broadcast wakes every waiter. Used on teardown only.
func (x *waitCond) broadcast() {
	for x.head != nil {
		x.signal()
	}
}

// waitFor blocks until pred reports true or the tick window elapses,
// returning whether pred was satisfied. mu must be held on entry and is held
// on return; it is released while parked.
//
// timeoutTicks follows the package-wide convention: 0 reduces to a single
// predicate evaluation, negative waits indefinitely, positive is converted
// via TicksToDuration into an absolute monotonic deadline fixed before the
// first wait (not recomputed on spurious wakeups). On deadline expiry pred is
// evaluated one final time to decide the result.
//
// If counter is non-nil it is incremented for the duration of the call, with
// drain broadcast on entry and exit, so that a deleter blocked on drain can
// observe waiter arrival and departure.
func waitFor(mu *sync.Mutex, cond *waitCond, timeoutTicks int64, pred func() bool, counter *int, drain *waitCond) bool {
	if counter != nil {
		*counter++
		if drain != nil {
			drain.broadcast()
		}
		defer func() {
			*counter--
			if drain != nil {
				drain.broadcast()
			}
		}()
	}

	if timeoutTicks == 0 {
		return pred()
	}

	var deadline time.Time
	if timeoutTicks > 0 {
		deadline = time.Now().Add(TicksToDuration(timeoutTicks))
	}

	// woken tracks whether the most recent wakeup consumed a signal; a
	// consumed signal that goes unused at expiry is forwarded so another
	// waiter is not left sleeping on satisfiable state.
	var woken bool
	for {
		if pred() {
			return true
		}
		if timeoutTicks > 0 && !time.Now().Before(deadline) {
			if woken {
				cond.signal()
			}
			return false
		}

		w := &waiter{ch: make(chan struct{})}
		cond.push(w)
		mu.Unlock()

		if timeoutTicks < 0 {
			<-w.ch
			mu.Lock()
			woken = true
			continue
		}

		timer := time.NewTimer(time.Until(deadline))
		select {
		case <-w.ch:
			timer.Stop()
			mu.Lock()
			woken = true
		case <-timer.C:
			mu.Lock()
			// not found in the queue means a signal raced the timer
			woken = !cond.remove(w)
		}
	}
}
