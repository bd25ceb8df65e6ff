package rtsync

import (
	"sync"
)

type semKind uint8

const (
	semBinary semKind = iota
	semCounting
	semMutex
)

// Sem is a semaphore. One handle type covers the binary, counting, and mutex
// variants; the constructor chooses the behavior. All variants expose the
// same Take/Give/Delete surface and are safe for concurrent use.
//
// The mutex variant tracks the owning goroutine and a recursion depth: the
// owner may re-Take without blocking, and must balance every Take with a
// Give. Only the owner may Give, and ownership is not transferable. There is
// no priority inheritance.
type Sem struct {
	mu   sync.Mutex
	cond waitCond

	kind  semKind
	valid bool

	count int    // binary: 0 or 1; counting: >= 0
	owner uint64 // mutex: owning goroutine ID, 0 when unowned
	depth int    // mutex: recursion depth
}

// NewBinarySem creates a binary semaphore, initially available or not. Give
// saturates at available; a binary semaphore never accumulates a count.
func NewBinarySem(available bool) *Sem {
	x := &Sem{kind: semBinary, valid: true}
	if available {
		x.count = 1
	}
	return x
}

// NewCountingSem creates a counting semaphore with the given initial count,
// which must be non-negative. There is no upper bound.
func NewCountingSem(initial int) (*Sem, error) {
	if initial < 0 {
		return nil, ErrInvalidArgument
	}
	return &Sem{kind: semCounting, valid: true, count: initial}, nil
}

// NewMutexSem creates an unowned mutual-exclusion semaphore.
func NewMutexSem() *Sem {
	return &Sem{kind: semMutex, valid: true}
}

// Take acquires the semaphore: binary and counting variants block until the
// count is positive then decrement it; the mutex variant blocks until
// unowned then records the calling goroutine as owner, or increments the
// recursion depth when the owner re-takes. Blocking follows timeoutTicks,
// failing with ErrTimeout on expiry without disturbing the count, and with
// ErrDeleted if the semaphore is deleted during the wait.
func (x *Sem) Take(timeoutTicks int64) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.valid {
		return ErrDeleted
	}

	if x.kind == semMutex {
		gid := getGoroutineID()
		if x.owner == gid {
			x.depth++
			return nil
		}
		ok := waitFor(&x.mu, &x.cond, timeoutTicks, func() bool {
			return !x.valid || x.owner == 0
		}, nil, nil)
		if !ok {
			return ErrTimeout
		}
		if !x.valid {
			return ErrDeleted
		}
		x.owner, x.depth = gid, 1
		return nil
	}

	ok := waitFor(&x.mu, &x.cond, timeoutTicks, func() bool {
		return !x.valid || x.count > 0
	}, nil, nil)
	if !ok {
		return ErrTimeout
	}
	if !x.valid {
		return ErrDeleted
	}
	x.count--
	return nil
}

// Give releases the semaphore. Binary: sets available and wakes one taker
// (no effect when already available). Counting: increments the count and
// wakes one taker. Mutex: fails with ErrNotOwner unless called by the owner;
// decrements the recursion depth, releasing and waking one taker at zero.
func (x *Sem) Give() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.valid {
		return ErrDeleted
	}

	switch x.kind {
	case semBinary:
		if x.count == 0 {
			x.count = 1
			x.cond.signal()
		}
	case semCounting:
		x.count++
		x.cond.signal()
	case semMutex:
		if x.owner != getGoroutineID() {
			return ErrNotOwner
		}
		x.depth--
		if x.depth == 0 {
			x.owner = 0
			x.cond.signal()
		}
	}
	return nil
}

// Delete invalidates the semaphore; subsequent operations fail with
// ErrDeleted, as does deleting twice. Unlike the mailbox, Delete does not
// wait for blocked takers to depart (they are woken and fail with
// ErrDeleted); the caller is responsible for quiescence.
func (x *Sem) Delete() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.valid {
		return ErrDeleted
	}
	x.valid = false
	x.cond.broadcast()
	return nil
}
