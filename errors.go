package rtsync

import (
	"errors"
)

var (
	// ErrInvalidArgument indicates a nil handler, non-positive capacity or
	// rate, negative delay, or similar caller error.
	ErrInvalidArgument = errors.New(`rtsync: invalid argument`)

	// ErrTimeout indicates the requested condition was not satisfied within
	// the tick window, including the poll (zero timeout) case.
	ErrTimeout = errors.New(`rtsync: timed out`)

	// ErrDeleted indicates the primitive was deleted, either before the call
	// or while the caller was blocked inside it.
	ErrDeleted = errors.New(`rtsync: primitive deleted`)

	// ErrNotOwner indicates an attempt to give a mutex semaphore from a
	// goroutine that does not hold it.
	ErrNotOwner = errors.New(`rtsync: not owner`)
)
