// Package rtsync provides task-coordination primitives in the style of a
// classic real-time kernel API, re-hosted on ordinary goroutines. It exists
// for application code written against such a kernel, preserving the original
// blocking, timeout, and ordering semantics: a process-wide tick source with
// a configurable rate, bounded byte-copying mailboxes, message queues with
// FIFO or priority ordering, a semaphore family (binary, counting, mutex),
// and one-shot watchdog timers.
//
// All blocking operations accept a timeout denominated in ticks. A timeout of
// 0 polls without blocking, WaitForever blocks indefinitely, and a positive
// value is converted to a duration via the tick source (see TicksToDuration).
package rtsync
