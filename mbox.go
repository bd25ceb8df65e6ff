package rtsync

import (
	"sync"
)

// msgNode is a single queued message. The owning queue holds the node and its
// buffer absolutely; neither ever escapes to callers.
type msgNode struct {
	next *msgNode
	data []byte
	prio int // message queues only; mailboxes leave it zero
}

// Mbox is a bounded queue of variable-length byte messages. Messages are
// copied in on Send and out on Receive, strictly first-in-first-out.
// Producers block while full, consumers while empty. Instances must be
// created via NewMbox, are safe for concurrent use by any number of
// goroutines, and remain usable until Delete.
type Mbox struct {
	mu      sync.Mutex
	canSend waitCond
	canRecv waitCond
	drain   waitCond // pulsed as waiter counts change

	maxMsgs int
	maxLen  int

	valid       bool
	count       int
	sendWaiters int
	recvWaiters int
	head, tail  *msgNode
}

// NewMbox creates a mailbox holding at most maxMsgs messages of at most
// maxLen bytes each. Both must be positive.
func NewMbox(maxMsgs, maxLen int) (*Mbox, error) {
	if maxMsgs <= 0 || maxLen <= 0 {
		return nil, ErrInvalidArgument
	}
	return &Mbox{
		maxMsgs: maxMsgs,
		maxLen:  maxLen,
		valid:   true,
	}, nil
}

// Send copies data into the mailbox, truncating to the per-message cap, and
// wakes one blocked receiver. While the mailbox is full it blocks per
// timeoutTicks, failing with ErrTimeout on expiry (or immediately, when
// polling) and ErrDeleted if the mailbox is deleted before or during the
// wait.
func (x *Mbox) Send(data []byte, timeoutTicks int64) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.valid {
		return ErrDeleted
	}

	ok := waitFor(&x.mu, &x.canSend, timeoutTicks, func() bool {
		return !x.valid || x.count < x.maxMsgs
	}, &x.sendWaiters, &x.drain)
	if !ok {
		return ErrTimeout
	}
	if !x.valid {
		return ErrDeleted
	}

	n := len(data)
	if n > x.maxLen {
		n = x.maxLen
	}
	node := &msgNode{data: append([]byte(nil), data[:n]...)}
	if x.tail == nil {
		x.head, x.tail = node, node
	} else {
		x.tail.next = node
		x.tail = node
	}
	x.count++

	x.canRecv.signal()
	return nil
}

// Receive removes the oldest message, copies up to len(buf) bytes of it into
// buf, and wakes one blocked sender. It returns the number of bytes copied
// and the full stored length of the message, so stored > n indicates the
// caller's buffer was too small. A nil or empty buf still pops the message
// and reports its length. While the mailbox is empty it blocks per
// timeoutTicks, failing with ErrTimeout on expiry and ErrDeleted if the
// mailbox is deleted before or during the wait.
func (x *Mbox) Receive(buf []byte, timeoutTicks int64) (n, stored int, err error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.valid {
		return 0, 0, ErrDeleted
	}

	ok := waitFor(&x.mu, &x.canRecv, timeoutTicks, func() bool {
		return !x.valid || x.count > 0
	}, &x.recvWaiters, &x.drain)
	if !ok {
		return 0, 0, ErrTimeout
	}
	if !x.valid {
		return 0, 0, ErrDeleted
	}

	node := x.head
	x.head = node.next
	if x.head == nil {
		x.tail = nil
	}
	x.count--

	stored = len(node.data)
	n = copy(buf, node.data)

	x.canSend.signal()
	return n, stored, nil
}

// Delete invalidates the mailbox, releases every blocked sender and receiver
// (each fails with ErrDeleted), waits for them to depart, then discards all
// queued messages. Deleting twice fails with ErrDeleted. No other operation
// is legal once Delete has been called.
func (x *Mbox) Delete() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.valid {
		return ErrDeleted
	}
	x.valid = false
	x.canSend.broadcast()
	x.canRecv.broadcast()

	// waiters observe invalidity and depart before the chain is dropped
	waitFor(&x.mu, &x.drain, WaitForever, func() bool {
		return x.sendWaiters == 0 && x.recvWaiters == 0
	}, nil, nil)

	dropped := x.count
	x.head, x.tail, x.count = nil, nil, 0

	logDebug().
		Str(`primitive`, `mbox`).
		Int(`dropped`, dropped).
		Log(`deleted`)
	return nil
}
