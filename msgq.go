package rtsync

import (
	"sync"
)

// Ordering selects how a message queue orders its messages for Receive.
type Ordering int

const (
	// FIFO dequeues messages strictly in arrival order; per-send priorities
	// are stored but ignored.
	FIFO Ordering = iota

	// PriorityOrder dequeues the numerically smallest priority first, with
	// arrival order preserved among equal priorities.
	PriorityOrder
)

// MsgQ is a bounded message queue: a mailbox with a per-send priority and a
// selectable ordering mode. Instances must be created via NewMsgQ, are safe
// for concurrent use by any number of goroutines, and remain usable until
// Delete.
type MsgQ struct {
	mu      sync.Mutex
	canSend waitCond
	canRecv waitCond
	drain   waitCond

	maxMsgs int
	maxLen  int
	order   Ordering

	valid       bool
	count       int
	sendWaiters int
	recvWaiters int
	head, tail  *msgNode
}

// NewMsgQ creates a message queue holding at most maxMsgs messages of at most
// maxLen bytes each, both positive, dequeued per order.
func NewMsgQ(maxMsgs, maxLen int, order Ordering) (*MsgQ, error) {
	if maxMsgs <= 0 || maxLen <= 0 {
		return nil, ErrInvalidArgument
	}
	if order != FIFO && order != PriorityOrder {
		return nil, ErrInvalidArgument
	}
	return &MsgQ{
		maxMsgs: maxMsgs,
		maxLen:  maxLen,
		order:   order,
		valid:   true,
	}, nil
}

// Send copies data into the queue, truncating to the per-message cap, and
// wakes one blocked receiver. priority must be non-negative; lower numbers
// are higher priority. In PriorityOrder mode the message is inserted before
// the first queued message of strictly greater priority, so equal priorities
// retain arrival order. While the queue is full it blocks per timeoutTicks,
// failing with ErrTimeout on expiry and ErrDeleted if the queue is deleted
// before or during the wait.
func (x *MsgQ) Send(data []byte, priority int, timeoutTicks int64) error {
	if priority < 0 {
		return ErrInvalidArgument
	}

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
	node := &msgNode{data: append([]byte(nil), data[:n]...), prio: priority}
	x.insert(node)
	x.count++

	x.canRecv.signal()
	return nil
}

// insert links node into the chain per the ordering mode, maintaining the
// tail pointer so appends (FIFO, and equal-or-lower priority in priority
// mode) stay O(1).
func (x *MsgQ) insert(node *msgNode) {
	if x.order == FIFO || x.tail == nil || x.tail.prio <= node.prio {
		if x.tail == nil {
			x.head, x.tail = node, node
		} else {
			x.tail.next = node
			x.tail = node
		}
		return
	}

	// walk to the first node with strictly greater priority
	var prev *msgNode
	cur := x.head
	for cur != nil && cur.prio <= node.prio {
		prev, cur = cur, cur.next
	}
	node.next = cur
	if prev == nil {
		x.head = node
	} else {
		prev.next = node
	}
	if node.next == nil {
		x.tail = node
	}
}

// Receive removes the head message (in PriorityOrder mode, the smallest
// priority currently queued), copies up to len(buf) bytes of it into buf, and
// wakes one blocked sender. It returns the number of bytes copied and the
// full stored length; a nil or empty buf still pops the message. While the
// queue is empty it blocks per timeoutTicks, failing with ErrTimeout on
// expiry and ErrDeleted if the queue is deleted before or during the wait.
func (x *MsgQ) Receive(buf []byte, timeoutTicks int64) (n, stored int, err error) {
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

// Delete invalidates the queue, releases every blocked sender and receiver
// (each fails with ErrDeleted), waits for them to depart, then discards all
// queued messages. Deleting twice fails with ErrDeleted.
func (x *MsgQ) Delete() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.valid {
		return ErrDeleted
	}
	x.valid = false
	x.canSend.broadcast()
	x.canRecv.broadcast()

	waitFor(&x.mu, &x.drain, WaitForever, func() bool {
		return x.sendWaiters == 0 && x.recvWaiters == 0
	}, nil, nil)

	dropped := x.count
	x.head, x.tail, x.count = nil, nil, 0

	logDebug().
		Str(`primitive`, `msgq`).
		Int(`dropped`, dropped).
		Log(`deleted`)
	return nil
}
