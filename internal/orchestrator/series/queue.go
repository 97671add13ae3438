package series

import "sync/atomic"

// Queue is the bounded handoff between the capture goroutine and the store.
// Neither side ever blocks.
type Queue struct {
	ch      chan Reading
	dropped atomic.Uint64
}

func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{ch: make(chan Reading, capacity)}
}

// TryPush enqueues r, or counts it as dropped when the queue is full.
func (q *Queue) TryPush(r Reading) bool {
	select {
	case q.ch <- r:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// TryPop dequeues one reading if available.
func (q *Queue) TryPop() (Reading, bool) {
	select {
	case r := <-q.ch:
		return r, true
	default:
		return Reading{}, false
	}
}

func (q *Queue) Len() int { return len(q.ch) }
func (q *Queue) Cap() int { return cap(q.ch) }

// Dropped reports how many readings were discarded because the queue was full.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }
