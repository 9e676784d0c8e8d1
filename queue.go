package tickloop

import (
	"sync/atomic"
)

// runQueue is an intrusive lock-free MPSC stack: any number of producers
// push via CAS on the head, and the single consumer drains by swapping the
// whole list out at once.
//
// Links run through each task's own next field, so the queue performs no
// allocation, ever. A task appears at most once; the queued bit in the task
// state word is the admission ticket (see Task.markQueued), which is what
// keeps the intrusive links single-owner.
//
// PERFORMANCE: The head is cache-line padded; it is the only word producers
// contend on.
type runQueue struct { // betteralign:ignore
	_    [sizeOfCacheLine]byte //nolint:unused
	head atomic.Pointer[Task]
	_    [sizeOfCacheLine - sizeOfPointer]byte //nolint:unused
}

// push adds a task to the queue. The caller must hold the task's queued bit.
// Reports whether the queue was empty, i.e. whether this push is the one
// that must notify the pender.
func (x *runQueue) push(t *Task) (wasEmpty bool) {
	for {
		old := x.head.Load()
		t.next.Store(old)
		if x.head.CompareAndSwap(old, t) {
			return old == nil
		}
	}
}

// drain atomically takes the entire list, leaving the queue empty.
// Producers carry on pushing onto the fresh list; entries pushed after the
// swap are seen by the next drain. The returned snapshot is in reverse push
// order and owned exclusively by the caller.
func (x *runQueue) drain() *Task {
	return x.head.Swap(nil)
}

// empty reports whether the queue currently has no entries. Racy by nature;
// used only as a block-avoidance check after the executor announces it is
// about to wait.
func (x *runQueue) empty() bool {
	return x.head.Load() == nil
}

// reverseTaskList reverses a drained snapshot in place, restoring push
// order. Safe because every snapshot member still has its queued bit set,
// so no producer can touch its link concurrently.
func reverseTaskList(head *Task) *Task {
	var prev *Task
	for head != nil {
		next := head.next.Load()
		head.next.Store(prev)
		prev = head
		head = next
	}
	return prev
}
