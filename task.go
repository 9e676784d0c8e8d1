package tickloop

import (
	"strconv"
	"sync/atomic"
)

// Task state word bits. A clear word is a dormant (free) slot. A word with
// only the queued bit set is a tombstone: the task completed while a stale
// run-queue entry for it was still in flight, and the slot stays
// unclaimable until the drain consumes that entry.
//
// The conceptual lifecycle is Dormant → Spawned → Queued → Running and back
// around; TimerQueued tracks membership in a driver's deadline queue and
// composes with the others.
const (
	// taskSpawned is set while the slot holds a live future.
	taskSpawned uint32 = 1 << iota
	// taskQueued is set while the task is in the run queue. It guarantees
	// at-most-once queue membership: wakes while it is set are no-ops.
	taskQueued
	// taskRunning is set while the executor is inside the future's Poll.
	taskRunning
	// taskTimerQueued is set while an in-package driver holds a deadline
	// entry for the task, deduplicating repeat schedules.
	taskTimerQueued
)

// Task is one slot of an executor's fixed pool. Its address is stable for
// the life of the executor, which is what makes the intrusive run-queue
// link and the raw-pointer [Waker] sound.
//
// All fields except the atomics follow a single-writer discipline: future
// is written by the spawner before the task is published and by the
// executor at completion; everything else is set once at construction.
type Task struct {
	// Prevent copying
	_ [0]func()

	state atomic.Uint32

	// next is the intrusive run-queue link. It is owned by whoever holds
	// the queued bit: the pushing producer writes it, and the draining
	// executor reads it from the swapped-out snapshot.
	next atomic.Pointer[Task]

	future Future
	x      *Executor
	slot   int
}

// claim transitions a dormant slot directly to spawned+queued.
//
// Setting both bits in one CAS closes a slot-reuse hazard: a stale waker
// from the slot's previous life that fires between claim and the initial
// enqueue observes the queued bit and backs off, so the initial push is the
// only push. CAS-from-zero also refuses tombstoned slots (see complete),
// whose stale queue entry would otherwise be joined by a second push of
// the same task.
func (x *Task) claim() bool {
	return x.state.CompareAndSwap(0, taskSpawned|taskQueued)
}

// markQueued sets the queued bit, reporting whether the caller acquired the
// right (and obligation) to push the task onto the run queue. Returns false
// when the task is dormant or already queued.
func (x *Task) markQueued() bool {
	for {
		s := x.state.Load()
		if s&taskSpawned == 0 || s&taskQueued != 0 {
			return false
		}
		if x.state.CompareAndSwap(s, s|taskQueued) {
			return true
		}
	}
}

// beginPoll consumes a run-queue entry: it clears the queued bit and sets
// running, returning false for stale entries (the task completed after the
// entry was pushed). Consuming a tombstone clears the whole word, releasing
// the slot for reuse now that nothing references it. Clearing queued before
// the poll is what lets a wake that lands mid-poll re-enqueue the task for
// the next pass.
func (x *Task) beginPoll() bool {
	for {
		s := x.state.Load()
		if s&taskSpawned == 0 {
			if s&taskQueued != 0 && !x.state.CompareAndSwap(s, 0) {
				continue
			}
			return false
		}
		if s&taskQueued == 0 {
			return false
		}
		if x.state.CompareAndSwap(s, (s&^taskQueued)|taskRunning) {
			return true
		}
	}
}

// endPoll clears the running bit, preserving any queued/timer bits that
// arrived during the poll.
func (x *Task) endPoll() {
	x.state.And(^taskRunning)
}

// complete releases the slot, preserving the queued bit as a tombstone: a
// wake that landed mid-poll already pushed this task onto the live queue,
// and wiping the word would let claim hand the slot (and the same list
// link) to a fresh spawn while that entry still references it. The
// tombstone keeps claim's CAS-from-zero failing until the drain consumes
// the stale entry (see beginPoll), which is what holds the at-most-once
// queue membership invariant across slot reuse. Timer and running bits are
// discarded; stale driver schedules degrade to spurious wakes.
func (x *Task) complete() {
	x.future = nil
	x.state.And(taskQueued)
}

// markTimerQueued sets the timer-queued bit, reporting whether the caller
// should insert a fresh deadline entry (true) or find and update an
// existing one (false). Also false for dormant slots; scheduling those is
// harmless, at worst a spurious wake.
func (x *Task) markTimerQueued() bool {
	for {
		s := x.state.Load()
		if s&taskSpawned == 0 || s&taskTimerQueued != 0 {
			return false
		}
		if x.state.CompareAndSwap(s, s|taskTimerQueued) {
			return true
		}
	}
}

// clearTimerQueued drops the timer-queued bit, called by drivers when the
// entry fires or is discarded.
func (x *Task) clearTimerQueued() {
	x.state.And(^taskTimerQueued)
}

// stateString renders the state word for logs and debugging, e.g.
// "Spawned|Queued". A dormant slot renders as "Dormant".
func taskStateString(s uint32) string {
	if s == 0 {
		return "Dormant"
	}
	var b []byte
	appendBit := func(bit uint32, name string) {
		if s&bit == 0 {
			return
		}
		if len(b) > 0 {
			b = append(b, '|')
		}
		b = append(b, name...)
	}
	appendBit(taskSpawned, "Spawned")
	appendBit(taskQueued, "Queued")
	appendBit(taskRunning, "Running")
	appendBit(taskTimerQueued, "TimerQueued")
	return string(b)
}

// String implements [fmt.Stringer], for debugging.
func (x *Task) String() string {
	if x == nil {
		return "task(nil)"
	}
	return "task(slot=" + strconv.Itoa(x.slot) + ", state=" + taskStateString(x.state.Load()) + ")"
}
