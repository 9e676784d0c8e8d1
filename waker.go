package tickloop

// Waker re-enqueues a task for polling. It is a trivially copyable,
// comparable value; copies are interchangeable and cheap, and drivers may
// use wakers as map keys to deduplicate schedules.
//
// Wakers stay valid forever: task slots have executor lifetime, so a waker
// held past its task's completion degrades to a no-op (or, if the slot was
// reused, a spurious wake, which futures must tolerate anyway). There is no
// reference counting and no cleanup obligation.
type Waker struct {
	task *Task
}

// IsZero reports whether the waker is the zero value, whose Wake is a no-op.
func (x Waker) IsZero() bool {
	return x.task == nil
}

// Wake enqueues the task for another poll and, when the push transitioned
// the run queue from empty to non-empty, notifies the executor's pender.
//
// Safe from any goroutine and any context: it is lock-free, non-blocking,
// and performs no allocation. Waking a task that is already queued, or one
// that has completed, is a no-op. Waking a task that is mid-poll marks it
// to be polled again on the next pass.
func (x Waker) Wake() {
	t := x.task
	if t == nil || !t.markQueued() {
		return
	}
	m := t.x.metrics
	if m != nil {
		m.wakes.Add(1)
	}
	if t.x.queue.push(t) {
		if m != nil {
			m.notifies.Add(1)
		}
		t.x.pender.Notify()
	}
}
