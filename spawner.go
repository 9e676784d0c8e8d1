package tickloop

import (
	"strconv"
)

// Spawner places futures onto an executor's slot pool. It is a copyable
// value handle, safe for concurrent use from any goroutine.
type Spawner struct {
	x *Executor
}

// Spawn claims a free slot for f and enqueues its first poll.
//
// Capacity is fixed: when every slot is live the spawn fails immediately
// with ErrSpawnBusy rather than queueing, and the caller decides whether to
// retry, drop, or treat it as fatal (see MustSpawn). After Close it fails
// with ErrExecutorClosed. A nil future is a programmer error and panics.
func (x Spawner) Spawn(f Future) (TaskHandle, error) {
	if f == nil {
		panic(`tickloop: spawn of nil future`)
	}
	e := x.x
	if e == nil {
		panic(`tickloop: spawner not bound to an executor`)
	}
	if s := e.state.load(); s == StateClosing || s == StateClosed {
		if m := e.metrics; m != nil {
			m.spawnFailures.Add(1)
		}
		return TaskHandle{}, ErrExecutorClosed
	}
	for i := range e.tasks {
		t := &e.tasks[i]
		if !t.claim() {
			continue
		}
		// The slot is exclusively ours: claim set both the spawned and
		// queued bits, so no waker can race this write or push the task
		// before we do.
		t.future = f
		if m := e.metrics; m != nil {
			m.spawns.Add(1)
		}
		if e.queue.push(t) {
			if m := e.metrics; m != nil {
				m.notifies.Add(1)
			}
			e.pender.Notify()
		}
		e.log.Debug().Int("slot", t.slot).Log("task spawned")
		return TaskHandle{task: t}, nil
	}
	if m := e.metrics; m != nil {
		m.spawnFailures.Add(1)
	}
	e.log.Debug().Int("capacity", len(e.tasks)).Log("spawn failed: no free task slot")
	return TaskHandle{}, ErrSpawnBusy
}

// MustSpawn is Spawn for tasks the program cannot run without. It panics on
// failure instead of returning an error.
func (x Spawner) MustSpawn(f Future) TaskHandle {
	h, err := x.Spawn(f)
	if err != nil {
		panic(`tickloop: must spawn: ` + err.Error())
	}
	return h
}

// TaskHandle identifies a spawned task. The zero value identifies nothing.
type TaskHandle struct {
	task *Task
}

// Waker returns a waker for the task, for handing to external completion
// sources. Valid forever; see [Waker].
func (x TaskHandle) Waker() Waker {
	return Waker{task: x.task}
}

// Slot returns the pool slot index the task occupies, matching the "slot"
// field in executor log events. Slots are reused after completion.
func (x TaskHandle) Slot() int {
	if x.task == nil {
		return -1
	}
	return x.task.slot
}

// IsZero reports whether the handle is the zero value.
func (x TaskHandle) IsZero() bool {
	return x.task == nil
}

// String implements [fmt.Stringer], for debugging.
func (x TaskHandle) String() string {
	if x.task == nil {
		return "task(none)"
	}
	return "task(slot=" + strconv.Itoa(x.task.slot) + ", state=" + taskStateString(x.task.state.Load()) + ")"
}
