package tickloop

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// DefaultTaskCapacity is the slot-pool size used when WithTaskCapacity is
// not given.
const DefaultTaskCapacity = 64

// executorTestHooks provides injection points for deterministic race testing.
type executorTestHooks struct {
	PreWait  func() // Called before the CAS to StateWaiting
	PostWake func() // Called after Wait returns, before the CAS back
}

// Executor polls spawned tasks from a fixed slot pool, one at a time, on a
// single consumer goroutine.
//
// The hot path is allocation-free: spawning claims a pre-allocated slot,
// wakes push the slot itself onto an intrusive run queue, and a drain pass
// swaps the whole queue out in one atomic operation. Blocking between
// passes is delegated to the [Pender], which is the only environment
// specific piece.
//
// An executor is driven either by [Executor.Run] (blocking loop) or by
// repeated [Executor.Step] calls from a host scheduler, never both at once.
// Spawns and wakes are safe from any goroutine throughout.
type Executor struct { // betteralign:ignore
	// Prevent copying
	_ [0]func()

	// State machine (cache-line padded internally)
	state fastState

	// Run queue (cache-line padded internally)
	queue runQueue

	// tasks is the fixed slot pool. Slot addresses are stable for the
	// executor's lifetime; Waker and the run queue rely on that.
	tasks []Task

	pender  Pender
	log     *logiface.Logger[logiface.Event]
	metrics *Metrics

	// HOOKS: Test hooks for deterministic race testing
	testHooks *executorTestHooks

	// Goroutine tracking for reentrancy detection
	runGoroutineID atomic.Uint64

	stopOnce sync.Once
	doneOnce sync.Once
	done     chan struct{}
}

// New creates an executor. With no options it has DefaultTaskCapacity slots,
// a [ChanPender], no logger, and no metrics.
func New(options ...ExecutorOption) (*Executor, error) {
	cfg, err := resolveExecutorOptions(options)
	if err != nil {
		return nil, err
	}
	x := &Executor{
		pender: cfg.pender,
		log:    cfg.logger,
		done:   make(chan struct{}),
	}
	if x.pender == nil {
		x.pender = NewChanPender()
	}
	if cfg.metricsEnabled {
		x.metrics = new(Metrics)
	}
	x.tasks = make([]Task, cfg.taskCapacity)
	for i := range x.tasks {
		x.tasks[i].x = x
		x.tasks[i].slot = i
	}
	return x, nil
}

// Spawner returns a handle for spawning tasks onto the executor. Spawners
// are copyable values and safe for concurrent use.
func (x *Executor) Spawner() Spawner {
	return Spawner{x: x}
}

// State returns the executor's current state.
func (x *Executor) State() ExecutorState {
	return x.state.load()
}

// Metrics returns the executor's metrics, or nil unless WithMetrics(true)
// was given. The returned value is live; read it with Snapshot.
func (x *Executor) Metrics() *Metrics {
	return x.metrics
}

// Done returns a channel closed once the executor is fully stopped: after
// Run has returned, or immediately on Close if Run was never started.
func (x *Executor) Done() <-chan struct{} {
	return x.done
}

// Run drives the executor until ctx is cancelled or Close is called.
//
// init, if non-nil, runs first on the executor goroutine with the bound
// [Spawner]; use it to spawn the initial task(s). Run then alternates
// between draining the run queue and blocking in the pender.
//
// Run does not return under normal operation. It returns ctx.Err() on
// context cancellation, or nil after Close. Either way the executor is
// closed when Run returns and cannot be rerun. Calling Run concurrently
// with another Run or Step fails with ErrExecutorRunning; calling it from
// inside a task fails with ErrReentrantRun.
func (x *Executor) Run(ctx context.Context, init func(Spawner)) error {
	if x.isExecutorGoroutine() {
		return ErrReentrantRun
	}
	if !x.state.tryTransition(StateIdle, StateDraining) {
		if s := x.state.load(); s == StateClosing || s == StateClosed {
			return ErrExecutorClosed
		}
		return ErrExecutorRunning
	}

	defer x.closeDone()
	defer x.state.store(StateClosed)

	x.runGoroutineID.Store(goroutineID())
	defer x.runGoroutineID.Store(0)

	x.log.Info().Int("tasks", len(x.tasks)).Log("executor running")
	defer x.log.Info().Log("executor stopped")

	// Wake the wait loop when ctx is cancelled, so penders that cannot
	// observe ctx themselves still unblock.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			x.pender.Notify()
		case <-watchDone:
		}
	}()

	if init != nil {
		init(x.Spawner())
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if x.state.load() == StateClosing {
			return nil
		}

		if x.drainPass() {
			continue
		}

		// Nothing runnable. Announce the wait, then re-check the queue:
		// a push that raced with the drain would otherwise leave us
		// blocking on a notify that already came and went. The shipped
		// penders are level-triggered, so this is only a block-avoidance
		// optimization for them, but it keeps the loop correct for
		// penders that are not.
		if h := x.testHooks; h != nil && h.PreWait != nil {
			h.PreWait()
		}
		if !x.state.tryTransition(StateDraining, StateWaiting) {
			continue // Close raced in
		}
		if !x.queue.empty() {
			x.state.tryTransition(StateWaiting, StateDraining)
			continue
		}

		err := x.pender.Wait(ctx)
		if h := x.testHooks; h != nil && h.PostWake != nil {
			h.PostWake()
		}
		x.state.tryTransition(StateWaiting, StateDraining)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if x.state.load() == StateClosing {
				return nil
			}
			x.log.Err().Err(err).Log("pender wait failed")
			return err
		}
	}
}

// Step performs a single non-blocking drain pass, polling every task queued
// at the moment of the call. It is the integration point for executors
// embedded in a host event loop (see [CallbackPender]): the host calls Step
// whenever the pender callback fires.
//
// Reports whether any task was polled. Step and Run are mutually exclusive;
// concurrent consumers fail with ErrExecutorRunning.
func (x *Executor) Step() (bool, error) {
	if x.isExecutorGoroutine() {
		return false, ErrReentrantRun
	}
	if !x.state.tryTransition(StateIdle, StateDraining) {
		if s := x.state.load(); s == StateClosing || s == StateClosed {
			return false, ErrExecutorClosed
		}
		return false, ErrExecutorRunning
	}
	x.runGoroutineID.Store(goroutineID())
	defer x.runGoroutineID.Store(0)

	polled := x.drainPass()

	if !x.state.tryTransition(StateDraining, StateIdle) {
		// Close raced in during the pass; complete it.
		x.state.store(StateClosed)
		x.closeDone()
	}
	return polled, nil
}

// Close permanently stops the executor. It is idempotent and non-blocking:
// it wakes a waiting consumer and returns without waiting for Run to exit;
// use Done to observe full stop. Tasks still queued are not polled again,
// and subsequent spawns fail with ErrExecutorClosed.
func (x *Executor) Close() error {
	x.stopOnce.Do(func() {
		for {
			if s := x.state.load(); s == StateClosing || s == StateClosed {
				return
			}
			if x.state.tryTransition(StateIdle, StateClosed) {
				// Never ran; no consumer to hand the close to.
				x.closeDone()
				return
			}
			if x.state.transitionAny([]ExecutorState{StateDraining, StateWaiting}, StateClosing) {
				x.pender.Notify()
				return
			}
		}
	})
	return nil
}

func (x *Executor) closeDone() {
	x.doneOnce.Do(func() {
		close(x.done)
	})
}

// drainPass swaps out the run queue and polls every task in the snapshot.
// Tasks re-queued during the pass (by their own waker, or any other) land
// on the fresh list and are handled next pass, which bounds each pass and
// keeps same-cycle re-queues from starving their siblings.
func (x *Executor) drainPass() bool {
	head := x.queue.drain()
	if head == nil {
		return false
	}
	if m := x.metrics; m != nil {
		m.drains.Add(1)
	}
	// Process in push order.
	head = reverseTaskList(head)
	polled := false
	for t := head; t != nil; {
		// Capture the link first: a re-enqueue during the poll overwrites it.
		next := t.next.Load()
		if t.beginPoll() {
			polled = true
			x.pollTask(t)
		}
		t = next
	}
	return polled
}

func (x *Executor) pollTask(t *Task) {
	if m := x.metrics; m != nil {
		m.polls.Add(1)
	}
	done, panicked := x.safePoll(t)
	if done || panicked {
		t.complete()
		if m := x.metrics; m != nil {
			m.completions.Add(1)
			if panicked {
				m.panics.Add(1)
			}
		}
		return
	}
	t.endPoll()
}

// safePoll polls the task's future with panic recovery. A panicking future
// is logged and completed; the executor survives.
func (x *Executor) safePoll(t *Task) (done, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			x.log.Err().
				Int("slot", t.slot).
				Any("panic", r).
				Str("stack", string(debug.Stack())).
				Log("task panicked")
		}
	}()
	done = t.future.Poll(Waker{task: t}) == Ready
	return
}

// isExecutorGoroutine checks if we're on the goroutine currently driving
// the executor.
func (x *Executor) isExecutorGoroutine() bool {
	id := x.runGoroutineID.Load()
	if id == 0 {
		return false
	}
	return goroutineID() == id
}

// goroutineID returns the current goroutine's ID.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
